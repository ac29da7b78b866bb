package catalog

import "time"

// Category groups services for browsing.
type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// ServiceItem is a bookable salon service.
type ServiceItem struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	ImageURL    string  `json:"imageUrl,omitempty"`
	Price       int64   `json:"price"`
	OfferPrice  *int64  `json:"offerPrice,omitempty"`
	Duration    int     `json:"duration"`
	CategoryID  *string `json:"categoryId,omitempty"`
}

// PackageItem is a service bundled inside a package.
type PackageItem struct {
	ServiceID string `json:"serviceId"`
	Name      string `json:"name"`
	Duration  int    `json:"duration"`
}

// Package bundles several services under a single price.
type Package struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	ImageURL    string        `json:"imageUrl,omitempty"`
	Price       int64         `json:"price"`
	OfferPrice  *int64        `json:"offerPrice,omitempty"`
	Items       []PackageItem `json:"items"`
}

// Testimonial is a customer quote shown on the storefront.
type Testimonial struct {
	ID        string    `json:"id"`
	Author    string    `json:"author"`
	Quote     string    `json:"quote"`
	Rating    int       `json:"rating"`
	CreatedAt time.Time `json:"createdAt"`
}
