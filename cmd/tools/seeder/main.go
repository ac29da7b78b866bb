package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		log.Fatalf("Failed to open DB: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to ping DB: %v", err)
	}

	seedCategories(db)
	seedServices(db)
	seedPackages(db)
	seedCoupons(db)
	seedTestimonials(db)

	log.Println("Seeding completed successfully!")
}

func seedCategories(db *sql.DB) {
	categories := []struct {
		Name string
		Slug string
	}{
		{"Hair", "hair"},
		{"Skin", "skin"},
		{"Nails", "nails"},
		{"Spa", "spa"},
		{"Makeup", "makeup"},
	}

	fmt.Println("Seeding Categories...")
	for _, c := range categories {
		_, err := db.Exec(`
			INSERT INTO categories (name, slug)
			VALUES ($1, $2)
			ON CONFLICT (slug) DO UPDATE SET name = EXCLUDED.name;
		`, c.Name, c.Slug)
		if err != nil {
			log.Printf("Failed to upsert category %s: %v", c.Name, err)
		}
	}
}

func seedServices(db *sql.DB) {
	services := []struct {
		ID         string
		Name       string
		Desc       string
		Image      string
		Price      int64
		OfferPrice *int64
		Duration   int
		Category   string
	}{
		{"4d2f7a10-0001-4c64-9a8e-9e51a1b20001", "Classic Haircut", "Wash, cut and blow dry", "https://images.unsplash.com/photo-1560066984-138dadb4c035?w=800", 499, ptr(399), 30, "hair"},
		{"4d2f7a10-0001-4c64-9a8e-9e51a1b20002", "Hair Spa", "Deep conditioning treatment with scalp massage", "https://images.unsplash.com/photo-1522337660859-02fbefca4702?w=800", 999, ptr(799), 45, "hair"},
		{"4d2f7a10-0001-4c64-9a8e-9e51a1b20003", "Global Hair Colour", "Ammonia-free colour, shoulder length", "https://images.unsplash.com/photo-1562322140-8baeececf3df?w=800", 2499, nil, 90, "hair"},
		{"4d2f7a10-0001-4c64-9a8e-9e51a1b20004", "Classic Facial", "Cleanse, exfoliate, massage and mask", "https://images.unsplash.com/photo-1570172619644-dfd03ed5d881?w=800", 1199, ptr(899), 60, "skin"},
		{"4d2f7a10-0001-4c64-9a8e-9e51a1b20005", "De-Tan Pack", "Face and neck de-tan treatment", "https://images.unsplash.com/photo-1616394584738-fc6e612e71b9?w=800", 699, nil, 30, "skin"},
		{"4d2f7a10-0001-4c64-9a8e-9e51a1b20006", "Manicure", "Classic manicure with polish", "https://images.unsplash.com/photo-1604654894610-df63bc536371?w=800", 599, ptr(449), 40, "nails"},
		{"4d2f7a10-0001-4c64-9a8e-9e51a1b20007", "Pedicure", "Classic pedicure with scrub", "https://images.unsplash.com/photo-1519014816548-bf5fe059798b?w=800", 699, ptr(549), 45, "nails"},
		{"4d2f7a10-0001-4c64-9a8e-9e51a1b20008", "Swedish Massage", "Full body relaxation massage", "https://images.unsplash.com/photo-1544161515-4ab6ce6db874?w=800", 1999, nil, 60, "spa"},
		{"4d2f7a10-0001-4c64-9a8e-9e51a1b20009", "Head Massage", "Ayurvedic oil head massage", "https://images.unsplash.com/photo-1600334129128-685c5582fd35?w=800", 499, nil, 20, "spa"},
		{"4d2f7a10-0001-4c64-9a8e-9e51a1b2000a", "Party Makeup", "Full face party makeup with lashes", "https://images.unsplash.com/photo-1487412947147-5cebf100ffc2?w=800", 2999, ptr(2499), 75, "makeup"},
	}

	fmt.Println("Seeding Services...")
	for _, s := range services {
		_, err := db.Exec(`
			INSERT INTO services (id, name, description, image_url, price, offer_price, duration, category_id)
			VALUES ($1, $2, $3, $4, $5, $6, $7, (SELECT id FROM categories WHERE slug = $8))
			ON CONFLICT (id) DO UPDATE SET
				name = EXCLUDED.name, description = EXCLUDED.description, image_url = EXCLUDED.image_url,
				price = EXCLUDED.price, offer_price = EXCLUDED.offer_price, duration = EXCLUDED.duration,
				category_id = EXCLUDED.category_id, updated_at = now();
		`, s.ID, s.Name, s.Desc, s.Image, s.Price, s.OfferPrice, s.Duration, s.Category)
		if err != nil {
			log.Printf("Failed to upsert service %s: %v", s.Name, err)
		}
	}
}

func seedPackages(db *sql.DB) {
	packages := []struct {
		ID         string
		Name       string
		Desc       string
		Image      string
		Price      int64
		OfferPrice *int64
		ServiceIDs []string
	}{
		{
			"6b9e3c20-0002-4c64-9a8e-9e51a1b20001", "Bridal Glow", "Facial, manicure, pedicure and party makeup",
			"https://images.unsplash.com/photo-1595476108010-b4d1f102b1b1?w=800", 5499, ptr(4499),
			[]string{"4d2f7a10-0001-4c64-9a8e-9e51a1b20004", "4d2f7a10-0001-4c64-9a8e-9e51a1b20006", "4d2f7a10-0001-4c64-9a8e-9e51a1b20007", "4d2f7a10-0001-4c64-9a8e-9e51a1b2000a"},
		},
		{
			"6b9e3c20-0002-4c64-9a8e-9e51a1b20002", "Relax & Shine", "Hair spa, head massage and classic facial",
			"https://images.unsplash.com/photo-1540555700478-4be289fbecef?w=800", 2699, ptr(2199),
			[]string{"4d2f7a10-0001-4c64-9a8e-9e51a1b20002", "4d2f7a10-0001-4c64-9a8e-9e51a1b20009", "4d2f7a10-0001-4c64-9a8e-9e51a1b20004"},
		},
	}

	fmt.Println("Seeding Packages...")
	for _, p := range packages {
		_, err := db.Exec(`
			INSERT INTO packages (id, name, description, image_url, price, offer_price)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (id) DO UPDATE SET
				name = EXCLUDED.name, description = EXCLUDED.description, image_url = EXCLUDED.image_url,
				price = EXCLUDED.price, offer_price = EXCLUDED.offer_price, updated_at = now();
		`, p.ID, p.Name, p.Desc, p.Image, p.Price, p.OfferPrice)
		if err != nil {
			log.Printf("Failed to upsert package %s: %v", p.Name, err)
			continue
		}
		for i, serviceID := range p.ServiceIDs {
			_, err := db.Exec(`
				INSERT INTO package_items (package_id, service_id, position)
				VALUES ($1, $2, $3)
				ON CONFLICT (package_id, service_id) DO UPDATE SET position = EXCLUDED.position;
			`, p.ID, serviceID, i)
			if err != nil {
				log.Printf("Failed to link package %s to service %s: %v", p.Name, serviceID, err)
			}
		}
	}
}

func seedCoupons(db *sql.DB) {
	coupons := []struct {
		ID            string
		Code          string
		Name          string
		Percent       int64
		MaxDiscount   int64
		MinOrderValue int64
		ValidUntil    string
		FreeServiceID *string
	}{
		{"8a1c5e30-0003-4c64-9a8e-9e51a1b20001", "WELCOME10", "10% off your first visit", 10, 300, 0, "2027-03-31", nil},
		{"8a1c5e30-0003-4c64-9a8e-9e51a1b20002", "GLOW20", "20% off on orders above 1499", 20, 800, 1499, "2026-12-31", nil},
		{"8a1c5e30-0003-4c64-9a8e-9e51a1b20003", "PAMPER", "15% off plus a free head massage", 15, 500, 999, "2026-10-31", ptr2("4d2f7a10-0001-4c64-9a8e-9e51a1b20009")},
	}

	fmt.Println("Seeding Coupons...")
	for _, c := range coupons {
		var freeID, freeName *string
		var freeDuration *int
		if c.FreeServiceID != nil {
			freeID = c.FreeServiceID
			var name string
			var duration int
			if err := db.QueryRow("SELECT name, duration FROM services WHERE id = $1", *c.FreeServiceID).Scan(&name, &duration); err != nil {
				log.Printf("Failed to resolve free service for coupon %s: %v", c.Code, err)
				continue
			}
			freeName = &name
			freeDuration = &duration
		}
		_, err := db.Exec(`
			INSERT INTO coupons (id, code, name, percent, max_discount, min_order_value, valid_until,
				free_service_id, free_service_name, free_service_duration)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			ON CONFLICT (id) DO UPDATE SET
				code = EXCLUDED.code, name = EXCLUDED.name, percent = EXCLUDED.percent,
				max_discount = EXCLUDED.max_discount, min_order_value = EXCLUDED.min_order_value,
				valid_until = EXCLUDED.valid_until, free_service_id = EXCLUDED.free_service_id,
				free_service_name = EXCLUDED.free_service_name,
				free_service_duration = EXCLUDED.free_service_duration, updated_at = now();
		`, c.ID, c.Code, c.Name, c.Percent, c.MaxDiscount, c.MinOrderValue, c.ValidUntil, freeID, freeName, freeDuration)
		if err != nil {
			log.Printf("Failed to upsert coupon %s: %v", c.Code, err)
		}
	}
}

func seedTestimonials(db *sql.DB) {
	testimonials := []struct {
		ID     string
		Author string
		Quote  string
		Rating int
	}{
		{"9f4d7b40-0004-4c64-9a8e-9e51a1b20001", "Priya S.", "The hair spa was heavenly. Booked again the same week!", 5},
		{"9f4d7b40-0004-4c64-9a8e-9e51a1b20002", "Rahul M.", "Quick booking, fair prices and the haircut was spot on.", 4},
		{"9f4d7b40-0004-4c64-9a8e-9e51a1b20003", "Anita R.", "Bridal package made my big day stress free.", 5},
	}

	fmt.Println("Seeding Testimonials...")
	for _, t := range testimonials {
		_, err := db.Exec(`
			INSERT INTO testimonials (id, author, quote, rating)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (id) DO UPDATE SET author = EXCLUDED.author, quote = EXCLUDED.quote, rating = EXCLUDED.rating;
		`, t.ID, t.Author, t.Quote, t.Rating)
		if err != nil {
			log.Printf("Failed to upsert testimonial by %s: %v", t.Author, err)
		}
	}
}

func ptr(v int64) *int64    { return &v }
func ptr2(v string) *string { return &v }
