package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/alexedwards/argon2id"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/waconnect/backend/internal/db"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	if err := db.MigrateUp(dbURL); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		log.Fatalf("Failed to open DB: %v", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		log.Fatalf("Failed to ping DB: %v", err)
	}

	ownerID := seedUsers(ctx, pool)
	businessID := seedBusiness(ctx, pool, ownerID)
	seedProducts(ctx, pool, businessID)
	seedReviews(ctx, pool, businessID)

	log.Println("Seeding completed successfully!")
}

func seedUsers(ctx context.Context, pool *pgxpool.Pool) string {
	users := []struct {
		Name  string
		Email string
		Role  string
	}{
		{"Platform Admin", "admin@waconnect.in", "super_admin"},
		{"Rajesh Sharma", "rajesh@sharmasweets.in", "business_owner"},
		{"Priya Nair", "priya@glamourstudio.in", "business_owner"},
	}

	fmt.Println("Seeding Users...")
	hash, err := argon2id.CreateHash("password123", argon2id.DefaultParams)
	if err != nil {
		log.Fatalf("Failed to hash seed password: %v", err)
	}

	var ownerID string
	for _, u := range users {
		var id string
		err := pool.QueryRow(ctx, `
			INSERT INTO users (name, email, password_hash, role)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (email) DO UPDATE SET name = EXCLUDED.name
			RETURNING id::text;
		`, u.Name, u.Email, hash, u.Role).Scan(&id)
		if err != nil {
			log.Printf("Failed to seed user %s: %v", u.Email, err)
			continue
		}
		if u.Email == "rajesh@sharmasweets.in" {
			ownerID = id
		}
	}
	if ownerID == "" {
		log.Fatal("Demo owner was not seeded")
	}
	return ownerID
}

func seedBusiness(ctx context.Context, pool *pgxpool.Pool, ownerID string) string {
	fmt.Println("Seeding Business...")
	var id string
	err := pool.QueryRow(ctx, `
		INSERT INTO businesses (
			user_id, name, description, subdomain, whatsapp_number, category, template_type,
			address, business_hours, tax_percentage, delivery_charges,
			min_order_for_free_delivery, business_latitude, business_longitude,
			free_delivery_radius_km, delivery_charge_beyond_radius, max_delivery_radius_km
		) VALUES (
			$1::uuid, 'Sharma Sweets', 'Fresh mithai and namkeen made daily', 'sharma-sweets',
			'+919876543210', 'food', 'restaurant',
			'Shop 12, Linking Road, Bandra West, Mumbai', 'Mon-Sun 9am-9pm', 5, 30,
			500, 19.0760, 72.8777,
			3, 40, 12
		)
		ON CONFLICT (subdomain) DO UPDATE SET name = EXCLUDED.name
		RETURNING id::text;
	`, ownerID).Scan(&id)
	if err != nil {
		log.Fatalf("Failed to seed business: %v", err)
	}
	return id
}

func seedProducts(ctx context.Context, pool *pgxpool.Pool, businessID string) {
	products := []struct {
		Name  string
		MRP   float64
		Sale  float64
		Bulk  string
		Image string
	}{
		{"Kaju Katli (500g)", 400, 350, `[{"min_quantity":5,"price_per_unit":320}]`, "https://images.unsplash.com/photo-1605194000384-439c6ceb04bb?w=800"},
		{"Motichoor Ladoo (1kg)", 500, 450, `[]`, "https://images.unsplash.com/photo-1589301760014-d929f3979dbc?w=800"},
		{"Samosa (per dozen)", 180, 0, `[{"min_quantity":10,"price_per_unit":14}]`, ""},
		{"Rasgulla Tin (1kg)", 300, 260, `[]`, ""},
	}

	fmt.Println("Seeding Products...")
	for _, p := range products {
		discount := 0.0
		if p.MRP > 0 && p.Sale > 0 && p.Sale < p.MRP {
			discount = float64(int((p.MRP - p.Sale) / p.MRP * 100))
		}
		_, err := pool.Exec(ctx, `
			INSERT INTO products (business_id, name, description, mrp, sale_price,
				discount_percentage, bulk_pricing, image_url, category, product_type)
			VALUES ($1::uuid, $2, '', $3, $4, $5, $6::jsonb, NULLIF($7, ''), 'sweets', 'general')
			ON CONFLICT DO NOTHING;
		`, businessID, p.Name, p.MRP, p.Sale, discount, p.Bulk, p.Image)
		if err != nil {
			log.Printf("Failed to seed product %s: %v", p.Name, err)
		}
	}
}

func seedReviews(ctx context.Context, pool *pgxpool.Pool, businessID string) {
	reviews := []struct {
		Name    string
		Rating  int
		Comment string
	}{
		{"Anita Desai", 5, "Best kaju katli in Bandra, delivered in 30 minutes"},
		{"Vikram Mehta", 4, "Fresh and well packed"},
	}

	fmt.Println("Seeding Reviews...")
	for _, r := range reviews {
		_, err := pool.Exec(ctx, `
			INSERT INTO reviews (business_id, customer_name, rating, comment)
			VALUES ($1::uuid, $2, $3, NULLIF($4, ''))
			ON CONFLICT DO NOTHING;
		`, businessID, r.Name, r.Rating, r.Comment)
		if err != nil {
			log.Printf("Failed to seed review: %v", err)
		}
	}
}
