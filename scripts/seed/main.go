package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/leadbridge/leadbridge/internal/app"
	"github.com/leadbridge/leadbridge/internal/catalog"
	"github.com/leadbridge/leadbridge/internal/platform/cache"
	"github.com/leadbridge/leadbridge/internal/platform/db"
)

func main() {
	ctx := context.Background()
	cfg, err := app.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	pool, err := db.New(ctx, cfg.PGDSN, db.Options{ApplicationName: "leadbridge-seed"})
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	fmt.Println("→ Seeding users...")
	adminID, err := seedUsers(ctx, pool)
	if err != nil {
		log.Fatalf("seed users: %v", err)
	}

	fmt.Println("→ Seeding products...")
	if err := seedProducts(ctx, catalog.NewRepository(pool)); err != nil {
		log.Fatalf("seed products: %v", err)
	}

	fmt.Println("→ Issuing local admin session...")
	rdb, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		log.Fatalf("connect redis: %v", err)
	}
	defer rdb.Close()
	token, err := issueDevSession(ctx, rdb, adminID, cfg.SessionTTL)
	if err != nil {
		log.Fatalf("issue session: %v", err)
	}

	fmt.Println("✓ Seed complete at", time.Now().Format(time.RFC3339))
	fmt.Printf("  Authorization: Bearer %s\n", token)
}

func seedUsers(ctx context.Context, pool *pgxpool.Pool) (int64, error) {
	users := []struct {
		username string
		email    string
		role     string
		approved bool
	}{
		{"admin", "admin@leadbridge.local", "admin", true},
		{"sales", "sales@leadbridge.local", "user", true},
		{"pending", "pending@leadbridge.local", "user", false},
	}

	var adminID int64
	for _, u := range users {
		var id int64
		err := pool.QueryRow(ctx, `
			INSERT INTO users (username, email, role, is_approved)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (email) DO UPDATE SET role = EXCLUDED.role, is_approved = EXCLUDED.is_approved
			RETURNING id`, u.username, u.email, u.role, u.approved).Scan(&id)
		if err != nil {
			return 0, err
		}
		if u.role == "admin" && adminID == 0 {
			adminID = id
		}
	}
	return adminID, nil
}

func seedProducts(ctx context.Context, repo *catalog.Repository) error {
	products := []catalog.Product{
		{Name: "Demo Hoodie", SKU: "DEMO-HOODIE", Category: "Apparel", Variants: []catalog.Variant{
			{SKU: "DEMO-HOODIE-S", Title: "Small"},
			{SKU: "DEMO-HOODIE-M", Title: "Medium"},
		}},
		{Name: "Demo Mug", SKU: "DEMO-MUG", Category: "Homeware"},
		{Name: "Gift Card", SKU: "DEMO-GIFT", Category: catalog.DefaultCategory},
	}
	for _, p := range products {
		if _, err := repo.Create(ctx, p); err != nil && !errors.Is(err, catalog.ErrDuplicateSKU) {
			return err
		}
	}
	return nil
}

// issueDevSession writes a session in the shape the API resolves, so local
// requests can authenticate without an identity provider.
func issueDevSession(ctx context.Context, rdb *redis.Client, userID int64, ttl time.Duration) (string, error) {
	token := uuid.NewString()
	payload, err := json.Marshal(map[string]int64{"user_id": userID})
	if err != nil {
		return "", err
	}
	if err := rdb.Set(ctx, "session:"+token, payload, ttl).Err(); err != nil {
		return "", err
	}
	return token, nil
}
