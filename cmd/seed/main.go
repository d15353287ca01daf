package main

import (
	"context"
	"flag"
	"log"
	"os"

	"shopcore/internal/config"
	"shopcore/internal/db"
	"shopcore/internal/seed"
)

func main() {
	var (
		adminEmail    string
		adminPassword string
	)
	flag.StringVar(&adminEmail, "admin-email", "admin@example.com", "Email for the seeded admin account")
	flag.StringVar(&adminPassword, "admin-password", "ChangeMe123", "Password for the seeded admin account")
	flag.Parse()

	cfg := config.FromEnv()
	logger := log.New(os.Stdout, "[seed] ", log.LstdFlags|log.LUTC|log.Lshortfile)

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatalf("connect db: %v", err)
	}
	defer pool.Close()

	if err := seed.Apply(ctx, pool, adminEmail, adminPassword); err != nil {
		logger.Fatalf("seed apply: %v", err)
	}

	logger.Println("seed applied")
}
