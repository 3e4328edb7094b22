package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"casefile/internal/httpserver"
	"casefile/internal/logger"
	"casefile/internal/mailer"
	"casefile/internal/models"
	"casefile/internal/storage"
)

func main() {
	_ = godotenv.Load()
	lg := logger.New()
	defer lg.Sync()

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		lg.Fatalw("DATABASE_URL is empty")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		lg.Fatalw("db connect failed", "error", err)
	}
	if err := db.AutoMigrate(
		&models.User{}, &models.Session{},
		&models.Case{}, &models.CaseMember{},
		&models.Evidence{}, &models.EvidenceJob{},
		&models.Tag{}, &models.EvidenceTag{},
		&models.Fact{}, &models.FactEvidence{},
		&models.AuditLog{},
	); err != nil {
		lg.Fatalw("automigrate failed", "error", err)
	}

	store, err := storage.NewS3FromEnv(context.Background())
	if err != nil {
		lg.Fatalw("storage init failed", "error", err)
	}
	ml := mailer.NewFromEnv(lg)

	router := httpserver.NewRouter(db, store, ml, lg)
	port := os.Getenv("HTTP_PORT")
	if port == "" {
		port = "8080"
	}
	lg.Infow("listening", "port", port)
	if err := http.ListenAndServe(":"+port, router); err != nil {
		lg.Fatalw("server stopped", "error", err)
	}
}
