package handlers

import (
	"net/http"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"casefile/internal/auth"
	"casefile/internal/models"
)

// MyLogs returns the caller's recent audit entries, newest first.
func MyLogs(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid := auth.UserID(r.Context())
		logs := []models.AuditLog{}
		_ = db.Where("actor_user_id = ?", uid).Order("created_at desc").Limit(200).Find(&logs).Error
		respondJSON(w, logs)
	}
}
