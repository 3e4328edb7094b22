package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"casefile/internal/auth"
	"casefile/internal/export"
	"casefile/internal/models"
)

// ExportCase renders the case to its Markdown summary.
func ExportCase(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caseID := chi.URLParam(r, "id")
		_, c, err := auth.RequireCaseRole(db, caseID, auth.UserID(r.Context()), auth.RoleViewer)
		if err != nil {
			respondAuthError(w, err)
			return
		}

		var evidence []models.Evidence
		if err := db.Preload("Tags").Where("case_id = ?", caseID).
			Order("captured_at asc").Order("created_at asc").
			Find(&evidence).Error; err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		var facts []models.Fact
		if err := db.Preload("Evidence.Tags").Where("case_id = ?", caseID).
			Order("created_at asc").Find(&facts).Error; err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}

		md := export.Markdown(c, evidence, facts)
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		w.Header().Set("Content-Disposition", `inline; filename="case-`+caseID+`.md"`)
		_, _ = w.Write([]byte(md))
	}
}
