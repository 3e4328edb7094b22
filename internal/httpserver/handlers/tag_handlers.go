package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"casefile/internal/auth"
	"casefile/internal/models"
)

func ListTags(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caseID := r.URL.Query().Get("caseId")
		if caseID == "" {
			respondError(w, http.StatusBadRequest, "caseId required")
			return
		}
		if _, _, err := auth.RequireCaseRole(db, caseID, auth.UserID(r.Context()), auth.RoleViewer); err != nil {
			respondAuthError(w, err)
			return
		}
		tags := []models.Tag{}
		_ = db.Where("case_id = ?", caseID).Order("name asc").Find(&tags).Error
		respondJSON(w, tags)
	}
}

type createTagReq struct {
	CaseID string `json:"caseId"`
	Name   string `json:"name"`
}

func CreateTag(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createTagReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		req.Name = strings.TrimSpace(req.Name)
		details := map[string]string{}
		if req.CaseID == "" {
			details["caseId"] = "caseId is required"
		}
		if req.Name == "" {
			details["name"] = "tag name is required"
		}
		if len(details) > 0 {
			respondValidation(w, details)
			return
		}
		if _, _, err := auth.RequireCaseRole(db, req.CaseID, auth.UserID(r.Context()), auth.RoleEditor); err != nil {
			respondAuthError(w, err)
			return
		}
		var dup int64
		db.Model(&models.Tag{}).
			Where("case_id = ? AND name = ?", req.CaseID, req.Name).Count(&dup)
		if dup > 0 {
			respondError(w, http.StatusConflict, "tag already exists")
			return
		}
		tag := models.Tag{CaseID: req.CaseID, Name: req.Name}
		if err := db.Create(&tag).Error; err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		respondJSON(w, tag)
	}
}

func DeleteTag(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		var tag models.Tag
		if err := db.First(&tag, "id = ?", id).Error; err != nil {
			respondError(w, http.StatusNotFound, "tag not found")
			return
		}
		if _, _, err := auth.RequireCaseRole(db, tag.CaseID, auth.UserID(r.Context()), auth.RoleEditor); err != nil {
			respondAuthError(w, err)
			return
		}
		err := db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Delete(&models.EvidenceTag{}, "tag_id = ?", id).Error; err != nil {
				return err
			}
			return tx.Delete(&models.Tag{}, "id = ?", id).Error
		})
		if err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		respondJSON(w, map[string]any{"ok": true})
	}
}
