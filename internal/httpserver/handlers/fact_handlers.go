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

// attachFactEvidence inserts join rows for the evidence ids that actually
// belong to the fact's case; foreign ids are dropped, same as reorder.
func attachFactEvidence(tx *gorm.DB, factID, caseID string, evidenceIDs []string) error {
	if len(evidenceIDs) == 0 {
		return nil
	}
	var valid []string
	if err := tx.Model(&models.Evidence{}).
		Where("case_id = ? AND id IN ?", caseID, evidenceIDs).
		Pluck("id", &valid).Error; err != nil {
		return err
	}
	rows := make([]models.FactEvidence, 0, len(valid))
	for _, id := range valid {
		rows = append(rows, models.FactEvidence{FactID: factID, EvidenceID: id})
	}
	if len(rows) == 0 {
		return nil
	}
	return tx.Create(&rows).Error
}

func ListFacts(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
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
		facts := []models.Fact{}
		_ = db.Preload("Evidence").Where("case_id = ?", caseID).
			Order("created_at desc").Find(&facts).Error
		respondJSON(w, facts)
	}
}

type createFactReq struct {
	CaseID      string   `json:"caseId"`
	Title       string   `json:"title"`
	Description *string  `json:"description,omitempty"`
	EvidenceIDs []string `json:"evidenceIds,omitempty"`
}

func CreateFact(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createFactReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		req.Title = strings.TrimSpace(req.Title)
		details := map[string]string{}
		if req.CaseID == "" {
			details["caseId"] = "caseId is required"
		}
		if req.Title == "" {
			details["title"] = "title is required"
		}
		if len(details) > 0 {
			respondValidation(w, details)
			return
		}
		userID := auth.UserID(r.Context())
		if _, _, err := auth.RequireCaseRole(db, req.CaseID, userID, auth.RoleEditor); err != nil {
			respondAuthError(w, err)
			return
		}
		fact := models.Fact{CaseID: req.CaseID, Title: req.Title, Description: req.Description}
		err := db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&fact).Error; err != nil {
				return err
			}
			return attachFactEvidence(tx, fact.ID, fact.CaseID, req.EvidenceIDs)
		})
		if err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		_ = db.Preload("Evidence").First(&fact, "id = ?", fact.ID).Error
		respondJSON(w, fact)
	}
}

type updateFactReq struct {
	Title       *string   `json:"title,omitempty"`
	Description *string   `json:"description,omitempty"`
	EvidenceIDs *[]string `json:"evidenceIds,omitempty"`
}

func UpdateFact(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		var fact models.Fact
		if err := db.First(&fact, "id = ?", id).Error; err != nil {
			respondError(w, http.StatusNotFound, "not found")
			return
		}
		if _, _, err := auth.RequireCaseRole(db, fact.CaseID, auth.UserID(r.Context()), auth.RoleEditor); err != nil {
			respondAuthError(w, err)
			return
		}
		var req updateFactReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		if req.Title != nil {
			title := strings.TrimSpace(*req.Title)
			if title == "" {
				respondValidation(w, map[string]string{"title": "title must not be empty"})
				return
			}
			fact.Title = title
		}
		if req.Description != nil {
			fact.Description = req.Description
		}
		err := db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Save(&fact).Error; err != nil {
				return err
			}
			if req.EvidenceIDs != nil {
				if err := tx.Delete(&models.FactEvidence{}, "fact_id = ?", id).Error; err != nil {
					return err
				}
				return attachFactEvidence(tx, id, fact.CaseID, *req.EvidenceIDs)
			}
			return nil
		})
		if err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		_ = db.Preload("Evidence").First(&fact, "id = ?", id).Error
		respondJSON(w, fact)
	}
}

func DeleteFact(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		var fact models.Fact
		if err := db.First(&fact, "id = ?", id).Error; err != nil {
			respondError(w, http.StatusNotFound, "not found")
			return
		}
		if _, _, err := auth.RequireCaseRole(db, fact.CaseID, auth.UserID(r.Context()), auth.RoleEditor); err != nil {
			respondAuthError(w, err)
			return
		}
		err := db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Delete(&models.FactEvidence{}, "fact_id = ?", id).Error; err != nil {
				return err
			}
			return tx.Delete(&models.Fact{}, "id = ?", id).Error
		})
		if err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		respondJSON(w, map[string]any{"ok": true})
	}
}
