package handlers

import (
	"encoding/json"
	"net/http"
	"os"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"casefile/internal/auth"
	"casefile/internal/models"
	"casefile/internal/util"
)

const shareTokenBytes = 24 // 48 hex chars

func validCaseStatus(s string) bool {
	switch s {
	case models.CaseStatusDraft, models.CaseStatusActive, models.CaseStatusClosed:
		return true
	}
	return false
}

func baseURL() string {
	if v := os.Getenv("PUBLIC_BASE_URL"); v != "" {
		return strings.TrimSuffix(v, "/")
	}
	return "http://localhost:8080"
}

type caseWithRole struct {
	models.Case
	MyRole string `json:"myRole"`
}

// ListCases returns every case the caller belongs to, newest update first,
// annotated with the caller's role.
func ListCases(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := auth.UserID(r.Context())
		var members []models.CaseMember
		_ = db.Where("user_id = ?", userID).Find(&members).Error
		roleByCase := make(map[string]string, len(members))
		ids := make([]string, 0, len(members))
		for _, m := range members {
			roleByCase[m.CaseID] = m.Role
			ids = append(ids, m.CaseID)
		}
		out := []caseWithRole{}
		if len(ids) > 0 {
			var cases []models.Case
			_ = db.Where("id IN ?", ids).Order("updated_at desc").Find(&cases).Error
			for _, c := range cases {
				out = append(out, caseWithRole{Case: c, MyRole: roleByCase[c.ID]})
			}
		}
		respondJSON(w, out)
	}
}

type createCaseReq struct {
	Title          string  `json:"title"`
	Description    *string `json:"description,omitempty"`
	PeopleInvolved *string `json:"people_involved,omitempty"`
	Status         *string `json:"status,omitempty"`
}

func CreateCase(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := auth.UserID(r.Context())
		var req createCaseReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		req.Title = strings.TrimSpace(req.Title)
		if req.Title == "" {
			respondValidation(w, map[string]string{"title": "title is required"})
			return
		}
		status := models.CaseStatusDraft
		if req.Status != nil {
			if !validCaseStatus(*req.Status) {
				respondValidation(w, map[string]string{"status": "status must be draft, active or closed"})
				return
			}
			status = *req.Status
		}
		c := models.Case{
			Title:          req.Title,
			Description:    req.Description,
			PeopleInvolved: req.PeopleInvolved,
			Status:         status,
		}
		err := db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&c).Error; err != nil {
				return err
			}
			return tx.Create(&models.CaseMember{
				CaseID: c.ID,
				UserID: userID,
				Role:   string(auth.RoleOwner),
			}).Error
		})
		if err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		logAudit(db, lg, userID, c.ID, "case.created", "case", c.ID, nil)
		respondJSON(w, c)
	}
}

// GetCase returns the case plus its membership list.
func GetCase(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		_, c, err := auth.RequireCaseRole(db, id, auth.UserID(r.Context()), auth.RoleViewer)
		if err != nil {
			respondAuthError(w, err)
			return
		}
		var members []models.CaseMember
		_ = db.Where("case_id = ?", id).Order("created_at asc").Find(&members).Error
		respondJSON(w, map[string]any{
			"id":              c.ID,
			"title":           c.Title,
			"description":     c.Description,
			"people_involved": c.PeopleInvolved,
			"status":          c.Status,
			"share_token":     c.ShareToken,
			"created_at":      c.CreatedAt,
			"updated_at":      c.UpdatedAt,
			"members":         members,
		})
	}
}

type updateCaseReq struct {
	Title          *string `json:"title,omitempty"`
	Description    *string `json:"description,omitempty"`
	PeopleInvolved *string `json:"people_involved,omitempty"`
	Status         *string `json:"status,omitempty"`
}

func UpdateCase(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		userID := auth.UserID(r.Context())
		_, c, err := auth.RequireCaseRole(db, id, userID, auth.RoleOwner)
		if err != nil {
			respondAuthError(w, err)
			return
		}
		var req updateCaseReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		updated := []string{}
		if req.Title != nil {
			title := strings.TrimSpace(*req.Title)
			if title == "" {
				respondValidation(w, map[string]string{"title": "title must not be empty"})
				return
			}
			c.Title = title
			updated = append(updated, "title")
		}
		if req.Description != nil {
			c.Description = req.Description
			updated = append(updated, "description")
		}
		if req.PeopleInvolved != nil {
			c.PeopleInvolved = req.PeopleInvolved
			updated = append(updated, "people_involved")
		}
		if req.Status != nil {
			if !validCaseStatus(*req.Status) {
				respondValidation(w, map[string]string{"status": "status must be draft, active or closed"})
				return
			}
			c.Status = *req.Status
			updated = append(updated, "status")
		}
		if err := db.Save(c).Error; err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		logAudit(db, lg, userID, id, "case.updated", "case", id, map[string]any{"updated": updated})
		respondJSON(w, c)
	}
}

// DeleteCase removes the case and everything it owns in one transaction.
// The cascade is explicit rather than delegated to referential actions so a
// partial delete is never observable.
func DeleteCase(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		userID := auth.UserID(r.Context())
		if _, _, err := auth.RequireCaseRole(db, id, userID, auth.RoleOwner); err != nil {
			respondAuthError(w, err)
			return
		}
		err := db.Transaction(func(tx *gorm.DB) error {
			var evidenceIDs []string
			if err := tx.Model(&models.Evidence{}).Where("case_id = ?", id).
				Pluck("id", &evidenceIDs).Error; err != nil {
				return err
			}
			var factIDs []string
			if err := tx.Model(&models.Fact{}).Where("case_id = ?", id).
				Pluck("id", &factIDs).Error; err != nil {
				return err
			}
			if len(evidenceIDs) > 0 {
				if err := tx.Delete(&models.EvidenceTag{}, "evidence_id IN ?", evidenceIDs).Error; err != nil {
					return err
				}
				if err := tx.Delete(&models.EvidenceJob{}, "evidence_id IN ?", evidenceIDs).Error; err != nil {
					return err
				}
			}
			if len(factIDs) > 0 {
				if err := tx.Delete(&models.FactEvidence{}, "fact_id IN ?", factIDs).Error; err != nil {
					return err
				}
			}
			for _, d := range []error{
				tx.Delete(&models.Evidence{}, "case_id = ?", id).Error,
				tx.Delete(&models.Fact{}, "case_id = ?", id).Error,
				tx.Delete(&models.Tag{}, "case_id = ?", id).Error,
				tx.Delete(&models.CaseMember{}, "case_id = ?", id).Error,
				tx.Delete(&models.Case{}, "id = ?", id).Error,
			} {
				if d != nil {
					return d
				}
			}
			return nil
		})
		if err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		logAudit(db, lg, userID, id, "case.deleted", "case", id, nil)
		respondJSON(w, map[string]any{"ok": true})
	}
}

// ShareCase enables the public link. Idempotent: an existing token is reused.
func ShareCase(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		userID := auth.UserID(r.Context())
		_, c, err := auth.RequireCaseRole(db, id, userID, auth.RoleOwner)
		if err != nil {
			respondAuthError(w, err)
			return
		}
		if c.ShareToken == nil {
			token := util.RandomToken(shareTokenBytes)
			if err := db.Model(c).Update("share_token", token).Error; err != nil {
				respondError(w, http.StatusInternalServerError, err.Error())
				return
			}
			c.ShareToken = &token
			logAudit(db, lg, userID, id, "case.share_enabled", "case", id, nil)
		}
		respondJSON(w, map[string]any{
			"shareToken": *c.ShareToken,
			"publicUrl":  baseURL() + "/view/" + *c.ShareToken,
		})
	}
}

// RevokeShare nulls the token; every previously distributed link dies with it.
func RevokeShare(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		userID := auth.UserID(r.Context())
		if _, _, err := auth.RequireCaseRole(db, id, userID, auth.RoleOwner); err != nil {
			respondAuthError(w, err)
			return
		}
		if err := db.Model(&models.Case{}).Where("id = ?", id).
			Update("share_token", nil).Error; err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		logAudit(db, lg, userID, id, "case.share_disabled", "case", id, nil)
		respondJSON(w, map[string]any{"ok": true})
	}
}
