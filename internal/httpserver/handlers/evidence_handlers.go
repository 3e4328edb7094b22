package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"casefile/internal/auth"
	"casefile/internal/models"
	"casefile/internal/storage"
)

func validEvidenceType(t string) bool {
	switch t {
	case models.EvidenceTypeImage, models.EvidenceTypeAudio, models.EvidenceTypeText:
		return true
	}
	return false
}

type createEvidenceReq struct {
	CaseID     string  `json:"caseId"`
	Type       string  `json:"type"`
	FileName   *string `json:"file_name,omitempty"`
	FileSize   *int64  `json:"file_size,omitempty"`
	MimeType   *string `json:"mime_type,omitempty"`
	CapturedAt *string `json:"captured_at,omitempty"`
	Source     *string `json:"source,omitempty"`
	Notes      *string `json:"notes,omitempty"`
}

// CreateEvidence records the metadata row ahead of the binary upload. Audio
// gets a queued transcription job, images a queued OCR job, text nothing.
func CreateEvidence(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createEvidenceReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		details := map[string]string{}
		if req.CaseID == "" {
			details["caseId"] = "caseId is required"
		}
		if !validEvidenceType(req.Type) {
			details["type"] = "type must be image, audio or text"
		}
		var capturedAt *time.Time
		if req.CapturedAt != nil {
			t, err := time.Parse(time.RFC3339, *req.CapturedAt)
			if err != nil {
				details["captured_at"] = "captured_at must be an RFC 3339 timestamp"
			} else {
				capturedAt = &t
			}
		}
		if req.FileSize != nil && *req.FileSize < 0 {
			details["file_size"] = "file_size must not be negative"
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

		e := models.Evidence{
			CaseID:     req.CaseID,
			Type:       req.Type,
			FileName:   req.FileName,
			FileSize:   req.FileSize,
			MimeType:   req.MimeType,
			CapturedAt: capturedAt,
			Notes:      req.Notes,
		}
		if req.Source != nil && *req.Source != "" {
			e.Source = *req.Source
		} else {
			e.Source = "whatsapp"
		}
		err := db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&e).Error; err != nil {
				return err
			}
			var jobType string
			switch e.Type {
			case models.EvidenceTypeAudio:
				jobType = models.JobTypeTranscription
			case models.EvidenceTypeImage:
				jobType = models.JobTypeOCR
			default:
				return nil
			}
			return tx.Create(&models.EvidenceJob{
				EvidenceID: e.ID,
				JobType:    jobType,
				Status:     models.JobStatusQueued,
			}).Error
		})
		if err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		logAudit(db, lg, userID, e.CaseID, "evidence.created", "evidence", e.ID, nil)
		respondJSON(w, e)
	}
}

func GetEvidence(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		var e models.Evidence
		if err := db.Preload("Jobs").Preload("Tags").First(&e, "id = ?", id).Error; err != nil {
			respondError(w, http.StatusNotFound, "not found")
			return
		}
		if _, _, err := auth.RequireCaseRole(db, e.CaseID, auth.UserID(r.Context()), auth.RoleViewer); err != nil {
			respondAuthError(w, err)
			return
		}
		respondJSON(w, e)
	}
}

// UpdateEvidence edits notes, captured_at and the tag set. The body is read
// key by key so an explicit null clears a field while an absent key leaves it
// alone. Tag replacement is delete-then-insert in one transaction.
func UpdateEvidence(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		var e models.Evidence
		if err := db.First(&e, "id = ?", id).Error; err != nil {
			respondError(w, http.StatusNotFound, "not found")
			return
		}
		userID := auth.UserID(r.Context())
		if _, _, err := auth.RequireCaseRole(db, e.CaseID, userID, auth.RoleEditor); err != nil {
			respondAuthError(w, err)
			return
		}

		var body map[string]json.RawMessage
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}

		updates := map[string]any{}
		if raw, ok := body["notes"]; ok {
			var notes *string
			if err := json.Unmarshal(raw, &notes); err != nil {
				respondValidation(w, map[string]string{"notes": "notes must be a string or null"})
				return
			}
			updates["notes"] = notes
		}
		if raw, ok := body["captured_at"]; ok {
			var s *string
			if err := json.Unmarshal(raw, &s); err != nil {
				respondValidation(w, map[string]string{"captured_at": "captured_at must be a timestamp or null"})
				return
			}
			if s == nil {
				updates["captured_at"] = nil
			} else {
				t, err := time.Parse(time.RFC3339, *s)
				if err != nil {
					respondValidation(w, map[string]string{"captured_at": "captured_at must be an RFC 3339 timestamp"})
					return
				}
				updates["captured_at"] = t
			}
		}
		var tagIDs []string
		replaceTags := false
		if raw, ok := body["tagIds"]; ok {
			if err := json.Unmarshal(raw, &tagIDs); err != nil {
				respondValidation(w, map[string]string{"tagIds": "tagIds must be an array of strings"})
				return
			}
			replaceTags = true
		}

		err := db.Transaction(func(tx *gorm.DB) error {
			if len(updates) > 0 {
				if err := tx.Model(&models.Evidence{}).Where("id = ?", id).
					Updates(updates).Error; err != nil {
					return err
				}
			}
			if replaceTags {
				if err := tx.Delete(&models.EvidenceTag{}, "evidence_id = ?", id).Error; err != nil {
					return err
				}
				if len(tagIDs) > 0 {
					// Only tags of the same case may be attached.
					var valid []string
					if err := tx.Model(&models.Tag{}).
						Where("case_id = ? AND id IN ?", e.CaseID, tagIDs).
						Pluck("id", &valid).Error; err != nil {
						return err
					}
					rows := make([]models.EvidenceTag, 0, len(valid))
					for _, tagID := range valid {
						rows = append(rows, models.EvidenceTag{EvidenceID: id, TagID: tagID})
					}
					if len(rows) > 0 {
						if err := tx.Create(&rows).Error; err != nil {
							return err
						}
					}
				}
			}
			return nil
		})
		if err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}

		var updatedRow models.Evidence
		if err := db.Preload("Jobs").Preload("Tags").First(&updatedRow, "id = ?", id).Error; err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		logAudit(db, lg, userID, e.CaseID, "evidence.updated", "evidence", id, nil)
		respondJSON(w, updatedRow)
	}
}

// DeleteEvidence removes the row, its jobs and join rows, and best-effort
// deletes the blob. A failed blob delete never blocks the metadata delete.
func DeleteEvidence(db *gorm.DB, store storage.Store, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		var e models.Evidence
		if err := db.First(&e, "id = ?", id).Error; err != nil {
			respondError(w, http.StatusNotFound, "not found")
			return
		}
		userID := auth.UserID(r.Context())
		if _, _, err := auth.RequireCaseRole(db, e.CaseID, userID, auth.RoleEditor); err != nil {
			respondAuthError(w, err)
			return
		}
		if e.BlobKey != nil && *e.BlobKey != "" {
			if err := store.Delete(r.Context(), *e.BlobKey); err != nil {
				lg.Warnw("blob delete failed", "key", *e.BlobKey, "error", err)
			}
		}
		err := db.Transaction(func(tx *gorm.DB) error {
			for _, d := range []error{
				tx.Delete(&models.EvidenceTag{}, "evidence_id = ?", id).Error,
				tx.Delete(&models.FactEvidence{}, "evidence_id = ?", id).Error,
				tx.Delete(&models.EvidenceJob{}, "evidence_id = ?", id).Error,
				tx.Delete(&models.Evidence{}, "id = ?", id).Error,
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
		logAudit(db, lg, userID, e.CaseID, "evidence.deleted", "evidence", id, nil)
		respondJSON(w, map[string]any{"ok": true})
	}
}

// ListCaseEvidence lists a case's evidence with optional type/tag/pending-job
// filters. The unfiltered timeline is ordered by the explicit sort order;
// filtered views fall back to capture/creation time.
func ListCaseEvidence(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caseID := chi.URLParam(r, "id")
		if _, _, err := auth.RequireCaseRole(db, caseID, auth.UserID(r.Context()), auth.RoleViewer); err != nil {
			respondAuthError(w, err)
			return
		}

		typ := r.URL.Query().Get("type")
		tagID := r.URL.Query().Get("tagId")
		onlyPending := r.URL.Query().Get("onlyPendingJobs") == "true"

		q := db.Preload("Jobs").Preload("Tags").Where("case_id = ?", caseID)
		filtered := false
		if validEvidenceType(typ) {
			q = q.Where("type = ?", typ)
			filtered = true
		}
		if tagID != "" {
			q = q.Where("id IN (?)", db.Model(&models.EvidenceTag{}).
				Select("evidence_id").Where("tag_id = ?", tagID))
			filtered = true
		}
		if onlyPending {
			q = q.Where("id IN (?)", db.Model(&models.EvidenceJob{}).
				Select("evidence_id").Where("status IN ?", []string{
				models.JobStatusQueued, models.JobStatusProcessing,
			}))
			filtered = true
		}
		if filtered {
			q = q.Order("captured_at asc").Order("created_at asc")
		} else {
			q = q.Order("sort_order asc").Order("captured_at asc").Order("created_at asc")
		}

		evidence := []models.Evidence{}
		if err := q.Find(&evidence).Error; err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		respondJSON(w, evidence)
	}
}

// UploadEvidence receives the multipart binary for an existing evidence row
// and proxies it to the blob store.
func UploadEvidence(db *gorm.DB, store storage.Store, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		var e models.Evidence
		if err := db.First(&e, "id = ?", id).Error; err != nil {
			respondError(w, http.StatusNotFound, "not found")
			return
		}
		if _, _, err := auth.RequireCaseRole(db, e.CaseID, auth.UserID(r.Context()), auth.RoleEditor); err != nil {
			respondAuthError(w, err)
			return
		}

		file, header, err := r.FormFile("file")
		if err != nil || header.Size == 0 {
			respondError(w, http.StatusBadRequest, "no file provided")
			return
		}
		defer file.Close()

		contentType := header.Header.Get("Content-Type")
		key := "cases/" + e.CaseID + "/evidence/" + e.ID + "/" + uuid.NewString() + "-" + sanitizeFileName(header.Filename)
		url, err := store.Save(r.Context(), key, file, contentType)
		if err != nil {
			lg.Errorw("blob upload failed", "key", key, "error", err)
			respondError(w, http.StatusBadGateway, "upload failed")
			return
		}

		updates := map[string]any{
			"blob_key":  key,
			"blob_url":  url,
			"file_name": header.Filename,
			"file_size": header.Size,
		}
		if contentType != "" {
			updates["mime_type"] = contentType
		} else {
			updates["mime_type"] = nil
		}
		if err := db.Model(&models.Evidence{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		respondJSON(w, map[string]any{"url": url, "pathname": key})
	}
}

// DownloadEvidence redirects to the stored blob.
func DownloadEvidence(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		var e models.Evidence
		if err := db.First(&e, "id = ?", id).Error; err != nil {
			respondError(w, http.StatusNotFound, "not found")
			return
		}
		if _, _, err := auth.RequireCaseRole(db, e.CaseID, auth.UserID(r.Context()), auth.RoleViewer); err != nil {
			respondAuthError(w, err)
			return
		}
		if e.BlobURL == nil || *e.BlobURL == "" {
			respondError(w, http.StatusNotFound, "file not uploaded yet")
			return
		}
		http.Redirect(w, r, *e.BlobURL, http.StatusFound)
	}
}

func sanitizeFileName(name string) string {
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	if name == "" {
		name = "file"
	}
	return name
}
