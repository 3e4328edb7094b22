package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"casefile/internal/auth"
	"casefile/internal/models"
)

func validJobStatus(s string) bool {
	switch s {
	case models.JobStatusQueued, models.JobStatusProcessing,
		models.JobStatusDone, models.JobStatusError:
		return true
	}
	return false
}

type updateJobReq struct {
	Status         string  `json:"status"`
	ErrorMessage   *string `json:"error_message,omitempty"`
	TranscriptText *string `json:"transcript_text,omitempty"`
}

// UpdateJob is how the external worker reports progress. Entering
// "processing" stamps StartedAt; "done" and "error" stamp FinishedAt.
// A transcript posted for a transcription job is copied onto the evidence.
func UpdateJob(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		var job models.EvidenceJob
		if err := db.First(&job, "id = ?", id).Error; err != nil {
			respondError(w, http.StatusNotFound, "job not found")
			return
		}
		var e models.Evidence
		if err := db.First(&e, "id = ?", job.EvidenceID).Error; err != nil {
			respondError(w, http.StatusNotFound, "job not found")
			return
		}
		userID := auth.UserID(r.Context())
		if _, _, err := auth.RequireCaseRole(db, e.CaseID, userID, auth.RoleEditor); err != nil {
			respondAuthError(w, err)
			return
		}

		var req updateJobReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		if !validJobStatus(req.Status) {
			respondValidation(w, map[string]string{"status": "status must be queued, processing, done or error"})
			return
		}

		now := time.Now()
		job.Status = req.Status
		if req.ErrorMessage != nil {
			job.ErrorMessage = req.ErrorMessage
		}
		switch req.Status {
		case models.JobStatusProcessing:
			job.StartedAt = &now
		case models.JobStatusDone, models.JobStatusError:
			job.FinishedAt = &now
		}
		if err := db.Save(&job).Error; err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}

		if req.TranscriptText != nil && job.JobType == models.JobTypeTranscription {
			if err := db.Model(&models.Evidence{}).Where("id = ?", job.EvidenceID).
				Update("transcript_text", req.TranscriptText).Error; err != nil {
				respondError(w, http.StatusInternalServerError, err.Error())
				return
			}
			logAudit(db, lg, userID, e.CaseID, "evidence.transcript_updated", "job", job.ID, map[string]any{
				"evidenceId": job.EvidenceID,
			})
		}
		respondJSON(w, job)
	}
}
