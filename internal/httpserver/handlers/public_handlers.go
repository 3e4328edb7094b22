package handlers

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"casefile/internal/models"
)

// PublicCase serves the unauthenticated read-only projection behind a share
// token. An unknown or revoked token is a plain 404; nothing else about the
// case leaks.
func PublicCase(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := chi.URLParam(r, "token")
		var c models.Case
		if token == "" || db.First(&c, "share_token = ?", token).Error != nil {
			respondError(w, http.StatusNotFound, "link invalid or disabled")
			return
		}

		evidence := []models.Evidence{}
		_ = db.Preload("Jobs").Preload("Tags").
			Where("case_id = ?", c.ID).
			Order("sort_order asc").Order("captured_at asc").Order("created_at asc").
			Find(&evidence).Error
		facts := []models.Fact{}
		_ = db.Preload("Evidence").Where("case_id = ?", c.ID).
			Order("created_at asc").Find(&facts).Error
		tags := []models.Tag{}
		_ = db.Where("case_id = ?", c.ID).Order("name asc").Find(&tags).Error

		evOut := make([]map[string]any, 0, len(evidence))
		for _, e := range evidence {
			jobs := make([]map[string]any, 0, len(e.Jobs))
			for _, j := range e.Jobs {
				jobs = append(jobs, map[string]any{
					"id": j.ID, "job_type": j.JobType, "status": j.Status,
				})
			}
			evOut = append(evOut, map[string]any{
				"id":              e.ID,
				"type":            e.Type,
				"file_name":       e.FileName,
				"notes":           e.Notes,
				"captured_at":     e.CapturedAt,
				"created_at":      e.CreatedAt,
				"transcript_text": e.TranscriptText,
				"ocr_text":        e.OCRText,
				"tags":            e.Tags,
				"jobs":            jobs,
				"viewUrl": baseURL() + "/public/evidence?token=" +
					url.QueryEscape(token) + "&id=" + e.ID,
			})
		}
		factOut := make([]map[string]any, 0, len(facts))
		for _, f := range facts {
			ids := make([]string, 0, len(f.Evidence))
			for _, e := range f.Evidence {
				ids = append(ids, e.ID)
			}
			factOut = append(factOut, map[string]any{
				"id":          f.ID,
				"title":       f.Title,
				"description": f.Description,
				"evidenceIds": ids,
			})
		}

		respondJSON(w, map[string]any{
			"case": map[string]any{
				"id":              c.ID,
				"title":           c.Title,
				"description":     c.Description,
				"people_involved": c.PeopleInvolved,
				"status":          c.Status,
			},
			"evidence": evOut,
			"facts":    factOut,
			"tags":     tags,
		})
	}
}

// PublicEvidence redirects to an evidence blob when the share token matches
// the evidence's case.
func PublicEvidence(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := r.URL.Query().Get("token")
		id := r.URL.Query().Get("id")
		if token == "" || id == "" {
			respondError(w, http.StatusBadRequest, "missing token or id")
			return
		}
		var e models.Evidence
		if err := db.First(&e, "id = ?", id).Error; err != nil {
			respondError(w, http.StatusNotFound, "not found")
			return
		}
		var c models.Case
		if err := db.First(&c, "id = ?", e.CaseID).Error; err != nil ||
			c.ShareToken == nil || *c.ShareToken != token {
			respondError(w, http.StatusNotFound, "not found")
			return
		}
		if e.BlobURL == nil || *e.BlobURL == "" {
			respondError(w, http.StatusNotFound, "file not available")
			return
		}
		http.Redirect(w, r, *e.BlobURL, http.StatusFound)
	}
}
