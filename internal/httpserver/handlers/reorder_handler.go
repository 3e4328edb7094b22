package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"casefile/internal/auth"
	"casefile/internal/models"
)

type reorderReq struct {
	OrderedIDs []string `json:"orderedIds"`
}

// ReorderEvidence rewrites the explicit display order of a case's evidence.
// Ids that do not belong to the case are dropped silently; a client holding
// a stale list must not fail the whole reorder. The surviving ids get
// sort_order 0..n-1 in request order, applied in a single transaction so no
// reader ever observes a partial permutation. Reapplying the same list is a
// no-op.
func ReorderEvidence(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caseID := chi.URLParam(r, "id")
		userID := auth.UserID(r.Context())
		if _, _, err := auth.RequireCaseRole(db, caseID, userID, auth.RoleEditor); err != nil {
			respondAuthError(w, err)
			return
		}

		var req reorderReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		if len(req.OrderedIDs) == 0 {
			respondError(w, http.StatusBadRequest, "orderedIds must be a non-empty array")
			return
		}

		var owned []string
		if err := db.Model(&models.Evidence{}).
			Where("case_id = ? AND id IN ?", caseID, req.OrderedIDs).
			Pluck("id", &owned).Error; err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		ownedSet := make(map[string]bool, len(owned))
		for _, id := range owned {
			ownedSet[id] = true
		}
		toUpdate := make([]string, 0, len(owned))
		for _, id := range req.OrderedIDs {
			if ownedSet[id] {
				toUpdate = append(toUpdate, id)
			}
		}

		err := db.Transaction(func(tx *gorm.DB) error {
			for i, id := range toUpdate {
				if err := tx.Model(&models.Evidence{}).Where("id = ?", id).
					Update("sort_order", i).Error; err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}

		logAudit(db, lg, userID, caseID, "evidence.reorder", "evidence", "", map[string]any{
			"orderedIds": toUpdate,
		})
		respondJSON(w, map[string]any{"ok": true})
	}
}
