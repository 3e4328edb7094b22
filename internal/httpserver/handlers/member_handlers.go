package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"casefile/internal/auth"
	"casefile/internal/mailer"
	"casefile/internal/models"
)

type memberWithUser struct {
	models.CaseMember
	Email        string `json:"email,omitempty"`
	DisplayLabel string `json:"displayLabel"`
}

// ListMembers returns memberships in join order, decorated with the member's
// email and a display label.
func ListMembers(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caseID := chi.URLParam(r, "id")
		if _, _, err := auth.RequireCaseRole(db, caseID, auth.UserID(r.Context()), auth.RoleViewer); err != nil {
			respondAuthError(w, err)
			return
		}
		var members []models.CaseMember
		_ = db.Where("case_id = ?", caseID).Order("created_at asc").Find(&members).Error

		userIDs := make([]string, 0, len(members))
		for _, m := range members {
			userIDs = append(userIDs, m.UserID)
		}
		userByID := map[string]models.User{}
		if len(userIDs) > 0 {
			var users []models.User
			_ = db.Where("id IN ?", userIDs).Find(&users).Error
			for _, u := range users {
				userByID[u.ID] = u
			}
		}

		out := make([]memberWithUser, 0, len(members))
		for _, m := range members {
			mw := memberWithUser{CaseMember: m, DisplayLabel: m.UserID}
			if u, ok := userByID[m.UserID]; ok {
				mw.Email = u.Email
				mw.DisplayLabel = u.Email
				if u.Name != nil && strings.TrimSpace(*u.Name) != "" {
					mw.DisplayLabel = strings.TrimSpace(*u.Name)
				}
			}
			out = append(out, mw)
		}
		respondJSON(w, out)
	}
}

type inviteMemberReq struct {
	Email string `json:"email"`
	Role  string `json:"role,omitempty"`
}

// InviteMember adds an existing user to the case by email. The notification
// email is best effort.
func InviteMember(db *gorm.DB, ml mailer.Mailer, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caseID := chi.URLParam(r, "id")
		userID := auth.UserID(r.Context())
		_, c, err := auth.RequireCaseRole(db, caseID, userID, auth.RoleOwner)
		if err != nil {
			respondAuthError(w, err)
			return
		}
		var req inviteMemberReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		req.Email = strings.TrimSpace(strings.ToLower(req.Email))
		if req.Email == "" {
			respondValidation(w, map[string]string{"email": "email is required"})
			return
		}
		role := auth.RoleViewer
		if req.Role != "" {
			role = auth.Role(req.Role)
			if !role.Valid() {
				respondValidation(w, map[string]string{"role": "role must be owner, editor or viewer"})
				return
			}
		}

		var invited models.User
		if err := db.First(&invited, "email = ?", req.Email).Error; err != nil {
			respondError(w, http.StatusNotFound, "no user found with this email; ask them to sign up first")
			return
		}
		var count int64
		db.Model(&models.CaseMember{}).
			Where("case_id = ? AND user_id = ?", caseID, invited.ID).Count(&count)
		if count > 0 {
			respondError(w, http.StatusConflict, "user is already a member of this case")
			return
		}

		member := models.CaseMember{CaseID: caseID, UserID: invited.ID, Role: string(role)}
		if err := db.Create(&member).Error; err != nil {
			respondError(w, http.StatusConflict, "user is already a member of this case")
			return
		}
		logAudit(db, lg, userID, caseID, "member.invited", "member", member.ID, map[string]any{
			"email": req.Email, "role": string(role), "invitedUserId": invited.ID,
		})
		if err := ml.SendInvite(r.Context(), invited.Email, c.Title, string(role)); err != nil {
			lg.Warnw("invite email failed", "to", invited.Email, "error", err)
		}
		respondJSON(w, member)
	}
}

type updateMemberReq struct {
	Role string `json:"role"`
}

func UpdateMemberRole(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caseID := chi.URLParam(r, "id")
		memberID := chi.URLParam(r, "memberId")
		userID := auth.UserID(r.Context())
		if _, _, err := auth.RequireCaseRole(db, caseID, userID, auth.RoleOwner); err != nil {
			respondAuthError(w, err)
			return
		}
		var member models.CaseMember
		if err := db.First(&member, "id = ? AND case_id = ?", memberID, caseID).Error; err != nil {
			respondError(w, http.StatusNotFound, "member not found")
			return
		}
		var req updateMemberReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		role := auth.Role(req.Role)
		if !role.Valid() {
			respondValidation(w, map[string]string{"role": "role must be owner, editor or viewer"})
			return
		}
		member.Role = string(role)
		if err := db.Save(&member).Error; err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		logAudit(db, lg, userID, caseID, "member.role_changed", "member", memberID, map[string]any{
			"role": string(role),
		})
		respondJSON(w, member)
	}
}

func RemoveMember(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caseID := chi.URLParam(r, "id")
		memberID := chi.URLParam(r, "memberId")
		userID := auth.UserID(r.Context())
		if _, _, err := auth.RequireCaseRole(db, caseID, userID, auth.RoleOwner); err != nil {
			respondAuthError(w, err)
			return
		}
		var member models.CaseMember
		if err := db.First(&member, "id = ? AND case_id = ?", memberID, caseID).Error; err != nil {
			respondError(w, http.StatusNotFound, "member not found")
			return
		}
		if err := db.Delete(&member).Error; err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		logAudit(db, lg, userID, caseID, "member.removed", "member", memberID, nil)
		respondJSON(w, map[string]any{"ok": true})
	}
}
