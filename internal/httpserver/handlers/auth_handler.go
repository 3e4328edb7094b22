package handlers

import (
	"encoding/json"
	"net/http"
	"net/mail"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"casefile/internal/auth"
	"casefile/internal/models"
)

const minPasswordLen = 8

type signUpReq struct {
	Email    string  `json:"email"`
	Password string  `json:"password"`
	Name     *string `json:"name,omitempty"`
}

func SignUp(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req signUpReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		req.Email = strings.TrimSpace(strings.ToLower(req.Email))
		details := map[string]string{}
		if _, err := mail.ParseAddress(req.Email); err != nil {
			details["email"] = "invalid email"
		}
		if len(req.Password) < minPasswordLen {
			details["password"] = "password must be at least 8 characters"
		}
		if req.Name != nil && len(*req.Name) > 200 {
			details["name"] = "name must be at most 200 characters"
		}
		if len(details) > 0 {
			respondValidation(w, details)
			return
		}

		var count int64
		db.Model(&models.User{}).Where("email = ?", req.Email).Count(&count)
		if count > 0 {
			respondError(w, http.StatusConflict, "an account with this email already exists")
			return
		}

		hash, err := auth.HashPassword(req.Password)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "hash error")
			return
		}
		u := models.User{Email: req.Email, PasswordHash: hash, Name: req.Name}
		if err := db.Create(&u).Error; err != nil {
			respondError(w, http.StatusConflict, "an account with this email already exists")
			return
		}
		if _, err := auth.CreateSession(db, w, u.ID); err != nil {
			respondError(w, http.StatusInternalServerError, "session error")
			return
		}
		lg.Infow("user signed up", "user_id", u.ID)
		respondJSON(w, map[string]any{"ok": true, "userId": u.ID})
	}
}

type signInReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func SignIn(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req signInReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		req.Email = strings.TrimSpace(strings.ToLower(req.Email))
		if req.Email == "" || req.Password == "" {
			respondValidation(w, map[string]string{"credentials": "email and password required"})
			return
		}
		var u models.User
		if err := db.First(&u, "email = ?", req.Email).Error; err != nil {
			respondError(w, http.StatusUnauthorized, "incorrect email or password")
			return
		}
		if err := auth.CheckPassword(u.PasswordHash, req.Password); err != nil {
			respondError(w, http.StatusUnauthorized, "incorrect email or password")
			return
		}
		if _, err := auth.CreateSession(db, w, u.ID); err != nil {
			respondError(w, http.StatusInternalServerError, "session error")
			return
		}
		respondJSON(w, map[string]any{"ok": true, "userId": u.ID})
	}
}

func SignOut(db *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		auth.DestroySession(db, w, r)
		respondJSON(w, map[string]any{"ok": true})
	}
}

// SessionInfo reports the current user, or {"user": null}. Always 200 so the
// UI can probe without tripping error handling.
func SessionInfo(db *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var token string
		if c, err := r.Cookie(auth.SessionCookie); err == nil {
			token = c.Value
		}
		userID, err := auth.ResolveSession(db, token)
		if err != nil {
			respondJSON(w, map[string]any{"user": nil})
			return
		}
		var u models.User
		if err := db.First(&u, "id = ?", userID).Error; err != nil {
			respondJSON(w, map[string]any{"user": nil})
			return
		}
		respondJSON(w, map[string]any{"user": map[string]any{
			"id": u.ID, "email": u.Email, "name": u.Name,
		}})
	}
}
