package auth

import (
	"errors"
	"net/http"
	"os"
	"time"

	"gorm.io/gorm"

	"casefile/internal/models"
	"casefile/internal/util"
)

const (
	// SessionCookie is the cookie carrying the opaque session token.
	SessionCookie = "session_token"
	// SessionTTL is fixed at sign-in; it does not slide.
	SessionTTL = 30 * 24 * time.Hour

	sessionTokenBytes = 32
)

// ErrUnauthenticated means no valid session accompanied the request.
var ErrUnauthenticated = errors.New("unauthenticated")

// CreateSession stores a new session row and sets the session cookie.
func CreateSession(db *gorm.DB, w http.ResponseWriter, userID string) (*models.Session, error) {
	sess := models.Session{
		Token:     util.RandomToken(sessionTokenBytes),
		UserID:    userID,
		ExpiresAt: time.Now().Add(SessionTTL),
	}
	if err := db.Create(&sess).Error; err != nil {
		return nil, err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    sess.Token,
		Path:     "/",
		MaxAge:   int(SessionTTL / time.Second),
		HttpOnly: true,
		Secure:   os.Getenv("APP_ENV") == "production",
		SameSite: http.SameSiteLaxMode,
	})
	return &sess, nil
}

// ResolveSession maps a token to its owning user id. An expired row is
// deleted on the spot and treated as absent.
func ResolveSession(db *gorm.DB, token string) (string, error) {
	if token == "" {
		return "", ErrUnauthenticated
	}
	var sess models.Session
	if err := db.First(&sess, "token = ?", token).Error; err != nil {
		return "", ErrUnauthenticated
	}
	if time.Now().After(sess.ExpiresAt) {
		_ = db.Delete(&models.Session{}, "token = ?", sess.Token).Error
		return "", ErrUnauthenticated
	}
	return sess.UserID, nil
}

// DestroySession deletes the caller's session row, if any, and clears the
// cookie.
func DestroySession(db *gorm.DB, w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(SessionCookie); err == nil && c.Value != "" {
		_ = db.Delete(&models.Session{}, "token = ?", c.Value).Error
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
