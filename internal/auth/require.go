package auth

import (
	"errors"

	"gorm.io/gorm"

	"casefile/internal/models"
)

// ErrForbidden covers both "no membership" and "role too low". The gate does
// not reveal whether the case exists to callers without a membership.
var ErrForbidden = errors.New("forbidden")

// RequireCaseRole looks up the caller's membership on a case and enforces a
// minimum role. On success it returns the membership and the case itself.
func RequireCaseRole(db *gorm.DB, caseID, userID string, min Role) (*models.CaseMember, *models.Case, error) {
	if userID == "" {
		return nil, nil, ErrUnauthenticated
	}
	var member models.CaseMember
	if err := db.First(&member, "case_id = ? AND user_id = ?", caseID, userID).Error; err != nil {
		return nil, nil, ErrForbidden
	}
	if !Role(member.Role).AtLeast(min) {
		return nil, nil, ErrForbidden
	}
	var c models.Case
	if err := db.First(&c, "id = ?", caseID).Error; err != nil {
		// Membership without a case should not happen; treat as no access.
		return nil, nil, ErrForbidden
	}
	return &member, &c, nil
}
