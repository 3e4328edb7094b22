package handlers_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"casefile/internal/models"
)

// The promotion scenario: a viewer cannot edit the case, an editor can.
func TestViewerPromotionScenario(t *testing.T) {
	e := newEnv(t)
	ownerCookie, _ := e.signUp("a@example.com")
	bCookie, _ := e.signUp("b@example.com")
	c := e.createCase(ownerCookie, "case C")

	rec := e.request(http.MethodPost, "/cases/"+c.ID+"/members", map[string]any{
		"email": "b@example.com", "role": "viewer",
	}, ownerCookie)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var member models.CaseMember
	decode(t, rec, &member)

	rec = e.request(http.MethodPatch, "/cases/"+c.ID, map[string]any{
		"title": "renamed by B",
	}, bCookie)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = e.request(http.MethodPatch, "/cases/"+c.ID+"/members/"+member.ID, map[string]any{
		"role": "editor",
	}, ownerCookie)
	require.Equal(t, http.StatusOK, rec.Code)

	// Editor still cannot PATCH the case (owner-only), but can edit evidence.
	rec = e.request(http.MethodPatch, "/cases/"+c.ID, map[string]any{
		"title": "renamed by B",
	}, bCookie)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = e.request(http.MethodPost, "/evidence", map[string]any{
		"caseId": c.ID, "type": "text",
	}, bCookie)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestInviteUnknownEmail(t *testing.T) {
	e := newEnv(t)
	ownerCookie, _ := e.signUp("a@example.com")
	c := e.createCase(ownerCookie, "case")

	rec := e.request(http.MethodPost, "/cases/"+c.ID+"/members", map[string]any{
		"email": "nobody@example.com", "role": "viewer",
	}, ownerCookie)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestInviteDuplicateMember(t *testing.T) {
	e := newEnv(t)
	ownerCookie, _ := e.signUp("a@example.com")
	e.signUp("b@example.com")
	c := e.createCase(ownerCookie, "case")

	rec := e.request(http.MethodPost, "/cases/"+c.ID+"/members", map[string]any{
		"email": "b@example.com",
	}, ownerCookie)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = e.request(http.MethodPost, "/cases/"+c.ID+"/members", map[string]any{
		"email": "b@example.com",
	}, ownerCookie)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestInviteSendsEmailBestEffort(t *testing.T) {
	e := newEnv(t)
	ownerCookie, _ := e.signUp("a@example.com")
	e.signUp("b@example.com")
	c := e.createCase(ownerCookie, "case")

	e.mail.fail = true
	rec := e.request(http.MethodPost, "/cases/"+c.ID+"/members", map[string]any{
		"email": "b@example.com", "role": "editor",
	}, ownerCookie)
	require.Equal(t, http.StatusOK, rec.Code, "mailer failure must not fail the invite")
	require.Len(t, e.mail.sent, 1)
	assert.Equal(t, "b@example.com", e.mail.sent[0])
	assert.Equal(t, "editor", e.mail.roles[0])
}

func TestNonMemberSeesForbiddenNotNotFound(t *testing.T) {
	e := newEnv(t)
	ownerCookie, _ := e.signUp("a@example.com")
	strangerCookie, _ := e.signUp("stranger@example.com")
	c := e.createCase(ownerCookie, "secret case")

	rec := e.request(http.MethodGet, "/cases/"+c.ID, nil, strangerCookie)
	assert.Equal(t, http.StatusForbidden, rec.Code,
		"existence of a case must not leak to non-members")
}
