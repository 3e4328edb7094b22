package handlers_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportCaseMarkdown(t *testing.T) {
	e := newEnv(t)
	cookie, _ := e.signUp("a@example.com")
	c := e.createCase(cookie, "export me")
	ev := e.createEvidence(cookie, c.ID, "text")
	rec := e.request(http.MethodPatch, "/evidence/"+ev.ID, map[string]any{
		"notes": "the only clue",
	}, cookie)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = e.request(http.MethodGet, "/export/case/"+c.ID, nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/markdown; charset=utf-8", rec.Header().Get("Content-Type"))
	body := rec.Body.String()
	assert.Contains(t, body, "# export me")
	assert.Contains(t, body, "## Timeline")
	assert.Contains(t, body, "the only clue")
	assert.Contains(t, body, "## Facts")
}

func TestExportCaseViewerAllowed(t *testing.T) {
	e := newEnv(t)
	ownerCookie, _ := e.signUp("a@example.com")
	viewerCookie, _ := e.signUp("v@example.com")
	c := e.createCase(ownerCookie, "case")
	rec := e.request(http.MethodPost, "/cases/"+c.ID+"/members", map[string]any{
		"email": "v@example.com", "role": "viewer",
	}, ownerCookie)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = e.request(http.MethodGet, "/export/case/"+c.ID, nil, viewerCookie)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMyLogsScopedToActor(t *testing.T) {
	e := newEnv(t)
	aCookie, _ := e.signUp("a@example.com")
	bCookie, _ := e.signUp("b@example.com")
	e.createCase(aCookie, "a's case")

	rec := e.request(http.MethodGet, "/logs", nil, aCookie)
	require.Equal(t, http.StatusOK, rec.Code)
	var aLogs []map[string]any
	decode(t, rec, &aLogs)
	require.NotEmpty(t, aLogs)
	assert.Equal(t, "case.created", aLogs[0]["action"])

	rec = e.request(http.MethodGet, "/logs", nil, bCookie)
	require.Equal(t, http.StatusOK, rec.Code)
	var bLogs []map[string]any
	decode(t, rec, &bLogs)
	assert.Empty(t, bLogs, "audit entries belong to the actor only")
}
