package handlers_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"casefile/internal/models"
)

func TestCreateFactLinksOnlySameCaseEvidence(t *testing.T) {
	e := newEnv(t)
	cookie, _ := e.signUp("a@example.com")
	c := e.createCase(cookie, "case A")
	other := e.createCase(cookie, "case B")
	mine := e.createEvidence(cookie, c.ID, "text")
	foreign := e.createEvidence(cookie, other.ID, "text")

	rec := e.request(http.MethodPost, "/facts", map[string]any{
		"caseId":      c.ID,
		"title":       "cross-case attempt",
		"evidenceIds": []string{mine.ID, foreign.ID},
	}, cookie)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var fact models.Fact
	decode(t, rec, &fact)
	require.Len(t, fact.Evidence, 1, "evidence from another case is dropped")
	assert.Equal(t, mine.ID, fact.Evidence[0].ID)
}

func TestUpdateFactReplacesEvidenceLinks(t *testing.T) {
	e := newEnv(t)
	cookie, _ := e.signUp("a@example.com")
	c := e.createCase(cookie, "case")
	ev1 := e.createEvidence(cookie, c.ID, "text")
	ev2 := e.createEvidence(cookie, c.ID, "text")

	rec := e.request(http.MethodPost, "/facts", map[string]any{
		"caseId": c.ID, "title": "fact", "evidenceIds": []string{ev1.ID},
	}, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	var fact models.Fact
	decode(t, rec, &fact)

	rec = e.request(http.MethodPatch, "/facts/"+fact.ID, map[string]any{
		"evidenceIds": []string{ev2.ID},
	}, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &fact)
	require.Len(t, fact.Evidence, 1)
	assert.Equal(t, ev2.ID, fact.Evidence[0].ID)

	// Omitting evidenceIds leaves the links alone; an empty list clears them.
	rec = e.request(http.MethodPatch, "/facts/"+fact.ID, map[string]any{
		"title": "renamed",
	}, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &fact)
	assert.Len(t, fact.Evidence, 1)

	rec = e.request(http.MethodPatch, "/facts/"+fact.ID, map[string]any{
		"evidenceIds": []string{},
	}, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, tableCount(t, e, &models.FactEvidence{}))
}

func TestDeleteFactLeavesEvidence(t *testing.T) {
	e := newEnv(t)
	cookie, _ := e.signUp("a@example.com")
	c := e.createCase(cookie, "case")
	ev := e.createEvidence(cookie, c.ID, "text")
	rec := e.request(http.MethodPost, "/facts", map[string]any{
		"caseId": c.ID, "title": "fact", "evidenceIds": []string{ev.ID},
	}, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	var fact models.Fact
	decode(t, rec, &fact)

	rec = e.request(http.MethodDelete, "/facts/"+fact.ID, nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Zero(t, tableCount(t, e, &models.FactEvidence{}))
	var still models.Evidence
	assert.NoError(t, e.db.First(&still, "id = ?", ev.ID).Error,
		"deleting a fact never touches the evidence itself")
}

func TestCreateFactValidation(t *testing.T) {
	e := newEnv(t)
	cookie, _ := e.signUp("a@example.com")

	rec := e.request(http.MethodPost, "/facts", map[string]any{"title": " "}, cookie)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateTagDuplicateName(t *testing.T) {
	e := newEnv(t)
	cookie, _ := e.signUp("a@example.com")
	c := e.createCase(cookie, "case")

	rec := e.request(http.MethodPost, "/tags", map[string]any{
		"caseId": c.ID, "name": "threats",
	}, cookie)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = e.request(http.MethodPost, "/tags", map[string]any{
		"caseId": c.ID, "name": "threats",
	}, cookie)
	assert.Equal(t, http.StatusConflict, rec.Code, "tag names are unique per case")
}

func TestDeleteTagDetachesEvidence(t *testing.T) {
	e := newEnv(t)
	cookie, _ := e.signUp("a@example.com")
	c := e.createCase(cookie, "case")
	ev := e.createEvidence(cookie, c.ID, "text")

	rec := e.request(http.MethodPost, "/tags", map[string]any{
		"caseId": c.ID, "name": "money",
	}, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	var tag models.Tag
	decode(t, rec, &tag)
	rec = e.request(http.MethodPatch, "/evidence/"+ev.ID, map[string]any{
		"tagIds": []string{tag.ID},
	}, cookie)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = e.request(http.MethodDelete, "/tags/"+tag.ID, nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Zero(t, tableCount(t, e, &models.EvidenceTag{}))
	var still models.Evidence
	assert.NoError(t, e.db.First(&still, "id = ?", ev.ID).Error)
}
