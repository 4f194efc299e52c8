package models

import (
	"testing"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/stretchr/testify/assert"
)

func TestIsCanonicalID(t *testing.T) {
	assert.True(t, IsCanonicalID("3f2b8c1e-9a4d-4e2b-8f6a-1c2d3e4f5a6b"))
	assert.True(t, IsCanonicalID("3F2B8C1E-9A4D-4E2B-8F6A-1C2D3E4F5A6B"))
	for _, s := range []string{
		"",
		"3f2b8c1e9a4d4e2b8f6a1c2d3e4f5a6b",
		"{3f2b8c1e-9a4d-4e2b-8f6a-1c2d3e4f5a6b}",
		"urn:uuid:3f2b8c1e-9a4d-4e2b-8f6a-1c2d3e4f5a6b",
		"3f2b8c1e-9a4d-4e2b-8f6a-1c2d3e4f5a6z",
	} {
		assert.False(t, IsCanonicalID(s), s)
	}
}

func TestCanonicalIDRule(t *testing.T) {
	id := "3f2b8c1e-9a4d-4e2b-8f6a-1c2d3e4f5a6b"
	bad := "42"
	assert.NoError(t, validation.Validate(id, CanonicalID))
	assert.NoError(t, validation.Validate("", CanonicalID))
	assert.NoError(t, validation.Validate((*string)(nil), CanonicalID))
	assert.NoError(t, validation.Validate(&id, CanonicalID))
	assert.Error(t, validation.Validate(&bad, CanonicalID))
	assert.Error(t, validation.Validate(bad, CanonicalID))
	assert.Error(t, validation.Validate(42, CanonicalID))
}

func TestDisplayTitle(t *testing.T) {
	title, empty := "Plan", ""
	assert.Equal(t, "Plan", Note{Title: &title, Body: "x"}.DisplayTitle())
	assert.Equal(t, "First line", Note{Title: &empty, Body: "  First line \nsecond"}.DisplayTitle())
	assert.Equal(t, "First line", Note{Body: "First line"}.DisplayTitle())
	assert.Equal(t, UntitledNote, Note{Body: "\nsecond"}.DisplayTitle())
}

func TestRequestValidation(t *testing.T) {
	zero := 0
	assert.Error(t, (&SearchRequest{Query: "q", K: &zero}).Validate())
	assert.NoError(t, (&SearchRequest{Query: "q"}).Validate())
	assert.Error(t, (&SearchRequest{}).Validate())
	assert.Error(t, (&ListNotesParams{Skip: -1}).Validate())
	assert.Error(t, (&ListTasksParams{Offset: -1}).Validate())
	assert.Error(t, (&EmbedNoteRequest{NoteID: "x", Text: "t"}).Validate())
	assert.NoError(t, (&CreateNoteRequest{Body: "b"}).Validate())
}

func TestExtractTasksRequest_SourceNoteID(t *testing.T) {
	empty, bad, good := "", "abc", "11111111-1111-1111-1111-111111111111"
	assert.NoError(t, (&ExtractTasksRequest{Text: "t"}).Validate())
	assert.NoError(t, (&ExtractTasksRequest{Text: "t", SourceNoteID: &good}).Validate())
	assert.ErrorContains(t, (&ExtractTasksRequest{Text: "t", SourceNoteID: &empty}).Validate(), "source_note_id")
	assert.ErrorContains(t, (&ExtractTasksRequest{Text: "t", SourceNoteID: &bad}).Validate(), "canonical UUID")
}
