package models

// Citation points from a generated answer back to a supporting note snippet.
type Citation struct {
	NoteID  string `json:"note_id" yaml:"note_id"`
	Snippet string `json:"snippet" yaml:"snippet"`
}

// SearchResult is an answer whose text embeds [note_id:<uuid>] markers, plus the
// citations those markers refer to.
type SearchResult struct {
	Answer    string     `json:"answer" yaml:"answer"`
	Citations []Citation `json:"citations" yaml:"citations"`
}

// SummaryResult is the backend's summary of a piece of text.
type SummaryResult struct {
	Summary     string   `json:"summary" yaml:"summary"`
	Highlights  []string `json:"highlights" yaml:"highlights"`
	Decisions   []string `json:"decisions" yaml:"decisions"`
	ActionItems []string `json:"action_items" yaml:"action_items"`
}
