// Package models defines the entities exchanged with the brainboard backend.
//
// Entities are snapshots of backend state produced by the schema layer. Optional
// fields are pointers; nil means the backend did not send the field (or sent null).
package models

import "strings"

// UntitledNote is shown when a note has neither a title nor a non-empty first line.
const UntitledNote = "Untitled Note"

// Note is a user-authored or transcribed text record.
type Note struct {
	ID        string  `json:"id" yaml:"id"`
	Title     *string `json:"title,omitempty" yaml:"title,omitempty"`
	Body      string  `json:"body" yaml:"body"`
	CreatedAt string  `json:"created_at" yaml:"created_at"`
	UpdatedAt string  `json:"updated_at" yaml:"updated_at"`
}

// DisplayTitle returns the title, or the first line of the body when the title is
// absent or empty.
func (n Note) DisplayTitle() string {
	if n.Title != nil && *n.Title != "" {
		return *n.Title
	}
	first, _, _ := strings.Cut(n.Body, "\n")
	if first = strings.TrimSpace(first); first != "" {
		return first
	}
	return UntitledNote
}

// NoteDetail is a note together with its tasks and semantic links.
type NoteDetail struct {
	Note         `yaml:",inline"`
	Tasks        []Task `json:"tasks" yaml:"tasks"`
	RelatedLinks []Link `json:"related_links" yaml:"related_links"`
}

// Link is a backend-computed similarity relation between two notes.
type Link struct {
	SourceNote string  `json:"source_note" yaml:"source_note"`
	TargetNote string  `json:"target_note" yaml:"target_note"`
	Similarity float64 `json:"similarity" yaml:"similarity"`
}

// EmbedResult is returned after a note has been indexed.
type EmbedResult struct {
	ChunksIndexed int    `json:"chunks_indexed" yaml:"chunks_indexed"`
	Links         []Link `json:"links" yaml:"links"`
}

// Health is the backend's self-reported status.
type Health struct {
	Status   string            `json:"status" yaml:"status"`
	Services map[string]string `json:"services,omitempty" yaml:"services,omitempty"`
}
