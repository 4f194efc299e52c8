// Package citation finds [note_id:<uuid>] markers in generated answers and
// checks them against the citation list returned alongside the answer.
package citation

import (
	"regexp"
	"slices"

	"github.com/starford/brainboard/internal/models"
)

var markerRe = regexp.MustCompile(`\[note_id:([0-9a-fA-F-]+)\]`)

// Marker is one citation marker in an answer. Start and End are byte offsets
// of the whole marker.
type Marker struct {
	NoteID string
	Start  int
	End    int
}

// Markers returns the markers of answer in text order.
func Markers(answer string) []Marker {
	idx := markerRe.FindAllStringSubmatchIndex(answer, -1)
	out := make([]Marker, len(idx))
	for i, m := range idx {
		out[i] = Marker{NoteID: answer[m[2]:m[3]], Start: m[0], End: m[1]}
	}
	return out
}

// Segment is a run of plain text or a single marker.
type Segment struct {
	Text   string
	NoteID string
}

// IsCitation reports whether the segment is a marker.
func (s Segment) IsCitation() bool {
	return s.NoteID != ""
}

// Split cuts answer into alternating text and marker segments. Empty text
// runs are omitted; joining every Text gives back answer.
func Split(answer string) []Segment {
	var out []Segment
	pos := 0
	for _, m := range Markers(answer) {
		if m.Start > pos {
			out = append(out, Segment{Text: answer[pos:m.Start]})
		}
		out = append(out, Segment{Text: answer[m.Start:m.End], NoteID: m.NoteID})
		pos = m.End
	}
	if pos < len(answer) {
		out = append(out, Segment{Text: answer[pos:]})
	}
	return out
}

// Report describes how the markers of an answer relate to its citation list.
type Report struct {
	Markers   int
	Citations int
	// Unmatched lists marker note ids with no citation, in text order.
	Unmatched []string
	// Unreferenced lists citation note ids no marker points to, in list order.
	Unreferenced []string
	// InOrder is true when marker ids and citation ids form the same sequence.
	InOrder bool
}

// Consistent reports whether every marker has exactly its citation, in order.
func (r Report) Consistent() bool {
	return r.InOrder && r.Markers == r.Citations && len(r.Unmatched) == 0 && len(r.Unreferenced) == 0
}

// Check compares the markers in res.Answer with res.Citations.
func Check(res models.SearchResult) Report {
	markers := Markers(res.Answer)
	markerIDs := make([]string, len(markers))
	for i, m := range markers {
		markerIDs[i] = m.NoteID
	}
	citationIDs := make([]string, len(res.Citations))
	for i, c := range res.Citations {
		citationIDs[i] = c.NoteID
	}

	r := Report{
		Markers:   len(markers),
		Citations: len(res.Citations),
		InOrder:   slices.Equal(markerIDs, citationIDs),
	}
	for _, id := range markerIDs {
		if !slices.Contains(citationIDs, id) {
			r.Unmatched = append(r.Unmatched, id)
		}
	}
	for _, id := range citationIDs {
		if !slices.Contains(markerIDs, id) {
			r.Unreferenced = append(r.Unreferenced, id)
		}
	}
	return r
}

// Lookup returns the first citation for noteID.
func Lookup(res models.SearchResult, noteID string) (models.Citation, bool) {
	for _, c := range res.Citations {
		if c.NoteID == noteID {
			return c, true
		}
	}
	return models.Citation{}, false
}
