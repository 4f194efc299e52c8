// Package graph shapes notes and their semantic links into a node/edge graph
// for a layout engine.
package graph

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/starford/brainboard/internal/models"
)

// Node is one note.
type Node struct {
	ID    string `json:"id" yaml:"id"`
	Label string `json:"label" yaml:"label"`
}

// Edge is an undirected similarity relation. ID is "<source>-<target>".
type Edge struct {
	ID     string  `json:"id" yaml:"id"`
	Source string  `json:"source" yaml:"source"`
	Target string  `json:"target" yaml:"target"`
	Weight float64 `json:"weight" yaml:"weight"`
}

// Graph is the input of a layout engine.
type Graph struct {
	Nodes []Node `json:"nodes" yaml:"nodes"`
	Edges []Edge `json:"edges" yaml:"edges"`
}

// Label returns the node label of a note: its display title, or a short id
// when it has neither title nor body text.
func Label(n models.Note) string {
	if title := n.DisplayTitle(); title != models.UntitledNote {
		return title
	}
	return ShortLabel(n.ID)
}

// ShortLabel labels a note known only by id.
func ShortLabel(id string) string {
	if len(id) > 6 {
		id = id[:6]
	}
	return fmt.Sprintf("Note %s...", id)
}

// Build creates a graph from notes in order. Links between the same pair of
// notes, in either direction, become one edge carrying the highest similarity;
// self links are dropped. Link endpoints missing from notes become nodes
// labelled by id. Edges are sorted by descending weight, then id.
func Build(notes []models.Note, links []models.Link) Graph {
	g := Graph{Nodes: make([]Node, 0, len(notes)), Edges: []Edge{}}
	seen := make(map[string]bool, len(notes))
	addNode := func(id, label string) {
		if seen[id] {
			return
		}
		seen[id] = true
		g.Nodes = append(g.Nodes, Node{ID: id, Label: label})
	}
	for _, n := range notes {
		addNode(n.ID, Label(n))
	}

	edges := make(map[[2]string]int)
	for _, l := range links {
		if l.SourceNote == l.TargetNote {
			continue
		}
		pair := [2]string{l.SourceNote, l.TargetNote}
		if pair[0] > pair[1] {
			pair[0], pair[1] = pair[1], pair[0]
		}
		if i, ok := edges[pair]; ok {
			if l.Similarity > g.Edges[i].Weight {
				g.Edges[i].Weight = l.Similarity
			}
			continue
		}
		addNode(l.SourceNote, ShortLabel(l.SourceNote))
		addNode(l.TargetNote, ShortLabel(l.TargetNote))
		edges[pair] = len(g.Edges)
		g.Edges = append(g.Edges, Edge{
			ID:     pair[0] + "-" + pair[1],
			Source: pair[0],
			Target: pair[1],
			Weight: l.Similarity,
		})
	}

	sort.SliceStable(g.Edges, func(i, j int) bool {
		if g.Edges[i].Weight != g.Edges[j].Weight {
			return g.Edges[i].Weight > g.Edges[j].Weight
		}
		return g.Edges[i].ID < g.Edges[j].ID
	})
	return g
}

// Filter keeps edges with weight >= minWeight. Nodes are kept.
func (g Graph) Filter(minWeight float64) Graph {
	out := Graph{Nodes: g.Nodes, Edges: []Edge{}}
	for _, e := range g.Edges {
		if e.Weight >= minWeight {
			out.Edges = append(out.Edges, e)
		}
	}
	return out
}

// NoteSource is the part of the backend API the graph loader needs.
type NoteSource interface {
	ListNotes(ctx context.Context, p models.ListNotesParams) ([]models.Note, error)
	GetNote(ctx context.Context, id string) (models.NoteDetail, error)
}

// Load lists a page of notes, fetches each note's detail with at most
// concurrency requests in flight and builds the graph from their links.
func Load(ctx context.Context, src NoteSource, p models.ListNotesParams, concurrency int) (Graph, error) {
	notes, err := src.ListNotes(ctx, p)
	if err != nil {
		return Graph{}, fmt.Errorf("graph: list notes: %w", err)
	}

	details := make([][]models.Link, len(notes))
	g, gCtx := errgroup.WithContext(ctx)
	if concurrency > 0 {
		g.SetLimit(concurrency)
	}
	for i, n := range notes {
		g.Go(func() error {
			d, err := src.GetNote(gCtx, n.ID)
			if err != nil {
				return fmt.Errorf("graph: get note %s: %w", n.ID, err)
			}
			details[i] = d.RelatedLinks
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Graph{}, err
	}

	var links []models.Link
	for _, l := range details {
		links = append(links, l...)
	}
	return Build(notes, links), nil
}
