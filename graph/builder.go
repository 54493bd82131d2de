package graph

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hrygo/vaultsense/vault"
)

type buildOptions struct {
	clusterCap int
}

// buildSnapshot constructs a complete graph generation from the vault. A
// note that fails to read is skipped; a fully unavailable vault yields an
// empty snapshot rather than an error.
func buildSnapshot(ctx context.Context, v *vault.Vault, opts buildOptions, generation uint64, logger *slog.Logger) *Snapshot {
	snapshot := newSnapshot(generation, uuid.NewString(), time.Now())

	notes, err := v.ListNotes(ctx)
	if err != nil {
		logger.WarnContext(ctx, "vault unavailable, publishing empty graph",
			"build_id", snapshot.BuildID,
			"error", err,
		)
		return snapshot
	}

	// Note nodes first so every edge can reference its endpoints.
	for _, note := range notes {
		if note == nil || note.Path == "" {
			continue
		}
		snapshot.addNoteNode(&NoteNode{
			ID:          note.Path,
			Title:       note.Title,
			Tags:        normalizeTags(note),
			Frontmatter: note.Frontmatter,
			CreatedAt:   time.Unix(note.CreatedTs, 0),
			ModifiedAt:  time.Unix(note.UpdatedTs, 0),
			WordCount:   len(strings.Fields(note.Content)),
		})
	}

	// Link edges from resolved outgoing links. Unresolved targets are
	// skipped so no dangling edge is ever created.
	for _, id := range snapshot.noteOrder {
		links, err := v.GetOutgoingLinks(ctx, id)
		if err != nil {
			logger.WarnContext(ctx, "skipping links for note",
				"build_id", snapshot.BuildID,
				"note", id,
				"error", err,
			)
			continue
		}
		for _, link := range links {
			target, err := v.ResolveLink(ctx, link.Link, id)
			if err != nil || target == nil {
				continue
			}
			snapshot.addEdge(&Edge{
				Source: id,
				Target: target.Path,
				Kind:   EdgeKindLink,
				Weight: 1.0,
				Label:  link.DisplayText,
			})
		}
	}

	// Tag nodes and tag edges.
	for _, id := range snapshot.noteOrder {
		for _, tag := range snapshot.notes[id].Tags {
			tagID := TagNodeID(tag)
			if snapshot.tags[tagID] == nil {
				snapshot.addTagNode(&TagNode{ID: tagID, Name: tag})
			}
			snapshot.addEdge(&Edge{
				Source: id,
				Target: tagID,
				Kind:   EdgeKindTag,
				Weight: 0.5,
			})
		}
	}

	clusterSnapshot(snapshot, opts.clusterCap)

	logger.DebugContext(ctx, "graph built",
		"build_id", snapshot.BuildID,
		"generation", snapshot.Generation,
		"notes", len(snapshot.notes),
		"tags", len(snapshot.tags),
		"edges", snapshot.EdgeCount(),
		"clusters", len(snapshot.clusters),
	)
	return snapshot
}

// normalizeTags unions a note's frontmatter tags and inline tags: leading
// '#' stripped, lower-cased, deduplicated, first-seen order. Malformed
// frontmatter values are stringified rather than rejected.
func normalizeTags(note *vault.Note) []string {
	seen := map[string]bool{}
	var tags []string
	appendTag := func(raw string) {
		tag := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(raw), "#"))
		if tag != "" && !seen[tag] {
			seen[tag] = true
			tags = append(tags, tag)
		}
	}

	if note.Frontmatter != nil {
		for _, raw := range frontmatterStrings(note.Frontmatter["tags"]) {
			appendTag(raw)
		}
	}
	for _, raw := range note.InlineTags {
		appendTag(raw)
	}
	return tags
}

func frontmatterStrings(value any) []string {
	switch v := value.(type) {
	case nil:
		return nil
	case string:
		return []string{v}
	case []any:
		var out []string
		for _, entry := range v {
			out = append(out, frontmatterStrings(entry)...)
		}
		return out
	case []string:
		return v
	default:
		return []string{fmt.Sprintf("%v", v)}
	}
}
