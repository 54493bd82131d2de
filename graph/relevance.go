package graph

import (
	"context"
	"fmt"
	"sort"
)

// Relevance score weights.
const (
	directLinkScore = 1.0
	backlinkScore   = 0.9
	sharedTagScore  = 0.6
	proximityScore  = 0.5
	coClusterScore  = 0.5
)

// RelatedOptions tunes FindRelated. Zero values fall back to the profile
// defaults; IncludeTagRelated defaults to true when nil.
type RelatedOptions struct {
	Limit             int
	IncludeTagRelated *bool
	MaxDistance       int
}

// RelatedNote is one FindRelated result. Reasons lists every signal that
// contributed to the score, accumulation order.
type RelatedNote struct {
	Path    string
	Score   float64
	Reasons []string
}

// FindRelated ranks notes related to noteID by combining direct links,
// backlinks, shared tags and bounded-hop graph proximity. Scores are
// additive across signals; an unknown noteID yields an empty result.
func (e *Engine) FindRelated(ctx context.Context, noteID string, opts *RelatedOptions) ([]*RelatedNote, error) {
	if err := e.BuildGraph(ctx, false); err != nil {
		return nil, err
	}
	s := e.snapshot.Load()
	if s == nil || s.NoteNode(noteID) == nil {
		return nil, nil
	}

	limit := e.profile.GraphRelatedLimit
	if limit <= 0 {
		limit = 10
	}
	maxDistance := e.profile.GraphMaxDistance
	if maxDistance <= 0 {
		maxDistance = 3
	}
	includeTags := true
	if opts != nil {
		if opts.Limit > 0 {
			limit = opts.Limit
		}
		if opts.MaxDistance > 0 {
			maxDistance = opts.MaxDistance
		}
		if opts.IncludeTagRelated != nil {
			includeTags = *opts.IncludeTagRelated
		}
	}

	results := map[string]*RelatedNote{}
	var order []string
	accumulate := func(path string, score float64, reason string) {
		if path == noteID || s.NoteNode(path) == nil {
			return
		}
		entry, ok := results[path]
		if !ok {
			entry = &RelatedNote{Path: path}
			results[path] = entry
			order = append(order, path)
		}
		entry.Score += score
		entry.Reasons = append(entry.Reasons, reason)
	}

	// Direct outgoing links.
	for _, key := range s.edgeOrder {
		if key.source == noteID && key.kind == EdgeKindLink {
			accumulate(key.target, directLinkScore, "direct link")
		}
	}

	// Backlinks from the vault's reverse-link index.
	backlinks, err := e.vault.GetBacklinks(ctx, noteID)
	if err == nil {
		for _, backlink := range backlinks {
			accumulate(backlink.Path, backlinkScore, "backlink")
		}
	}

	// Shared tags, one contribution per unique tag.
	if includeTags {
		for _, tag := range s.NoteNode(noteID).Tags {
			for _, neighbor := range s.Neighbors(TagNodeID(tag)) {
				accumulate(neighbor, sharedTagScore, fmt.Sprintf("shared tag #%s", tag))
			}
		}
	}

	// Bounded-hop proximity. A node is attributed to the hop where BFS
	// first discovers it, and a target already scored by a direct signal
	// is not re-scored here (keeps the direct-signal sums exact).
	distances := map[string]int{noteID: 0}
	frontier := []string{noteID}
	for hop := 1; hop <= maxDistance && len(frontier) > 0; hop++ {
		var next []string
		for _, current := range frontier {
			for _, neighbor := range s.adjacency[current] {
				if _, seen := distances[neighbor]; seen {
					continue
				}
				distances[neighbor] = hop
				next = append(next, neighbor)
				if s.NoteNode(neighbor) == nil {
					continue
				}
				if _, alreadyScored := results[neighbor]; alreadyScored {
					continue
				}
				accumulate(neighbor, proximityScore/float64(hop), fmt.Sprintf("%d hops away", hop))
			}
		}
		frontier = next
	}

	ranked := make([]*RelatedNote, 0, len(order))
	for _, path := range order {
		ranked = append(ranked, results[path])
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked, nil
}

// SuggestLinks proposes link targets for noteID: notes sharing a tag
// (1 point per shared tag) or co-members of a cluster containing the note
// (0.5 points), excluding notes already linked either direction. Ties keep
// first-encountered order.
func (e *Engine) SuggestLinks(ctx context.Context, noteID string, limit int) ([]string, error) {
	if err := e.BuildGraph(ctx, false); err != nil {
		return nil, err
	}
	s := e.snapshot.Load()
	if s == nil || s.NoteNode(noteID) == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = e.profile.GraphSuggestLimit
	}
	if limit <= 0 {
		limit = 5
	}

	excluded := map[string]bool{noteID: true}
	for _, key := range s.edgeOrder {
		if key.kind != EdgeKindLink {
			continue
		}
		if key.source == noteID {
			excluded[key.target] = true
		}
		if key.target == noteID {
			excluded[key.source] = true
		}
	}
	if backlinks, err := e.vault.GetBacklinks(ctx, noteID); err == nil {
		for _, backlink := range backlinks {
			excluded[backlink.Path] = true
		}
	}

	scores := map[string]float64{}
	var order []string
	accumulate := func(path string, score float64) {
		if excluded[path] || s.NoteNode(path) == nil {
			return
		}
		if _, ok := scores[path]; !ok {
			order = append(order, path)
		}
		scores[path] += score
	}

	for _, tag := range s.NoteNode(noteID).Tags {
		matches, err := e.vault.SearchByTag(ctx, tag, 0)
		if err != nil {
			continue
		}
		for _, match := range matches {
			accumulate(match.Path, 1)
		}
	}

	for _, cluster := range s.clusters {
		if !containsMember(cluster.Members, noteID) {
			continue
		}
		for _, member := range cluster.Members {
			accumulate(member, coClusterScore)
		}
	}

	sort.SliceStable(order, func(i, j int) bool {
		return scores[order[i]] > scores[order[j]]
	})
	if len(order) > limit {
		order = order[:limit]
	}
	return order, nil
}

func containsMember(members []string, id string) bool {
	for _, member := range members {
		if member == id {
			return true
		}
	}
	return false
}
