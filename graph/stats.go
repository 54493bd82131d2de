package graph

import (
	"context"
	"sort"
	"time"
)

// HubNote is a note ranked by its link-edge degree (incoming + outgoing).
type HubNote struct {
	Path       string
	LinkDegree int
}

// GraphStats summarizes one build generation.
type GraphStats struct {
	NoteCount          int
	TagCount           int
	EdgeCount          int
	ClusterCount       int
	AverageConnections float64
	OrphanCount        int
	TopHubs            []*HubNote

	Generation uint64
	BuildID    string
	BuiltAt    time.Time
}

// GetHubNotes returns the top notes by total link-degree, descending; ties
// keep build order.
func (e *Engine) GetHubNotes(ctx context.Context, limit int) ([]*HubNote, error) {
	if err := e.BuildGraph(ctx, false); err != nil {
		return nil, err
	}
	s := e.snapshot.Load()
	if s == nil {
		return nil, nil
	}
	return hubNotes(s, limit), nil
}

func hubNotes(s *Snapshot, limit int) []*HubNote {
	degrees := map[string]int{}
	for _, key := range s.edgeOrder {
		if key.kind != EdgeKindLink {
			continue
		}
		degrees[key.source]++
		degrees[key.target]++
	}

	hubs := make([]*HubNote, 0, len(s.noteOrder))
	for _, id := range s.noteOrder {
		hubs = append(hubs, &HubNote{Path: id, LinkDegree: degrees[id]})
	}
	sort.SliceStable(hubs, func(i, j int) bool {
		return hubs[i].LinkDegree > hubs[j].LinkDegree
	})
	if limit > 0 && len(hubs) > limit {
		hubs = hubs[:limit]
	}
	return hubs
}

// GetGraphStats returns node/edge/cluster counts, the average number of
// connected notes per note, the orphan count and the top hubs.
func (e *Engine) GetGraphStats(ctx context.Context) (*GraphStats, error) {
	if err := e.BuildGraph(ctx, false); err != nil {
		return nil, err
	}
	s := e.snapshot.Load()
	if s == nil {
		return nil, nil
	}

	totalConnections := 0
	orphans := 0
	for _, id := range s.noteOrder {
		connections := len(s.ConnectedNotes(id))
		totalConnections += connections
		if connections == 0 {
			orphans++
		}
	}
	average := 0.0
	if len(s.noteOrder) > 0 {
		average = float64(totalConnections) / float64(len(s.noteOrder))
	}

	return &GraphStats{
		NoteCount:          len(s.notes),
		TagCount:           len(s.tags),
		EdgeCount:          s.EdgeCount(),
		ClusterCount:       len(s.clusters),
		AverageConnections: average,
		OrphanCount:        orphans,
		TopHubs:            hubNotes(s, 5),
		Generation:         s.Generation,
		BuildID:            s.BuildID,
		BuiltAt:            s.BuiltAt,
	}, nil
}

// GetClusters returns all clusters, largest first; equal sizes keep
// assignment order.
func (e *Engine) GetClusters(ctx context.Context) ([]*Cluster, error) {
	if err := e.BuildGraph(ctx, false); err != nil {
		return nil, err
	}
	s := e.snapshot.Load()
	if s == nil {
		return nil, nil
	}
	clusters := make([]*Cluster, len(s.clusters))
	copy(clusters, s.clusters)
	sort.SliceStable(clusters, func(i, j int) bool {
		return len(clusters[i].Members) > len(clusters[j].Members)
	})
	return clusters, nil
}
