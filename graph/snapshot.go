// Package graph builds an in-memory knowledge graph over vault notes and
// tags and serves relevance, similarity and cluster queries on top of it.
package graph

import (
	"time"
)

// NodeKind discriminates the node union.
type NodeKind string

const (
	NodeKindNote NodeKind = "note"
	NodeKindTag  NodeKind = "tag"
)

// EdgeKind classifies edges. Folder and semantic kinds are reserved for
// future passes and are never produced today.
type EdgeKind string

const (
	EdgeKindLink     EdgeKind = "link"
	EdgeKindTag      EdgeKind = "tag"
	EdgeKindFolder   EdgeKind = "folder"
	EdgeKindSemantic EdgeKind = "semantic"
)

// Node is the common view over note and tag nodes.
type Node interface {
	NodeID() string
	Kind() NodeKind
	DisplayTitle() string
}

// NoteNode represents one vault note. Its ID is the note path.
type NoteNode struct {
	ID          string
	Title       string
	Tags        []string // normalized, first-seen order
	Frontmatter map[string]any
	CreatedAt   time.Time
	ModifiedAt  time.Time
	WordCount   int
}

func (n *NoteNode) NodeID() string       { return n.ID }
func (n *NoteNode) Kind() NodeKind       { return NodeKindNote }
func (n *NoteNode) DisplayTitle() string { return n.Title }

// TagNode represents one distinct tag. Its ID is "tag:"+name.
type TagNode struct {
	ID   string
	Name string
}

func (n *TagNode) NodeID() string       { return n.ID }
func (n *TagNode) Kind() NodeKind       { return NodeKindTag }
func (n *TagNode) DisplayTitle() string { return "#" + n.Name }

// TagNodeID returns the node ID for a tag name.
func TagNodeID(tag string) string {
	return "tag:" + tag
}

// Edge connects two nodes. Edges are stored directionally but traversed
// undirected. The identity of an edge is (Source, Target, Kind); writing
// the same identity twice overwrites weight and label.
type Edge struct {
	Source string
	Target string
	Kind   EdgeKind
	Weight float64
	// Label carries edge metadata such as a link's display text.
	Label string
}

type edgeKey struct {
	source string
	target string
	kind   EdgeKind
}

// Cluster is a connectivity cluster of note nodes.
type Cluster struct {
	// ID is the sequence number assigned during one build pass.
	ID int
	// Name is "#"+most frequent shared tag, or "Mixed".
	Name string
	// Members are note IDs in BFS discovery order.
	Members []string
	// Centroid is the member with the most intra-cluster connections.
	Centroid string
	// Cohesion is the intra-cluster connection density in [0,1].
	Cohesion float64
}

// Snapshot is one immutable build generation of the graph. It is fully
// constructed by the builder and then atomically published; readers never
// observe a partially built graph.
type Snapshot struct {
	Generation uint64
	BuildID    string
	BuiltAt    time.Time

	noteOrder []string
	notes     map[string]*NoteNode
	tagOrder  []string
	tags      map[string]*TagNode

	edgeOrder []edgeKey
	edges     map[edgeKey]*Edge

	// adjacency holds undirected neighbor IDs per node, insertion order,
	// deduplicated. Tag nodes appear as neighbors of their notes and vice
	// versa.
	adjacency map[string][]string
	adjSeen   map[string]map[string]bool

	clusters []*Cluster
}

func newSnapshot(generation uint64, buildID string, builtAt time.Time) *Snapshot {
	return &Snapshot{
		Generation: generation,
		BuildID:    buildID,
		BuiltAt:    builtAt,
		notes:      map[string]*NoteNode{},
		tags:       map[string]*TagNode{},
		edges:      map[edgeKey]*Edge{},
		adjacency:  map[string][]string{},
		adjSeen:    map[string]map[string]bool{},
	}
}

func (s *Snapshot) addNoteNode(node *NoteNode) {
	if _, exists := s.notes[node.ID]; !exists {
		s.noteOrder = append(s.noteOrder, node.ID)
	}
	s.notes[node.ID] = node
}

func (s *Snapshot) addTagNode(node *TagNode) {
	if _, exists := s.tags[node.ID]; !exists {
		s.tagOrder = append(s.tagOrder, node.ID)
	}
	s.tags[node.ID] = node
}

// addEdge inserts or overwrites the edge identified by (source, target, kind).
// Both endpoints must already be nodes of this snapshot.
func (s *Snapshot) addEdge(edge *Edge) bool {
	if s.Node(edge.Source) == nil || s.Node(edge.Target) == nil {
		return false
	}
	key := edgeKey{source: edge.Source, target: edge.Target, kind: edge.Kind}
	if _, exists := s.edges[key]; !exists {
		s.edgeOrder = append(s.edgeOrder, key)
		s.link(edge.Source, edge.Target)
		s.link(edge.Target, edge.Source)
	}
	s.edges[key] = edge
	return true
}

func (s *Snapshot) link(from, to string) {
	seen := s.adjSeen[from]
	if seen == nil {
		seen = map[string]bool{}
		s.adjSeen[from] = seen
	}
	if !seen[to] {
		seen[to] = true
		s.adjacency[from] = append(s.adjacency[from], to)
	}
}

// Node returns the node with the given ID, or nil.
func (s *Snapshot) Node(id string) Node {
	if note, ok := s.notes[id]; ok {
		return note
	}
	if tag, ok := s.tags[id]; ok {
		return tag
	}
	return nil
}

// NoteNode returns the note node at path, or nil.
func (s *Snapshot) NoteNode(id string) *NoteNode {
	return s.notes[id]
}

// NoteNodes returns all note nodes in build order.
func (s *Snapshot) NoteNodes() []*NoteNode {
	nodes := make([]*NoteNode, 0, len(s.noteOrder))
	for _, id := range s.noteOrder {
		nodes = append(nodes, s.notes[id])
	}
	return nodes
}

// TagNodes returns all tag nodes in first-seen order.
func (s *Snapshot) TagNodes() []*TagNode {
	nodes := make([]*TagNode, 0, len(s.tagOrder))
	for _, id := range s.tagOrder {
		nodes = append(nodes, s.tags[id])
	}
	return nodes
}

// Edges returns all edges in insertion order.
func (s *Snapshot) Edges() []*Edge {
	edges := make([]*Edge, 0, len(s.edgeOrder))
	for _, key := range s.edgeOrder {
		edges = append(edges, s.edges[key])
	}
	return edges
}

// Neighbors returns the undirected neighbor IDs of a node, insertion order.
func (s *Snapshot) Neighbors(id string) []string {
	return s.adjacency[id]
}

// ConnectedNotes returns the note nodes connected to id, either through a
// direct edge or mediated by a shared tag node, in discovery order. The
// note itself is excluded.
func (s *Snapshot) ConnectedNotes(id string) []string {
	seen := map[string]bool{id: true}
	var connected []string
	for _, neighbor := range s.adjacency[id] {
		if _, isNote := s.notes[neighbor]; isNote {
			if !seen[neighbor] {
				seen[neighbor] = true
				connected = append(connected, neighbor)
			}
			continue
		}
		// Tag node: its note neighbors are one shared-tag step away.
		for _, mediated := range s.adjacency[neighbor] {
			if _, isNote := s.notes[mediated]; isNote && !seen[mediated] {
				seen[mediated] = true
				connected = append(connected, mediated)
			}
		}
	}
	return connected
}

// Clusters returns the clusters of this build generation.
func (s *Snapshot) Clusters() []*Cluster {
	return s.clusters
}

func (s *Snapshot) NodeCount() int {
	return len(s.notes) + len(s.tags)
}

func (s *Snapshot) EdgeCount() int {
	return len(s.edgeOrder)
}

// ShouldRebuild is the rebuild policy: rebuild when forced, when no build
// exists yet, or when the last build is at least threshold old.
func ShouldRebuild(now, builtAt time.Time, threshold time.Duration, force bool) bool {
	if force {
		return true
	}
	if builtAt.IsZero() {
		return true
	}
	return now.Sub(builtAt) >= threshold
}
