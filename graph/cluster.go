package graph

// clusterSnapshot partitions note nodes into connectivity clusters. Note
// nodes are visited in build order; tag nodes mediate reachability but
// never become members. Singletons are not clustered.
func clusterSnapshot(s *Snapshot, maxMembers int) {
	if maxMembers <= 0 {
		maxMembers = 50
	}
	visited := map[string]bool{}
	nextID := 0
	for _, seed := range s.noteOrder {
		if visited[seed] {
			continue
		}
		members := discoverCluster(s, seed, visited, maxMembers)
		if len(members) < 2 {
			continue
		}
		s.clusters = append(s.clusters, makeCluster(s, nextID, members))
		nextID++
	}
}

// discoverCluster runs a bounded BFS from seed over the undirected
// adjacency, ignoring edge direction and kind. Only note nodes are
// collected; tag nodes act as hops. The global visited set is updated with
// every collected member, so subsequent seeds skip them.
func discoverCluster(s *Snapshot, seed string, visited map[string]bool, maxMembers int) []string {
	localSeen := map[string]bool{seed: true}
	visited[seed] = true
	members := []string{seed}
	queue := []string{seed}

	for len(queue) > 0 && len(members) < maxMembers {
		current := queue[0]
		queue = queue[1:]
		for _, neighbor := range s.adjacency[current] {
			if localSeen[neighbor] {
				continue
			}
			localSeen[neighbor] = true
			if _, isNote := s.notes[neighbor]; isNote {
				if visited[neighbor] {
					continue
				}
				visited[neighbor] = true
				members = append(members, neighbor)
				queue = append(queue, neighbor)
				if len(members) >= maxMembers {
					break
				}
				continue
			}
			// Tag hop: traverse through it without collecting it.
			queue = append(queue, neighbor)
		}
	}
	return members
}

func makeCluster(s *Snapshot, id int, members []string) *Cluster {
	memberSet := make(map[string]bool, len(members))
	for _, member := range members {
		memberSet[member] = true
	}

	return &Cluster{
		ID:       id,
		Name:     clusterName(s, members),
		Members:  members,
		Centroid: clusterCentroid(s, members, memberSet),
		Cohesion: clusterCohesion(s, members, memberSet),
	}
}

// clusterName is "#"+the most frequent tag across members; ties keep the
// tag counted first. "Mixed" when no member carries a tag.
func clusterName(s *Snapshot, members []string) string {
	counts := map[string]int{}
	var order []string
	for _, member := range members {
		for _, tag := range s.notes[member].Tags {
			if _, seen := counts[tag]; !seen {
				order = append(order, tag)
			}
			counts[tag]++
		}
	}
	best := ""
	bestCount := 0
	for _, tag := range order {
		if counts[tag] > bestCount {
			best = tag
			bestCount = counts[tag]
		}
	}
	if best == "" {
		return "Mixed"
	}
	return "#" + best
}

// clusterCentroid is the member with the most intra-cluster connections;
// ties keep the earliest-discovered member.
func clusterCentroid(s *Snapshot, members []string, memberSet map[string]bool) string {
	centroid := ""
	bestDegree := -1
	for _, member := range members {
		degree := intraClusterDegree(s, member, memberSet)
		if degree > bestDegree {
			centroid = member
			bestDegree = degree
		}
	}
	return centroid
}

// clusterCohesion is (sum of intra-cluster degree) / (members^2 - members),
// clamped to [0,1]; degenerate clusters of at most one member score 1.
func clusterCohesion(s *Snapshot, members []string, memberSet map[string]bool) float64 {
	if len(members) <= 1 {
		return 1
	}
	total := 0
	for _, member := range members {
		total += intraClusterDegree(s, member, memberSet)
	}
	possible := float64(len(members)*len(members) - len(members))
	cohesion := float64(total) / possible
	if cohesion > 1 {
		return 1
	}
	return cohesion
}

func intraClusterDegree(s *Snapshot, member string, memberSet map[string]bool) int {
	degree := 0
	for _, connected := range s.ConnectedNotes(member) {
		if memberSet[connected] {
			degree++
		}
	}
	return degree
}
