package graph

import (
	"context"
	"sort"
	"strings"
	"unicode/utf8"
)

// Similarity weights: tag overlap dominates, title distance refines.
const (
	tagJaccardWeight = 0.6
	titleWeight      = 0.4
)

// SimilarNote is one FindSimilarNotes result.
type SimilarNote struct {
	Path       string
	Similarity float64
}

// FindSimilarNotes scores every other note against noteID using tag Jaccard
// overlap and case-insensitive title edit distance, returning notes whose
// combined similarity meets threshold, descending. A pair with no tags on
// either side is skipped rather than scored zero. threshold <= 0 falls back
// to the profile default.
func (e *Engine) FindSimilarNotes(ctx context.Context, noteID string, threshold float64) ([]*SimilarNote, error) {
	if err := e.BuildGraph(ctx, false); err != nil {
		return nil, err
	}
	s := e.snapshot.Load()
	if s == nil || s.NoteNode(noteID) == nil {
		return nil, nil
	}
	if threshold <= 0 {
		threshold = e.profile.GraphSimilarityThreshold
	}
	if threshold <= 0 {
		threshold = 0.7
	}

	source := s.NoteNode(noteID)
	var similar []*SimilarNote
	for _, id := range s.noteOrder {
		if id == noteID {
			continue
		}
		candidate := s.notes[id]
		jaccard, ok := tagJaccard(source.Tags, candidate.Tags)
		if !ok {
			continue
		}
		similarity := tagJaccardWeight*jaccard + titleWeight*titleSimilarity(source.Title, candidate.Title)
		if similarity >= threshold {
			similar = append(similar, &SimilarNote{Path: id, Similarity: similarity})
		}
	}

	sort.SliceStable(similar, func(i, j int) bool {
		return similar[i].Similarity > similar[j].Similarity
	})
	return similar, nil
}

// tagJaccard is |intersection| / |union| of the two tag sets. The second
// return is false when the union is empty, which callers must skip.
func tagJaccard(a, b []string) (float64, bool) {
	union := map[string]bool{}
	inA := map[string]bool{}
	for _, tag := range a {
		union[tag] = true
		inA[tag] = true
	}
	intersection := 0
	for _, tag := range b {
		if !union[tag] {
			union[tag] = true
		}
		if inA[tag] {
			intersection++
			inA[tag] = false // count each shared tag once
		}
	}
	if len(union) == 0 {
		return 0, false
	}
	return float64(intersection) / float64(len(union)), true
}

// titleSimilarity is 1 - levenshtein/maxLen over lower-cased titles,
// measured in runes so non-ASCII titles are not penalized per byte.
func titleSimilarity(a, b string) float64 {
	a = strings.ToLower(a)
	b = strings.ToLower(b)
	if a == b {
		return 1
	}
	maxLen := utf8.RuneCountInString(a)
	if n := utf8.RuneCountInString(b); n > maxLen {
		maxLen = n
	}
	if maxLen == 0 {
		return 1
	}
	return 1 - float64(levenshtein(a, b))/float64(maxLen)
}

// levenshtein is the classic edit distance with unit insert, delete and
// substitute costs, computed over the full dynamic-programming matrix.
func levenshtein(a, b string) int {
	ra := []rune(a)
	rb := []rune(b)
	rows := len(ra) + 1
	cols := len(rb) + 1
	matrix := make([][]int, rows)
	for i := range matrix {
		matrix[i] = make([]int, cols)
		matrix[i][0] = i
	}
	for j := 1; j < cols; j++ {
		matrix[0][j] = j
	}

	for i := 1; i < rows; i++ {
		for j := 1; j < cols; j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			deletion := matrix[i-1][j] + 1
			insertion := matrix[i][j-1] + 1
			substitution := matrix[i-1][j-1] + cost
			best := deletion
			if insertion < best {
				best = insertion
			}
			if substitution < best {
				best = substitution
			}
			matrix[i][j] = best
		}
	}
	return matrix[rows-1][cols-1]
}
