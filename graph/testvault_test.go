package graph

import (
	"context"
	"sync/atomic"

	"github.com/pkg/errors"

	"github.com/hrygo/vaultsense/internal/profile"
	"github.com/hrygo/vaultsense/vault"
)

// fakeDriver is an in-memory vault.Driver with call counters, used to
// observe rebuild behavior from the outside.
type fakeDriver struct {
	notes []*vault.Note
	links map[string][]*vault.OutgoingLink

	listCalls   atomic.Int32
	unavailable bool
}

var _ vault.Driver = (*fakeDriver)(nil)

func (d *fakeDriver) Close() error { return nil }

func (d *fakeDriver) ListNotes(_ context.Context) ([]*vault.Note, error) {
	d.listCalls.Add(1)
	if d.unavailable {
		return nil, errors.New("vault unavailable")
	}
	return d.notes, nil
}

func (d *fakeDriver) ResolveLink(_ context.Context, linkText, _ string) (*vault.Note, error) {
	for _, note := range d.notes {
		if note.Path == linkText {
			return note, nil
		}
	}
	return nil, nil
}

func (d *fakeDriver) GetOutgoingLinks(_ context.Context, path string) ([]*vault.OutgoingLink, error) {
	return d.links[path], nil
}

func (d *fakeDriver) GetBacklinks(_ context.Context, path string) ([]*vault.Backlink, error) {
	var backlinks []*vault.Backlink
	for _, note := range d.notes {
		if note.Path == path {
			continue
		}
		for _, link := range d.links[note.Path] {
			if link.Link == path {
				backlinks = append(backlinks, &vault.Backlink{Path: note.Path})
				break
			}
		}
	}
	return backlinks, nil
}

func (d *fakeDriver) SearchByTag(_ context.Context, tag string, limit int) ([]*vault.TagMatch, error) {
	var matches []*vault.TagMatch
	for _, note := range d.notes {
		for _, t := range note.InlineTags {
			if t == tag {
				matches = append(matches, &vault.TagMatch{Path: note.Path, Tags: note.InlineTags})
				break
			}
		}
		if limit > 0 && len(matches) >= limit {
			break
		}
	}
	return matches, nil
}

func testProfile() *profile.Profile {
	return &profile.Profile{
		Mode:                     "dev",
		GraphStalenessMS:         60000,
		GraphClusterCap:          50,
		GraphMaxDistance:         3,
		GraphRelatedLimit:        10,
		GraphSuggestLimit:        5,
		GraphSimilarityThreshold: 0.7,
		CacheTTLSeconds:          300,
		CacheMaxItems:            100,
	}
}

func testNote(path, title string, tags ...string) *vault.Note {
	return &vault.Note{
		Path:       path,
		Title:      title,
		InlineTags: tags,
		Content:    "body of " + title,
	}
}

func testEngine(driver *fakeDriver) *Engine {
	p := testProfile()
	return New(vault.New(driver, p), p)
}

func link(target string) *vault.OutgoingLink {
	return &vault.OutgoingLink{Link: target}
}
