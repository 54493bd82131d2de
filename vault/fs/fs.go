// Package fs implements a vault.Driver over a directory of markdown files.
package fs

import (
	"context"
	iofs "io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/hrygo/vaultsense/internal/profile"
	"github.com/hrygo/vaultsense/vault"
)

// Driver reads notes from a vault directory. Every ListNotes call rescans
// the directory; the other queries answer from the most recent scan so one
// graph build observes a coherent snapshot of the vault.
type Driver struct {
	root   string
	logger *slog.Logger

	mu      sync.RWMutex
	notes   []*vault.Note
	byPath  map[string]*vault.Note // lowercased path -> note
	byBase  map[string]*vault.Note // lowercased basename (no .md) -> note
	byAlias map[string]*vault.Note // lowercased alias -> note
	links   map[string][]*vault.OutgoingLink
}

var _ vault.Driver = (*Driver)(nil)

// NewDriver creates a filesystem driver rooted at the profile's data directory.
func NewDriver(p *profile.Profile) (*Driver, error) {
	if p == nil || p.Data == "" {
		return nil, errors.New("vault data directory is not configured")
	}
	info, err := os.Stat(p.Data)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open vault directory %q", p.Data)
	}
	if !info.IsDir() {
		return nil, errors.Errorf("vault path %q is not a directory", p.Data)
	}
	return &Driver{
		root:   p.Data,
		logger: slog.Default(),
	}, nil
}

func (d *Driver) Close() error {
	return nil
}

// ListNotes rescans the vault directory and returns all readable notes.
// A note that cannot be read or parsed is skipped with a warning.
func (d *Driver) ListNotes(ctx context.Context) ([]*vault.Note, error) {
	if err := d.scan(ctx); err != nil {
		return nil, err
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	notes := make([]*vault.Note, len(d.notes))
	copy(notes, d.notes)
	return notes, nil
}

func (d *Driver) scan(ctx context.Context) error {
	var notes []*vault.Note
	err := filepath.WalkDir(d.root, func(path string, entry iofs.DirEntry, walkErr error) error {
		if walkErr != nil {
			// Unreadable directories are skipped, not fatal.
			d.logger.WarnContext(ctx, "skipping unreadable vault entry", "path", path, "error", walkErr)
			if entry != nil && entry.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if entry.IsDir() {
			if strings.HasPrefix(entry.Name(), ".") && path != d.root {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.EqualFold(filepath.Ext(entry.Name()), ".md") {
			return nil
		}
		note, err := d.readNote(path, entry)
		if err != nil {
			d.logger.WarnContext(ctx, "skipping unreadable note", "path", path, "error", err)
			return nil
		}
		notes = append(notes, note)
		return nil
	})
	if err != nil {
		return errors.Wrapf(err, "failed to scan vault %q", d.root)
	}

	byPath := make(map[string]*vault.Note, len(notes))
	byBase := make(map[string]*vault.Note, len(notes))
	byAlias := make(map[string]*vault.Note)
	links := make(map[string][]*vault.OutgoingLink, len(notes))
	for _, note := range notes {
		byPath[strings.ToLower(note.Path)] = note
		base := strings.TrimSuffix(strings.ToLower(filepath.Base(note.Path)), ".md")
		byBase[base] = note
		for _, alias := range note.Aliases {
			byAlias[strings.ToLower(alias)] = note
		}
		for _, link := range extractLinks(note.Content) {
			links[note.Path] = append(links[note.Path], &vault.OutgoingLink{
				Link:        link.target,
				DisplayText: link.display,
			})
		}
	}

	d.mu.Lock()
	d.notes = notes
	d.byPath = byPath
	d.byBase = byBase
	d.byAlias = byAlias
	d.links = links
	d.mu.Unlock()
	return nil
}

func (d *Driver) readNote(path string, entry iofs.DirEntry) (*vault.Note, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read file")
	}
	relPath, err := filepath.Rel(d.root, path)
	if err != nil {
		return nil, errors.Wrap(err, "relative path")
	}
	relPath = filepath.ToSlash(relPath)

	frontmatter, body := splitFrontmatter(string(raw))

	title := strings.TrimSuffix(filepath.Base(relPath), filepath.Ext(relPath))
	if fmTitle, ok := frontmatter["title"].(string); ok && fmTitle != "" {
		title = fmTitle
	}

	info, err := entry.Info()
	if err != nil {
		return nil, errors.Wrap(err, "stat file")
	}
	modified := info.ModTime()
	created := modified
	if raw, ok := frontmatter["created"]; ok {
		if at, ok := parseInstant(raw); ok {
			created = at
		}
	}

	return &vault.Note{
		Path:        relPath,
		Title:       title,
		Content:     body,
		Frontmatter: frontmatter,
		InlineTags:  extractInlineTags(body),
		Aliases:     stringList(frontmatter["aliases"]),
		CreatedTs:   created.Unix(),
		UpdatedTs:   modified.Unix(),
	}, nil
}

func parseInstant(value any) (time.Time, bool) {
	switch v := value.(type) {
	case time.Time:
		return v, true
	case string:
		for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
			if at, err := time.Parse(layout, v); err == nil {
				return at, true
			}
		}
	case int:
		return time.Unix(int64(v), 0), true
	case int64:
		return time.Unix(v, 0), true
	}
	return time.Time{}, false
}

// ResolveLink resolves link text against the vault: exact path, path with
// ".md" appended, basename, then alias, each case-insensitive. Anchors
// ("note#heading") are stripped before matching.
func (d *Driver) ResolveLink(_ context.Context, linkText, _ string) (*vault.Note, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	target := strings.TrimSpace(linkText)
	if idx := strings.Index(target, "#"); idx >= 0 {
		target = target[:idx]
	}
	if target == "" {
		return nil, nil
	}
	lowered := strings.ToLower(filepath.ToSlash(target))

	if note, ok := d.byPath[lowered]; ok {
		return note, nil
	}
	if note, ok := d.byPath[lowered+".md"]; ok {
		return note, nil
	}
	base := strings.TrimSuffix(lowered[strings.LastIndex(lowered, "/")+1:], ".md")
	if note, ok := d.byBase[base]; ok {
		return note, nil
	}
	if note, ok := d.byAlias[lowered]; ok {
		return note, nil
	}
	return nil, nil
}

func (d *Driver) GetOutgoingLinks(_ context.Context, path string) ([]*vault.OutgoingLink, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.links[path], nil
}

// GetBacklinks walks every note's outgoing links in scan order and keeps
// the sources resolving to path, each source once. The Vault facade caches
// this scan.
func (d *Driver) GetBacklinks(ctx context.Context, path string) ([]*vault.Backlink, error) {
	d.mu.RLock()
	notes := make([]*vault.Note, len(d.notes))
	copy(notes, d.notes)
	linksBySource := d.links
	d.mu.RUnlock()

	var backlinks []*vault.Backlink
	for _, note := range notes {
		if note.Path == path {
			continue
		}
		for _, link := range linksBySource[note.Path] {
			resolved, err := d.ResolveLink(ctx, link.Link, note.Path)
			if err != nil || resolved == nil {
				continue
			}
			if resolved.Path == path {
				backlinks = append(backlinks, &vault.Backlink{Path: note.Path})
				break
			}
		}
	}
	return backlinks, nil
}

func (d *Driver) SearchByTag(_ context.Context, tag string, limit int) ([]*vault.TagMatch, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	wanted := strings.ToLower(strings.TrimPrefix(tag, "#"))
	var matches []*vault.TagMatch
	for _, note := range d.notes {
		tags := noteTags(note)
		for _, t := range tags {
			if strings.EqualFold(t, wanted) {
				matches = append(matches, &vault.TagMatch{Path: note.Path, Tags: tags})
				break
			}
		}
		if limit > 0 && len(matches) >= limit {
			break
		}
	}
	return matches, nil
}

// noteTags unions frontmatter and inline tags, first-seen order, deduplicated.
func noteTags(note *vault.Note) []string {
	seen := map[string]bool{}
	var tags []string
	for _, t := range stringList(note.Frontmatter["tags"]) {
		t = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(t), "#"))
		if t != "" && !seen[t] {
			seen[t] = true
			tags = append(tags, t)
		}
	}
	for _, t := range note.InlineTags {
		t = strings.ToLower(strings.TrimPrefix(t, "#"))
		if t != "" && !seen[t] {
			seen[t] = true
			tags = append(tags, t)
		}
	}
	return tags
}
