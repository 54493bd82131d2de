package fs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hrygo/vaultsense/internal/profile"
)

func writeNote(t *testing.T, root, path, content string) {
	t.Helper()
	full := filepath.Join(root, filepath.FromSlash(path))
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
}

func testDriver(t *testing.T, root string) *Driver {
	t.Helper()
	driver, err := NewDriver(&profile.Profile{Data: root})
	require.NoError(t, err)
	return driver
}

func TestNewDriverRejectsMissingDirectory(t *testing.T) {
	_, err := NewDriver(&profile.Profile{Data: "/definitely/not/a/vault"})
	require.Error(t, err)

	_, err = NewDriver(&profile.Profile{})
	require.Error(t, err)
}

func TestListNotesParsesFrontmatterAndTags(t *testing.T) {
	root := t.TempDir()
	writeNote(t, root, "note.md", `---
title: My Note
tags:
  - alpha
  - Beta
aliases:
  - shorthand
---
Body with #inline and #alpha tags.
`)
	driver := testDriver(t, root)
	ctx := context.Background()

	notes, err := driver.ListNotes(ctx)
	require.NoError(t, err)
	require.Len(t, notes, 1)

	note := notes[0]
	require.Equal(t, "note.md", note.Path)
	require.Equal(t, "My Note", note.Title)
	require.Equal(t, []string{"inline", "alpha"}, note.InlineTags)
	require.Equal(t, []string{"shorthand"}, note.Aliases)
	require.ElementsMatch(t, []string{"alpha", "Beta"}, note.Frontmatter["tags"].([]any))
	require.NotContains(t, note.Content, "title: My Note", "frontmatter is stripped from the body")
}

func TestListNotesTitleFallsBackToFilename(t *testing.T) {
	root := t.TempDir()
	writeNote(t, root, "daily/2024-01-05.md", "No frontmatter here.")
	driver := testDriver(t, root)

	notes, err := driver.ListNotes(context.Background())
	require.NoError(t, err)
	require.Len(t, notes, 1)
	require.Equal(t, "daily/2024-01-05.md", notes[0].Path)
	require.Equal(t, "2024-01-05", notes[0].Title)
}

func TestListNotesSkipsMalformedFrontmatter(t *testing.T) {
	root := t.TempDir()
	writeNote(t, root, "broken.md", "---\n\t: not yaml\n---\nStill readable body.")
	driver := testDriver(t, root)

	notes, err := driver.ListNotes(context.Background())
	require.NoError(t, err)
	require.Len(t, notes, 1, "a malformed frontmatter block must not drop the note")
	require.Nil(t, notes[0].Frontmatter)
}

func TestSplitFrontmatterFenceMustStandAlone(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		parsed bool
		body   string
	}{
		{"exact fence", "---\ntitle: X\n---\nbody", true, "body"},
		{"crlf fence", "---\r\ntitle: X\r\n---\r\nbody", true, "body"},
		{"four dashes never close", "---\ntitle: X\n----\nbody", false, ""},
		{"trailing text never closes", "---\ntitle: X\n--- section\nbody", false, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frontmatter, body := splitFrontmatter(tt.raw)
			if tt.parsed {
				require.Equal(t, "X", frontmatter["title"])
				require.Equal(t, tt.body, body)
			} else {
				require.Nil(t, frontmatter)
				require.Equal(t, tt.raw, body, "an unterminated block leaves the note untouched")
			}
		})
	}
}

func TestWikilinksIgnoreCodeRegions(t *testing.T) {
	root := t.TempDir()
	writeNote(t, root, "code.md", "See [[Real]].\n\n```\n[[Fenced]]\n```\n\nAnd `[[Span]]` inline.\n")
	driver := testDriver(t, root)
	ctx := context.Background()

	_, err := driver.ListNotes(ctx)
	require.NoError(t, err)

	links, err := driver.GetOutgoingLinks(ctx, "code.md")
	require.NoError(t, err)
	require.Len(t, links, 1, "wikilinks inside code blocks and code spans do not count")
	require.Equal(t, "Real", links[0].Link)
}

func TestInlineTagsIgnoreCodeBlocks(t *testing.T) {
	root := t.TempDir()
	writeNote(t, root, "code.md", "Real #tag here.\n\n```\n#not-a-tag\n```\n")
	driver := testDriver(t, root)

	notes, err := driver.ListNotes(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"tag"}, notes[0].InlineTags)
}

func TestOutgoingLinksWikiAndMarkdown(t *testing.T) {
	root := t.TempDir()
	writeNote(t, root, "source.md", "See [[Target]] and [[Other|the other one]] and [local](target.md) but not [ext](https://example.com).")
	writeNote(t, root, "target.md", "target body")
	driver := testDriver(t, root)
	ctx := context.Background()

	_, err := driver.ListNotes(ctx)
	require.NoError(t, err)

	links, err := driver.GetOutgoingLinks(ctx, "source.md")
	require.NoError(t, err)
	require.Len(t, links, 3, "external URLs are not vault links")
	require.Equal(t, "Target", links[0].Link)
	require.Equal(t, "Other", links[1].Link)
	require.Equal(t, "the other one", links[1].DisplayText)
}

func TestResolveLink(t *testing.T) {
	root := t.TempDir()
	writeNote(t, root, "projects/Graph Engine.md", `---
aliases:
  - KG
---
body`)
	driver := testDriver(t, root)
	ctx := context.Background()
	_, err := driver.ListNotes(ctx)
	require.NoError(t, err)

	tests := []struct {
		name     string
		linkText string
		found    bool
	}{
		{"full path", "projects/Graph Engine.md", true},
		{"path without extension", "projects/Graph Engine", true},
		{"basename only", "Graph Engine", true},
		{"case insensitive", "graph engine", true},
		{"alias", "KG", true},
		{"anchor stripped", "Graph Engine#Section", true},
		{"unknown", "No Such Note", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			note, err := driver.ResolveLink(ctx, tt.linkText, "other.md")
			require.NoError(t, err)
			if tt.found {
				require.NotNil(t, note)
				require.Equal(t, "projects/Graph Engine.md", note.Path)
			} else {
				require.Nil(t, note)
			}
		})
	}
}

func TestGetBacklinks(t *testing.T) {
	root := t.TempDir()
	writeNote(t, root, "a.md", "Links to [[b]].")
	writeNote(t, root, "b.md", "No links.")
	writeNote(t, root, "c.md", "Also links to [[b]] twice: [[b]].")
	driver := testDriver(t, root)
	ctx := context.Background()
	_, err := driver.ListNotes(ctx)
	require.NoError(t, err)

	backlinks, err := driver.GetBacklinks(ctx, "b.md")
	require.NoError(t, err)

	var paths []string
	for _, backlink := range backlinks {
		paths = append(paths, backlink.Path)
	}
	require.ElementsMatch(t, []string{"a.md", "c.md"}, paths, "each source counted once")
}

func TestGetBacklinksStableOrder(t *testing.T) {
	root := t.TempDir()
	writeNote(t, root, "hub.md", "The hub.")
	var expected []string
	for i := 0; i < 12; i++ {
		path := fmt.Sprintf("n%02d.md", i)
		writeNote(t, root, path, "Points at [[hub]].")
		expected = append(expected, path)
	}
	driver := testDriver(t, root)
	ctx := context.Background()

	for round := 0; round < 30; round++ {
		_, err := driver.ListNotes(ctx)
		require.NoError(t, err)

		backlinks, err := driver.GetBacklinks(ctx, "hub.md")
		require.NoError(t, err)

		var paths []string
		for _, backlink := range backlinks {
			paths = append(paths, backlink.Path)
		}
		require.Equal(t, expected, paths, "backlink order must follow scan order on every call")
	}
}

func TestSearchByTag(t *testing.T) {
	root := t.TempDir()
	writeNote(t, root, "a.md", "---\ntags: [shared]\n---\nbody")
	writeNote(t, root, "b.md", "Tagged #shared inline.")
	writeNote(t, root, "c.md", "Unrelated.")
	driver := testDriver(t, root)
	ctx := context.Background()
	_, err := driver.ListNotes(ctx)
	require.NoError(t, err)

	matches, err := driver.SearchByTag(ctx, "shared", 0)
	require.NoError(t, err)

	var paths []string
	for _, match := range matches {
		paths = append(paths, match.Path)
	}
	require.ElementsMatch(t, []string{"a.md", "b.md"}, paths)

	limited, err := driver.SearchByTag(ctx, "shared", 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
}

func TestScanSkipsHiddenDirsAndNonMarkdown(t *testing.T) {
	root := t.TempDir()
	writeNote(t, root, "real.md", "note")
	writeNote(t, root, ".obsidian/config.md", "not a note")
	require.NoError(t, os.WriteFile(filepath.Join(root, "image.png"), []byte{1, 2, 3}, 0o644))
	driver := testDriver(t, root)

	notes, err := driver.ListNotes(context.Background())
	require.NoError(t, err)
	require.Len(t, notes, 1)
	require.Equal(t, "real.md", notes[0].Path)
}
