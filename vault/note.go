package vault

// Note is one vault note as supplied by a driver. Content is the raw
// markdown body with frontmatter already stripped.
type Note struct {
	Path        string
	Title       string
	Content     string
	Frontmatter map[string]any
	// InlineTags are #tags found in the body, leading '#' stripped.
	InlineTags []string
	// Aliases are alternative names the note resolves under.
	Aliases   []string
	CreatedTs int64
	UpdatedTs int64
}

// OutgoingLink is a resolved or unresolved link found in a note body.
type OutgoingLink struct {
	// Link is the raw link target text as written in the note.
	Link string
	// DisplayText is the optional label, e.g. the alias part of [[target|label]].
	DisplayText string
}

// Backlink references a note that links to the queried note.
type Backlink struct {
	Path string
}

// TagMatch is one result of a tag search.
type TagMatch struct {
	Path string
	Tags []string
}
