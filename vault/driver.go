package vault

import "context"

// Driver is an interface for vault access.
// It contains all methods a concrete vault backend should implement.
// Link resolution semantics (relative paths, aliases, case folding) are
// owned by the driver, not by consumers.
type Driver interface {
	Close() error

	// ListNotes returns every readable note in the vault. Unreadable or
	// unparsable notes are skipped, not surfaced as errors.
	ListNotes(ctx context.Context) ([]*Note, error)

	// ResolveLink resolves link text written in sourcePath to a note.
	// Returns (nil, nil) when the target does not exist.
	ResolveLink(ctx context.Context, linkText, sourcePath string) (*Note, error)

	// GetOutgoingLinks returns the links written in the note at path.
	GetOutgoingLinks(ctx context.Context, path string) ([]*OutgoingLink, error)

	// GetBacklinks returns the notes that link to path (full-vault reverse scan).
	GetBacklinks(ctx context.Context, path string) ([]*Backlink, error)

	// SearchByTag returns up to limit notes carrying the given tag.
	SearchByTag(ctx context.Context, tag string, limit int) ([]*TagMatch, error)
}
