// Package attachment locates attachment files referenced by the archive.
package attachment

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/Zuo-Peng/msgexport/internal/archive"
)

// storedPrefix is how the archive records files under its own attachment store.
const storedPrefix = "~/Library/Messages/Attachments/"

// Source is the archive query the resolver depends on.
type Source interface {
	Attachments(ctx context.Context, messageID int64) ([]archive.Attachment, error)
}

// Resolver maps messages to attachment records with absolute source paths.
type Resolver struct {
	src  Source
	root string
	home string
}

// NewResolver creates a resolver. root is the attachment store the archive's
// "~/Library/Messages/Attachments" paths are rebased onto, which lets an
// export run against a copied backup. home expands other "~/" paths.
func NewResolver(src Source, root, home string) *Resolver {
	return &Resolver{src: src, root: root, home: home}
}

// For returns every attachment of m in archive order. Attachments whose file
// is missing are still returned with Available set to false.
func (r *Resolver) For(ctx context.Context, m archive.Message) ([]archive.Attachment, error) {
	if m.Attachments == 0 {
		return nil, nil
	}
	atts, err := r.src.Attachments(ctx, m.ID)
	if err != nil {
		return nil, err
	}
	for i := range atts {
		r.resolve(&atts[i])
	}
	return atts, nil
}

func (r *Resolver) resolve(a *archive.Attachment) {
	a.SourcePath = r.SourcePath(a.Filename)
	if a.SourcePath == "" {
		return
	}
	info, err := os.Stat(a.SourcePath)
	if err != nil || info.IsDir() {
		return
	}
	a.Available = true
	if a.MIMEType == "" {
		if mt, err := mimetype.DetectFile(a.SourcePath); err == nil {
			a.MIMEType = mt.String()
		}
	}
}

// SourcePath converts a stored attachment path to an absolute path.
func (r *Resolver) SourcePath(stored string) string {
	switch {
	case stored == "":
		return ""
	case strings.HasPrefix(stored, storedPrefix) && r.root != "":
		return filepath.Join(r.root, filepath.FromSlash(strings.TrimPrefix(stored, storedPrefix)))
	case strings.HasPrefix(stored, "~/"):
		return filepath.Join(r.home, filepath.FromSlash(stored[2:]))
	case filepath.IsAbs(stored):
		return filepath.Clean(stored)
	default:
		return filepath.Join(r.root, filepath.FromSlash(stored))
	}
}
