package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/Zuo-Peng/msgexport/internal/backup"
	"github.com/Zuo-Peng/msgexport/internal/summary"
)

// ManifestName is written at the destination root once every stage succeeded.
const ManifestName = "export_info.json"

type Manifest struct {
	RunID           string    `json:"run_id"`
	ExportTimestamp time.Time `json:"export_timestamp"`
	Tool            string    `json:"tool"`
	SourceDB        string    `json:"source_db"`
	ContactFilter   string    `json:"contact_filter,omitempty"`
	*summary.Summary
	Backup *backup.Result `json:"backup,omitempty"`
}

// NewManifest starts a manifest with a fresh run id.
func NewManifest(tool, sourceDB string, now time.Time) Manifest {
	return Manifest{
		RunID:           uuid.NewString(),
		ExportTimestamp: now,
		Tool:            tool,
		SourceDB:        sourceDB,
	}
}

// WriteManifest writes m to dest and returns the path written.
func WriteManifest(dest string, m Manifest) (string, error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode manifest: %w", err)
	}
	path := filepath.Join(dest, ManifestName)
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return "", fmt.Errorf("write manifest: %w", err)
	}
	return path, nil
}
