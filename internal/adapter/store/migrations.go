package store

import (
	"fmt"

	"sprintrag/internal/domain"
)

// CurrentSchemaVersion is the current collection layout version.
// Increment this when making breaking changes to the storage format.
const CurrentSchemaVersion = 1

// CheckSchema rejects collections written by a newer, incompatible version.
func CheckSchema(info domain.CollectionInfo) error {
	if info.SchemaVersion > CurrentSchemaVersion {
		return fmt.Errorf("%w: collection %s created by newer version (v%d > v%d), re-run indexing",
			domain.ErrInvalidConfig, info.Name, info.SchemaVersion, CurrentSchemaVersion)
	}
	return nil
}

// Drift lists differences between how a collection was built and the
// settings currently configured. Dimension drift makes the collection
// unusable; the rest only mean a rebuild would produce different chunks.
type Drift struct {
	DimensionMismatch bool
	Reasons           []string
}

func (d Drift) NeedsRebuild() bool {
	return len(d.Reasons) > 0
}

func CheckDrift(built, current domain.CollectionInfo) Drift {
	var d Drift
	if built.Dimension != current.Dimension {
		d.DimensionMismatch = true
		d.Reasons = append(d.Reasons, fmt.Sprintf("embedding dimension changed (%d -> %d)", built.Dimension, current.Dimension))
	}
	if current.Model != "" && built.Model != current.Model {
		d.Reasons = append(d.Reasons, fmt.Sprintf("embedding model changed (%s -> %s)", built.Model, current.Model))
	}
	if current.ChunkSize != 0 && (built.ChunkSize != current.ChunkSize || built.ChunkOverlap != current.ChunkOverlap) {
		d.Reasons = append(d.Reasons, fmt.Sprintf("chunking changed (%d/%d -> %d/%d)",
			built.ChunkSize, built.ChunkOverlap, current.ChunkSize, current.ChunkOverlap))
	}
	return d
}
