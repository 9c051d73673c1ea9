package domain

import "time"

// Document is one source report of the corpus.
type Document struct {
	Filename string
	Path     string
	Text     string
}

// Chunk is a contiguous window of a document's text.
type Chunk struct {
	ID     string
	Source string
	Seq    int
	Text   string
}

type EmbeddedChunk struct {
	Chunk  Chunk
	Vector []float32
}

type ResultMetadata struct {
	Source  string `json:"source"`
	ChunkID string `json:"chunk_id"`
	Seq     int    `json:"seq"`
}

// SearchResult is a retrieved chunk. Lower distance is more relevant.
type SearchResult struct {
	Text     string         `json:"text"`
	Metadata ResultMetadata `json:"metadata"`
	Distance float64        `json:"distance"`
}

// CollectionInfo describes how a collection was built.
type CollectionInfo struct {
	Name          string    `json:"name"`
	Dimension     int       `json:"dimension"`
	Model         string    `json:"model"`
	Metric        string    `json:"metric"`
	ChunkSize     int       `json:"chunk_size"`
	ChunkOverlap  int       `json:"chunk_overlap"`
	SchemaVersion int       `json:"schema_version"`
	BuiltAt       time.Time `json:"built_at"`
}

// Record is a single row written to a collection.
type Record struct {
	ID       string
	Vector   []float32
	Text     string
	Metadata ResultMetadata
}

// RecordFromChunk converts an embedded chunk into a collection record.
func RecordFromChunk(ec EmbeddedChunk) Record {
	return Record{
		ID:     ec.Chunk.ID,
		Vector: ec.Vector,
		Text:   ec.Chunk.Text,
		Metadata: ResultMetadata{
			Source:  ec.Chunk.Source,
			ChunkID: ec.Chunk.ID,
			Seq:     ec.Chunk.Seq,
		},
	}
}
