//go:build js && wasm

// Command wasm exposes in-browser report search to JavaScript. Reports are
// held in memory and embedded with the local hashing embedder, so no
// API key or server is needed.
package main

import (
	"context"
	"encoding/json"
	"sort"
	"syscall/js"

	"sprintrag/internal/adapter/chunker"
	"sprintrag/internal/adapter/embedding"
	"sprintrag/internal/adapter/memstore"
	"sprintrag/internal/domain"
	"sprintrag/internal/port"
	"sprintrag/internal/usecase"
)

const collection = "browser"

var (
	index    *memstore.MemoryIndex
	embedder *embedding.LocalEmbedder
	chk      *chunker.WindowChunker
	texts    map[string]string
)

func init() {
	index = memstore.NewMemoryIndex()
	embedder = embedding.NewLocalEmbedder(embedding.DefaultLocalDimension)
	chk, _ = chunker.NewWindowChunker(chunker.DefaultChunkSize, chunker.DefaultOverlap)
	texts = make(map[string]string)
}

func main() {
	c := make(chan struct{})

	js.Global().Set("ragIndex", js.FuncOf(indexContent))
	js.Global().Set("ragQuery", js.FuncOf(queryContent))
	js.Global().Set("ragPrompt", js.FuncOf(promptContent))
	js.Global().Set("ragClear", js.FuncOf(clearIndex))
	js.Global().Set("ragStats", js.FuncOf(getStats))

	<-c
}

// rebuild re-embeds every loaded report into a fresh collection.
func rebuild(ctx context.Context) (int, error) {
	coll, err := port.ReplaceCollection(ctx, index, domain.CollectionInfo{
		Name:         collection,
		Dimension:    embedder.Dimension(),
		Model:        embedder.ModelName(),
		ChunkSize:    chk.Size(),
		ChunkOverlap: chk.Overlap(),
	})
	if err != nil {
		return 0, err
	}

	var records []domain.Record
	for name, text := range texts {
		chunks, err := chk.Chunk(domain.Document{Filename: name, Text: text})
		if err != nil {
			return 0, err
		}
		for _, ch := range chunks {
			vec, err := embedder.Embed(ctx, usecase.TruncateInput(ch.Text, usecase.MaxEmbedInputChars))
			if err != nil {
				return 0, err
			}
			records = append(records, domain.RecordFromChunk(domain.EmbeddedChunk{Chunk: ch, Vector: vec}))
		}
	}
	return len(records), coll.Upsert(ctx, records)
}

func indexContent(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return makeError("usage: ragIndex(filename, content)")
	}

	filename := args[0].String()
	texts[filename] = args[1].String()

	total, err := rebuild(context.Background())
	if err != nil {
		return makeError("indexing failed: " + err.Error())
	}

	return makeResult(map[string]interface{}{
		"success":  true,
		"chunks":   total,
		"filename": filename,
	})
}

func newRouter(ctx context.Context) (*usecase.Router, *usecase.Retriever, error) {
	r, err := usecase.NewRetriever(ctx, index, embedder, collection, nil)
	if err != nil {
		return nil, nil, err
	}
	return usecase.NewRouter(r, nil, usecase.DefaultRouterOptions(), nil), r, nil
}

func queryContent(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return makeError("usage: ragQuery(query, [topK])")
	}

	query := args[0].String()
	topK := usecase.DefaultTopK
	if len(args) > 1 {
		topK = args[1].Int()
	}

	ctx := context.Background()
	_, r, err := newRouter(ctx)
	if err != nil {
		return makeError("nothing indexed yet")
	}
	results, err := r.Search(ctx, query, topK)
	if err != nil {
		return makeError("search failed: " + err.Error())
	}
	if results == nil {
		results = []domain.SearchResult{}
	}

	return makeResult(map[string]interface{}{
		"results": results,
		"context": usecase.FormatContext(results),
		"query":   query,
	})
}

func promptContent(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return makeError("usage: ragPrompt(question)")
	}

	ctx := context.Background()
	router, _, err := newRouter(ctx)
	if err != nil {
		return makeError("nothing indexed yet")
	}
	p, err := router.BuildPrompt(ctx, args[0].String())
	if err != nil {
		return makeError("prompt failed: " + err.Error())
	}

	return makeResult(map[string]interface{}{
		"intent":  p.Intent.Kind(),
		"prompt":  p.Text,
		"reply":   p.Reply,
		"sources": p.Sources,
	})
}

func clearIndex(this js.Value, args []js.Value) interface{} {
	texts = make(map[string]string)
	_ = index.DropCollection(context.Background(), collection)
	return makeResult(map[string]interface{}{
		"success": true,
	})
}

func getStats(this js.Value, args []js.Value) interface{} {
	filenames := make([]string, 0, len(texts))
	for name := range texts {
		filenames = append(filenames, name)
	}
	sort.Strings(filenames)

	return makeResult(map[string]interface{}{
		"totalDocs":   len(filenames),
		"totalChunks": len(index.IDs(collection)),
		"files":       filenames,
	})
}

func makeError(msg string) interface{} {
	result, _ := json.Marshal(map[string]interface{}{
		"error": msg,
	})
	return string(result)
}

func makeResult(data map[string]interface{}) interface{} {
	result, _ := json.Marshal(data)
	return string(result)
}
