package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"sprintrag/internal/adapter/store"
	"sprintrag/internal/domain"
)

var statusJSON bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the collections in the vector store",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "output as JSON")
}

type collectionStatus struct {
	domain.CollectionInfo
	Chunks int      `json:"chunks"`
	Drift  []string `json:"drift,omitempty"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	ctx := cmd.Context()

	storePath := cfg.ResolveStorePath(GetRootDir())
	idx, err := store.OpenReadOnly(storePath, GetLogger())
	if errors.Is(err, domain.ErrNotFound) {
		return errNoStore
	}
	if err != nil {
		return err
	}
	defer idx.Close()

	infos, err := idx.ListCollections(ctx)
	if err != nil {
		return fmt.Errorf("failed to list collections: %w", err)
	}

	// Drift is judged against the configured settings without building a client.
	current := domain.CollectionInfo{
		Dimension:    cfg.Embedding.Dimension,
		Model:        cfg.Embedding.Model,
		ChunkSize:    cfg.Index.ChunkSize,
		ChunkOverlap: cfg.Index.ChunkOverlap,
	}

	statuses := make([]collectionStatus, 0, len(infos))
	for _, info := range infos {
		st := collectionStatus{CollectionInfo: info}
		if coll, err := idx.GetCollection(ctx, info.Name); err == nil {
			st.Chunks, _ = coll.Count(ctx)
		}
		if info.Name == cfg.Store.Collection {
			st.Drift = store.CheckDrift(info, current).Reasons
		}
		statuses = append(statuses, st)
	}

	if statusJSON {
		output, _ := json.MarshalIndent(statuses, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	fmt.Printf("Vector store: %s\n", store.DBPath(storePath))
	if len(statuses) == 0 {
		fmt.Println("No collections. Run 'rag index' to build one.")
		return nil
	}
	for _, st := range statuses {
		fmt.Printf("\nCollection %s\n", st.Name)
		fmt.Printf("  Chunks:    %d\n", st.Chunks)
		fmt.Printf("  Model:     %s (%d dims, %s)\n", st.Model, st.Dimension, st.Metric)
		fmt.Printf("  Chunking:  %d/%d\n", st.ChunkSize, st.ChunkOverlap)
		fmt.Printf("  Built:     %s\n", st.BuiltAt.Local().Format("2006-01-02 15:04:05"))
		for _, reason := range st.Drift {
			fmt.Printf("  Warning:   %s\n", reason)
		}
	}
	return nil
}
