// Package seedcmder provides the seed command for bulk-ingesting embeddings
// from a JSONL manifest.
package seedcmder

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/lens/cmd/lens/storeopts"
	"github.com/papercomputeco/lens/pkg/cliui"
	"github.com/papercomputeco/lens/pkg/config"
	"github.com/papercomputeco/lens/pkg/logger"
	"github.com/papercomputeco/lens/pkg/vector"
	vectorutils "github.com/papercomputeco/lens/pkg/vector/utils"
)

// batchSize is how many embeddings each bulk store call carries.
const batchSize = 100

const seedLongDesc string = `Bulk-ingest embeddings from a JSONL manifest.

Each line of the manifest is a JSON object:
  {"id": "img-001", "embedding": [0.1, 0.2, ...], "metadata": {"filename": "cat.jpg"}}

Embeddings are stored in batches of 100 through the configured backend.

Examples:
  lens seed manifest.jsonl
  lens seed manifest.jsonl --provider sqlite --sqlite ./lens.db`

const seedShortDesc string = "Bulk-ingest embeddings from a JSONL manifest"

// manifestLine is one record of the JSONL manifest.
type manifestLine struct {
	ID        string         `json:"id"`
	Embedding []float32      `json:"embedding"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

type seedCommander struct {
	provider   string
	dimensions uint
	sqlitePath string
	debug      bool
}

// seedFlags reuses the serve registry entries so the same logical flags keep
// the same names and viper keys.
var seedFlags = config.FlagSet{
	config.FlagVectorStoreProv: {
		Name:        "provider",
		Shorthand:   "p",
		ViperKey:    "vector_store.provider",
		Description: "Vector store backend (postgres, alloydb, sqlite, qdrant)",
	},
	config.FlagDimensions: {
		Name:        "dimensions",
		ViperKey:    "vector_store.dimensions",
		Description: "Embedding dimension",
	},
	config.FlagSQLitePath: {
		Name:        "sqlite",
		Shorthand:   "s",
		ViperKey:    "sqlite.path",
		Description: "Path to the SQLite database for the sqlite backend",
	},
}

var seedFlagKeys = []string{
	config.FlagVectorStoreProv,
	config.FlagDimensions,
	config.FlagSQLitePath,
}

func NewSeedCmd() *cobra.Command {
	cmder := &seedCommander{}

	cmd := &cobra.Command{
		Use:   "seed <manifest.jsonl>",
		Short: seedShortDesc,
		Long:  seedLongDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %v", err)
			}

			configDir, _ := cmd.Flags().GetString("config-dir")
			return cmder.run(cmd.Context(), args[0], configDir, cmd)
		},
	}

	config.AddStringFlag(cmd, seedFlags, config.FlagVectorStoreProv, &cmder.provider)
	config.AddUintFlag(cmd, seedFlags, config.FlagDimensions, &cmder.dimensions)
	config.AddStringFlag(cmd, seedFlags, config.FlagSQLitePath, &cmder.sqlitePath)

	return cmd
}

func (c *seedCommander) run(ctx context.Context, manifestPath, configDir string, cmd *cobra.Command) error {
	log := logger.NewLogger(c.debug)
	defer log.Sync()

	v, err := config.InitViper(configDir)
	if err != nil {
		return err
	}
	config.BindRegisteredFlags(v, cmd, seedFlags, seedFlagKeys)

	f, err := os.Open(manifestPath)
	if err != nil {
		return fmt.Errorf("opening manifest: %w", err)
	}
	defer f.Close()

	store, err := vectorutils.NewStore(ctx, storeopts.FromViper(v, log))
	if err != nil {
		return fmt.Errorf("creating vector store: %w", err)
	}
	defer store.Close()

	if err := cliui.Step(os.Stdout, "Initializing vector store", func() error {
		return store.Initialize(ctx)
	}); err != nil {
		return err
	}

	var stored, failed int
	if err := cliui.Step(os.Stdout, "Seeding embeddings", func() error {
		var seedErr error
		stored, failed, seedErr = seedManifest(ctx, store, f)
		return seedErr
	}); err != nil {
		return err
	}

	fmt.Printf("\n  %s Stored %s embeddings %s into %s\n\n",
		cliui.SuccessMark,
		cliui.NameStyle.Render(strconv.Itoa(stored)),
		cliui.DimStyle.Render(fmt.Sprintf("(%d failed)", failed)),
		cliui.DimStyle.Render(store.Name()),
	)
	return nil
}

// seedManifest streams the manifest line by line, flushing a batch to the
// store whenever batchSize embeddings have accumulated. Per-id failures
// reported via BatchError are counted and skipped rather than aborting the
// whole seed.
func seedManifest(ctx context.Context, store vector.Store, r io.Reader) (stored, failed int, err error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 1024*1024), 16*1024*1024)

	batch := make([]vector.Embedding, 0, batchSize)
	lineNo := 0

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}

		flushErr := store.BulkStoreEmbeddings(ctx, batch)
		if flushErr != nil {
			var batchErr *vector.BatchError
			if errors.As(flushErr, &batchErr) {
				stored += len(batch) - len(batchErr.Failed)
				failed += len(batchErr.Failed)
				batch = batch[:0]
				return nil
			}
			return flushErr
		}

		stored += len(batch)
		batch = batch[:0]
		return nil
	}

	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		entry := manifestLine{}
		if unmarshalErr := json.Unmarshal(line, &entry); unmarshalErr != nil {
			return stored, failed, fmt.Errorf("parsing manifest line %d: %w", lineNo, unmarshalErr)
		}
		if entry.ID == "" {
			return stored, failed, fmt.Errorf("manifest line %d: id is required", lineNo)
		}

		batch = append(batch, vector.Embedding{
			ID:       entry.ID,
			Vector:   entry.Embedding,
			Metadata: entry.Metadata,
		})

		if len(batch) == batchSize {
			if flushErr := flush(); flushErr != nil {
				return stored, failed, flushErr
			}
		}
	}

	if scanErr := scanner.Err(); scanErr != nil {
		return stored, failed, fmt.Errorf("reading manifest: %w", scanErr)
	}

	if flushErr := flush(); flushErr != nil {
		return stored, failed, flushErr
	}

	return stored, failed, nil
}
