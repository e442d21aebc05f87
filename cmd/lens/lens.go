// Package lenscmder
package lenscmder

import (
	configcmder "github.com/papercomputeco/lens/cmd/lens/config"
	seedcmder "github.com/papercomputeco/lens/cmd/lens/seed"
	servecmder "github.com/papercomputeco/lens/cmd/lens/serve"
	versioncmder "github.com/papercomputeco/lens/cmd/version"
	"github.com/spf13/cobra"
)

const lensLongDesc string = `Lens stores image and text embeddings with their metadata and retrieves
the nearest records by cosine similarity. One contract, interchangeable
backends: Postgres + pgvector, AlloyDB, sqlite-vec, or Qdrant.

Run services using:
  lens serve           Run the API server
  lens seed            Bulk-ingest embeddings from a JSONL manifest
  lens config          Manage persistent configuration`

const lensShortDesc string = "Lens - similarity search over interchangeable vector stores"

func NewLensCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lens",
		Short: lensShortDesc,
		Long:  lensLongDesc,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Directory holding config.toml (default: ./.lens or ~/.lens)")

	// Add subcommands
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(seedcmder.NewSeedCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
