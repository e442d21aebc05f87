// Package servecmder provides the serve command for running the lens API server.
package servecmder

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/papercomputeco/lens/api"
	"github.com/papercomputeco/lens/cmd/lens/storeopts"
	"github.com/papercomputeco/lens/pkg/blob/miniostore"
	blobutils "github.com/papercomputeco/lens/pkg/blob/utils"
	"github.com/papercomputeco/lens/pkg/config"
	embeddingutils "github.com/papercomputeco/lens/pkg/embeddings/utils"
	"github.com/papercomputeco/lens/pkg/logger"
	vectorutils "github.com/papercomputeco/lens/pkg/vector/utils"
)

// serveFlags is the flag registry for the serve command. Each entry maps a
// CLI flag to its dotted viper key so flag, env, file, and default values
// share one precedence chain.
var serveFlags = config.FlagSet{
	config.FlagAPIListen: {
		Name:        "listen",
		Shorthand:   "l",
		ViperKey:    "api.listen",
		Description: "Address for the API server to listen on",
	},
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
	config.FlagPostgresDSN: {
		Name:        "postgres-dsn",
		ViperKey:    "postgres.dsn",
		Description: "PostgreSQL connection string for the postgres backend",
	},
	config.FlagSQLitePath: {
		Name:        "sqlite",
		Shorthand:   "s",
		ViperKey:    "sqlite.path",
		Description: "Path to the SQLite database for the sqlite backend",
	},
	config.FlagEmbeddingProv: {
		Name:        "embedding-provider",
		ViperKey:    "embedding.provider",
		Description: "Embedding provider (clip)",
	},
	config.FlagEmbeddingTgt: {
		Name:        "embedding-target",
		ViperKey:    "embedding.target",
		Description: "Embedding sidecar base URL",
	},
	config.FlagBlobProv: {
		Name:        "blob-provider",
		ViperKey:    "blob.provider",
		Description: "Blob store backend (minio, fs)",
	},
}

// serveFlagKeys lists the registry keys bound on the serve command.
var serveFlagKeys = []string{
	config.FlagAPIListen,
	config.FlagVectorStoreProv,
	config.FlagDimensions,
	config.FlagPostgresDSN,
	config.FlagSQLitePath,
	config.FlagEmbeddingProv,
	config.FlagEmbeddingTgt,
	config.FlagBlobProv,
}

type ServeCommander struct {
	listen            string
	provider          string
	dimensions        uint
	postgresDSN       string
	sqlitePath        string
	embeddingProvider string
	embeddingTarget   string
	blobProvider      string
	debug             bool

	v      *viper.Viper
	logger *zap.Logger
}

const serveLongDesc string = `Run the lens API server.

The server embeds uploads through the configured embedding provider, writes
the original bytes to the blob store, and stores the embedding with its
metadata in the configured vector store backend.

Examples:
  lens serve
  lens serve --provider postgres --postgres-dsn postgres://localhost/lens
  lens serve --provider sqlite --sqlite ./lens.db`

const serveShortDesc string = "Run the lens API server"

func NewServeCmd() *cobra.Command {
	cmder := &ServeCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")

			v, err := config.InitViper(configDir)
			if err != nil {
				return err
			}

			config.BindRegisteredFlags(v, cmd, serveFlags, serveFlagKeys)
			cmder.v = v
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %v", err)
			}
			return cmder.run(cmd)
		},
	}

	config.AddStringFlag(cmd, serveFlags, config.FlagAPIListen, &cmder.listen)
	config.AddStringFlag(cmd, serveFlags, config.FlagVectorStoreProv, &cmder.provider)
	config.AddUintFlag(cmd, serveFlags, config.FlagDimensions, &cmder.dimensions)
	config.AddStringFlag(cmd, serveFlags, config.FlagPostgresDSN, &cmder.postgresDSN)
	config.AddStringFlag(cmd, serveFlags, config.FlagSQLitePath, &cmder.sqlitePath)
	config.AddStringFlag(cmd, serveFlags, config.FlagEmbeddingProv, &cmder.embeddingProvider)
	config.AddStringFlag(cmd, serveFlags, config.FlagEmbeddingTgt, &cmder.embeddingTarget)
	config.AddStringFlag(cmd, serveFlags, config.FlagBlobProv, &cmder.blobProvider)

	return cmd
}

func (c *ServeCommander) run(cmd *cobra.Command) error {
	c.logger = logger.NewLogger(c.debug)
	defer c.logger.Sync()

	ctx := cmd.Context()
	v := c.v

	// Create the configured vector store
	store, err := vectorutils.NewStore(ctx, storeopts.FromViper(v, c.logger))
	if err != nil {
		return fmt.Errorf("creating vector store: %w", err)
	}
	defer store.Close()

	if err := store.Initialize(ctx); err != nil {
		return fmt.Errorf("initializing vector store: %w", err)
	}

	// Create the embedder
	embedder, err := embeddingutils.NewEmbedder(&embeddingutils.NewEmbedderOpts{
		ProviderType: v.GetString("embedding.provider"),
		TargetURL:    v.GetString("embedding.target"),
		Model:        v.GetString("embedding.model"),
	})
	if err != nil {
		return fmt.Errorf("creating embedder: %w", err)
	}
	defer embedder.Close()

	// Create the blob store
	blobs, err := blobutils.NewStore(ctx, &blobutils.NewStoreOpts{
		Provider: v.GetString("blob.provider"),
		MinIO: miniostore.Config{
			Endpoint:  v.GetString("blob.endpoint"),
			AccessKey: v.GetString("blob.access_key"),
			SecretKey: v.GetString("blob.secret_key"),
			UseSSL:    v.GetBool("blob.use_ssl"),
			Bucket:    v.GetString("blob.bucket"),
		},
		FSRoot: v.GetString("blob.root"),
	})
	if err != nil {
		return fmt.Errorf("creating blob store: %w", err)
	}

	apiConfig := api.Config{
		ListenAddr: v.GetString("api.listen"),
	}
	server := api.NewServer(apiConfig, store, embedder, blobs, c.logger)

	c.logger.Info("serving",
		zap.String("listen", apiConfig.ListenAddr),
		zap.String("backend", store.Name()),
		zap.Uint("dimensions", v.GetUint("vector_store.dimensions")),
	)

	errChan := make(chan error, 1)
	go func() {
		if err := server.Run(); err != nil {
			errChan <- fmt.Errorf("API server error: %w", err)
		}
	}()

	// Wait for interrupt signal or error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		c.logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
		return server.Shutdown()
	}
}
