// Package configcmder provides the config command for managing persistent
// lens configuration stored in the .lens/ directory.
package configcmder

import (
	"github.com/spf13/cobra"
)

const configLongDesc string = `Manage persistent lens configuration.

Configuration is stored as config.toml in the .lens/ directory and provides
default values for command flags. CLI flags always take precedence over
config file values.

Keys use dotted notation matching the TOML section structure:
  vector_store.provider, vector_store.dimensions, vector_store.table,
  postgres.dsn,
  alloydb.instance_uri, alloydb.user, alloydb.password, alloydb.database, alloydb.public_ip,
  sqlite.path,
  qdrant.host, qdrant.port, qdrant.api_key, qdrant.use_tls, qdrant.collection,
  embedding.provider, embedding.target, embedding.model,
  blob.provider, blob.endpoint, blob.access_key, blob.secret_key, blob.bucket, blob.use_ssl, blob.root,
  api.listen

Use subcommands to get, set, or list configuration values:
  lens config set <key> <value>    Set a configuration value
  lens config get <key>            Get a configuration value
  lens config list                 List all configuration values

Examples:
  lens config set vector_store.provider postgres
  lens config set postgres.dsn postgres://localhost:5432/lens
  lens config get vector_store.provider
  lens config list`

const configShortDesc string = "Manage persistent lens configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}
