package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/papercomputeco/lens/pkg/dotdir"
)

// InitViper creates and returns a configured *viper.Viper.
// It sets defaults from NewDefaultConfig(), reads the config.toml file
// (if found via dotdir resolution), and binds environment variables
// with the LENS_ prefix.
//
// Config precedence (highest to lowest):
//  1. CLI flags (once bound via BindRegisteredFlags)
//  2. Environment variables (LENS_API_LISTEN, LENS_POSTGRES_DSN, etc.)
//  3. config.toml file values
//  4. Defaults from NewDefaultConfig()
func InitViper(configDir string) (*viper.Viper, error) {
	v := viper.New()

	// 1. Register all defaults from NewDefaultConfig().
	setViperDefaults(v)

	// 2. Config file discovery via dotdir resolution.
	v.SetConfigName("config")
	v.SetConfigType("toml")

	ddm := dotdir.NewManager()
	target, err := ddm.Target(configDir)
	if err != nil {
		return nil, fmt.Errorf("resolving config dir: %w", err)
	}

	if target != "" {
		v.AddConfigPath(target)
	}

	if err := v.ReadInConfig(); err != nil {
		// Config file not found errors are fine, defaults will apply.
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	// 3. Environment variables: LENS_API_LISTEN, LENS_SQLITE_PATH, etc.
	v.SetEnvPrefix("LENS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v, nil
}

// setViperDefaults registers defaults from NewDefaultConfig() into viper
// using dotted-key notation. This keeps defaults.go as the single source of truth.
func setViperDefaults(v *viper.Viper) {
	d := NewDefaultConfig()

	v.SetDefault("version", d.Version)

	// Vector store
	v.SetDefault("vector_store.provider", d.VectorStore.Provider)
	v.SetDefault("vector_store.dimensions", d.VectorStore.Dimensions)
	v.SetDefault("vector_store.table", d.VectorStore.Table)

	// Postgres
	v.SetDefault("postgres.dsn", d.Postgres.DSN)

	// AlloyDB
	v.SetDefault("alloydb.instance_uri", d.AlloyDB.InstanceURI)
	v.SetDefault("alloydb.user", d.AlloyDB.User)
	v.SetDefault("alloydb.password", d.AlloyDB.Password)
	v.SetDefault("alloydb.database", d.AlloyDB.Database)
	v.SetDefault("alloydb.public_ip", d.AlloyDB.PublicIP)

	// SQLite
	v.SetDefault("sqlite.path", d.SQLite.Path)

	// Qdrant
	v.SetDefault("qdrant.host", d.Qdrant.Host)
	v.SetDefault("qdrant.port", d.Qdrant.Port)
	v.SetDefault("qdrant.api_key", d.Qdrant.APIKey)
	v.SetDefault("qdrant.use_tls", d.Qdrant.UseTLS)
	v.SetDefault("qdrant.collection", d.Qdrant.Collection)

	// Embedding
	v.SetDefault("embedding.provider", d.Embedding.Provider)
	v.SetDefault("embedding.target", d.Embedding.Target)
	v.SetDefault("embedding.model", d.Embedding.Model)

	// Blob
	v.SetDefault("blob.provider", d.Blob.Provider)
	v.SetDefault("blob.endpoint", d.Blob.Endpoint)
	v.SetDefault("blob.access_key", d.Blob.AccessKey)
	v.SetDefault("blob.secret_key", d.Blob.SecretKey)
	v.SetDefault("blob.bucket", d.Blob.Bucket)
	v.SetDefault("blob.use_ssl", d.Blob.UseSSL)
	v.SetDefault("blob.root", d.Blob.Root)

	// API
	v.SetDefault("api.listen", d.API.Listen)
}
