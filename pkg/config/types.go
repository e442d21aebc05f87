package config

import (
	"fmt"
	"strconv"
)

// Config represents the persistent lens configuration stored as config.toml
// in the .lens/ directory. The TOML layout uses sections for logical grouping.
type Config struct {
	Version     int               `toml:"version"`
	VectorStore VectorStoreConfig `toml:"vector_store"`
	Postgres    PostgresConfig    `toml:"postgres"`
	AlloyDB     AlloyDBConfig     `toml:"alloydb"`
	SQLite      SQLiteConfig      `toml:"sqlite"`
	Qdrant      QdrantConfig      `toml:"qdrant"`
	Embedding   EmbeddingConfig   `toml:"embedding"`
	Blob        BlobConfig        `toml:"blob"`
	API         APIConfig         `toml:"api"`
}

// VectorStoreConfig holds settings shared by all vector store backends.
type VectorStoreConfig struct {
	Provider   string `toml:"provider,omitempty"`
	Dimensions uint   `toml:"dimensions,omitempty"`
	Table      string `toml:"table,omitempty"`
}

// PostgresConfig holds settings for the direct Postgres backend.
type PostgresConfig struct {
	DSN string `toml:"dsn,omitempty"`
}

// AlloyDBConfig holds settings for the AlloyDB connector backend.
// InstanceURI is the full projects/<p>/locations/<l>/clusters/<c>/instances/<i> path.
type AlloyDBConfig struct {
	InstanceURI string `toml:"instance_uri,omitempty"`
	User        string `toml:"user,omitempty"`
	Password    string `toml:"password,omitempty"`
	Database    string `toml:"database,omitempty"`
	PublicIP    bool   `toml:"public_ip,omitempty"`
}

// SQLiteConfig holds settings for the embedded sqlite-vec backend.
type SQLiteConfig struct {
	Path string `toml:"path,omitempty"`
}

// QdrantConfig holds settings for the Qdrant backend.
type QdrantConfig struct {
	Host       string `toml:"host,omitempty"`
	Port       uint   `toml:"port,omitempty"`
	APIKey     string `toml:"api_key,omitempty"`
	UseTLS     bool   `toml:"use_tls,omitempty"`
	Collection string `toml:"collection,omitempty"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	Provider string `toml:"provider,omitempty"`
	Target   string `toml:"target,omitempty"`
	Model    string `toml:"model,omitempty"`
}

// BlobConfig holds blob storage settings for the original image bytes.
type BlobConfig struct {
	Provider  string `toml:"provider,omitempty"`
	Endpoint  string `toml:"endpoint,omitempty"`
	AccessKey string `toml:"access_key,omitempty"`
	SecretKey string `toml:"secret_key,omitempty"`
	Bucket    string `toml:"bucket,omitempty"`
	UseSSL    bool   `toml:"use_ssl,omitempty"`
	Root      string `toml:"root,omitempty"`
}

// APIConfig holds API server settings.
type APIConfig struct {
	Listen string `toml:"listen,omitempty"`
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"vector_store.provider": {
		get: func(c *Config) string { return c.VectorStore.Provider },
		set: func(c *Config, v string) error { c.VectorStore.Provider = v; return nil },
	},
	"vector_store.dimensions": {
		get: func(c *Config) string {
			if c.VectorStore.Dimensions == 0 {
				return ""
			}
			return strconv.FormatUint(uint64(c.VectorStore.Dimensions), 10)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value for vector_store.dimensions: %w", err)
			}
			c.VectorStore.Dimensions = uint(n)
			return nil
		},
	},
	"vector_store.table": {
		get: func(c *Config) string { return c.VectorStore.Table },
		set: func(c *Config, v string) error { c.VectorStore.Table = v; return nil },
	},
	"postgres.dsn": {
		get: func(c *Config) string { return c.Postgres.DSN },
		set: func(c *Config, v string) error { c.Postgres.DSN = v; return nil },
	},
	"alloydb.instance_uri": {
		get: func(c *Config) string { return c.AlloyDB.InstanceURI },
		set: func(c *Config, v string) error { c.AlloyDB.InstanceURI = v; return nil },
	},
	"alloydb.user": {
		get: func(c *Config) string { return c.AlloyDB.User },
		set: func(c *Config, v string) error { c.AlloyDB.User = v; return nil },
	},
	"alloydb.password": {
		get: func(c *Config) string { return c.AlloyDB.Password },
		set: func(c *Config, v string) error { c.AlloyDB.Password = v; return nil },
	},
	"alloydb.database": {
		get: func(c *Config) string { return c.AlloyDB.Database },
		set: func(c *Config, v string) error { c.AlloyDB.Database = v; return nil },
	},
	"alloydb.public_ip": {
		get: func(c *Config) string { return strconv.FormatBool(c.AlloyDB.PublicIP) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid value for alloydb.public_ip: %w", err)
			}
			c.AlloyDB.PublicIP = b
			return nil
		},
	},
	"sqlite.path": {
		get: func(c *Config) string { return c.SQLite.Path },
		set: func(c *Config, v string) error { c.SQLite.Path = v; return nil },
	},
	"qdrant.host": {
		get: func(c *Config) string { return c.Qdrant.Host },
		set: func(c *Config, v string) error { c.Qdrant.Host = v; return nil },
	},
	"qdrant.port": {
		get: func(c *Config) string {
			if c.Qdrant.Port == 0 {
				return ""
			}
			return strconv.FormatUint(uint64(c.Qdrant.Port), 10)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value for qdrant.port: %w", err)
			}
			c.Qdrant.Port = uint(n)
			return nil
		},
	},
	"qdrant.api_key": {
		get: func(c *Config) string { return c.Qdrant.APIKey },
		set: func(c *Config, v string) error { c.Qdrant.APIKey = v; return nil },
	},
	"qdrant.use_tls": {
		get: func(c *Config) string { return strconv.FormatBool(c.Qdrant.UseTLS) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid value for qdrant.use_tls: %w", err)
			}
			c.Qdrant.UseTLS = b
			return nil
		},
	},
	"qdrant.collection": {
		get: func(c *Config) string { return c.Qdrant.Collection },
		set: func(c *Config, v string) error { c.Qdrant.Collection = v; return nil },
	},
	"embedding.provider": {
		get: func(c *Config) string { return c.Embedding.Provider },
		set: func(c *Config, v string) error { c.Embedding.Provider = v; return nil },
	},
	"embedding.target": {
		get: func(c *Config) string { return c.Embedding.Target },
		set: func(c *Config, v string) error { c.Embedding.Target = v; return nil },
	},
	"embedding.model": {
		get: func(c *Config) string { return c.Embedding.Model },
		set: func(c *Config, v string) error { c.Embedding.Model = v; return nil },
	},
	"blob.provider": {
		get: func(c *Config) string { return c.Blob.Provider },
		set: func(c *Config, v string) error { c.Blob.Provider = v; return nil },
	},
	"blob.endpoint": {
		get: func(c *Config) string { return c.Blob.Endpoint },
		set: func(c *Config, v string) error { c.Blob.Endpoint = v; return nil },
	},
	"blob.access_key": {
		get: func(c *Config) string { return c.Blob.AccessKey },
		set: func(c *Config, v string) error { c.Blob.AccessKey = v; return nil },
	},
	"blob.secret_key": {
		get: func(c *Config) string { return c.Blob.SecretKey },
		set: func(c *Config, v string) error { c.Blob.SecretKey = v; return nil },
	},
	"blob.bucket": {
		get: func(c *Config) string { return c.Blob.Bucket },
		set: func(c *Config, v string) error { c.Blob.Bucket = v; return nil },
	},
	"blob.use_ssl": {
		get: func(c *Config) string { return strconv.FormatBool(c.Blob.UseSSL) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid value for blob.use_ssl: %w", err)
			}
			c.Blob.UseSSL = b
			return nil
		},
	},
	"blob.root": {
		get: func(c *Config) string { return c.Blob.Root },
		set: func(c *Config, v string) error { c.Blob.Root = v; return nil },
	},
	"api.listen": {
		get: func(c *Config) string { return c.API.Listen },
		set: func(c *Config, v string) error { c.API.Listen = v; return nil },
	},
}
