// Package storeopts translates resolved viper configuration into vector
// store construction options shared by the serve and seed commands.
package storeopts

import (
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/papercomputeco/lens/pkg/vector/alloydb"
	"github.com/papercomputeco/lens/pkg/vector/pgvector"
	"github.com/papercomputeco/lens/pkg/vector/qdrantvec"
	"github.com/papercomputeco/lens/pkg/vector/sqlitevec"
	vectorutils "github.com/papercomputeco/lens/pkg/vector/utils"
)

// FromViper builds store options from the resolved configuration.
func FromViper(v *viper.Viper, logger *zap.Logger) *vectorutils.NewStoreOpts {
	return &vectorutils.NewStoreOpts{
		Provider:   v.GetString("vector_store.provider"),
		Dimensions: v.GetUint("vector_store.dimensions"),
		Postgres: pgvector.Config{
			DSN:   v.GetString("postgres.dsn"),
			Table: v.GetString("vector_store.table"),
		},
		AlloyDB: alloydb.Config{
			InstanceURI: v.GetString("alloydb.instance_uri"),
			User:        v.GetString("alloydb.user"),
			Password:    v.GetString("alloydb.password"),
			Database:    v.GetString("alloydb.database"),
			PublicIP:    v.GetBool("alloydb.public_ip"),
			Table:       v.GetString("vector_store.table"),
		},
		SQLite: sqlitevec.Config{
			DBPath: v.GetString("sqlite.path"),
		},
		Qdrant: qdrantvec.Config{
			Host:       v.GetString("qdrant.host"),
			Port:       v.GetInt("qdrant.port"),
			APIKey:     v.GetString("qdrant.api_key"),
			UseTLS:     v.GetBool("qdrant.use_tls"),
			Collection: v.GetString("qdrant.collection"),
		},
		Logger: logger,
	}
}
