package common

import (
	"github.com/wardenbot/warden/common/config"
)

var (
	ConfPQHost     = config.RegisterOption("warden.pq.host", "Postgres host", "localhost")
	ConfPQUsername = config.RegisterOption("warden.pq.username", "Postgres user", "postgres")
	ConfPQPassword = config.RegisterOption("warden.pq.password", "Postgres password", "")
	ConfPQDB       = config.RegisterOption("warden.pq.db", "Postgres database name", "warden")

	ConfMaxSQLConns = config.RegisterOption("warden.max_sql_connections", "Max connections to postgres", 10)

	ConfRedis = config.RegisterOption("warden.redis", "Redis address", "localhost:6379")

	// Sentinel subject id substituted for users whose platform id has been
	// revoked, see settings.RetireUserID. Negative ids can never collide
	// with real platform ids.
	ConfAnonUserID = config.RegisterOption("warden.anon_user_id", "Sentinel user id for anonymized/unknown subjects", -1)

	confNoSchemaInit = config.RegisterOption("warden.no_schema_init", "Skip schema initialization and migrations", false)
)

// LoadConfig loads all registered options from the env source. The redis
// override source is layered on later, once the pool is up (CoreInit).
func LoadConfig() (err error) {
	config.AddSource(&config.EnvSource{})
	config.Load()

	return nil
}
