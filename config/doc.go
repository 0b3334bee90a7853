// Package config loads the venue shards configuration and builds the database connections
// of the partitions.
//
// Values are read from a YAML file first. Environment variables with the prefix VENUES override
// them (for example VENUES_ADAPTER=sqlx or VENUES_POOL_MAX_CONNS=16). Unset values get defaults,
// then the result is validated.
//
// Partitions can be given in the environment as a semicolon-separated list of name=dsn pairs:
//
//	VENUES_PARTITIONS="p0=postgres://localhost:5432/venues_0;p1=postgres://localhost:5433/venues_1"
package config
