// Package coredb provides the shared database for the Bidcoin platform.
package coredb

import (
	"encore.dev/storage/sqldb"
)

// DB is the core database instance for the Bidcoin platform.
// It uses PostgreSQL as the underlying database engine.
var DB = sqldb.NewDatabase("coredb", sqldb.DatabaseConfig{
	Migrations: "./migrations",
})
