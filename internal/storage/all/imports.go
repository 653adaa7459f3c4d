// Package all wires all built-in storage backends into the storage factory.
//
// This package exists purely for side effects: importing it (even as a blank
// import) causes the init functions of each concrete storage backend to run,
// which in turn register their factories and DDL renderers with the storage
// package.
//
// Importing this package makes the following storage kinds available:
//
//   - "bigquery" (bqtarget/internal/storage/bigquery)
//   - "postgres" (bqtarget/internal/storage/postgres)
//   - "mssql"    (bqtarget/internal/storage/mssql)
//   - "mysql"    (bqtarget/internal/storage/mysql)
//   - "sqlite"   (bqtarget/internal/storage/sqlite)
//   - "memory"   (bqtarget/internal/storage/memory)
//
// Typical usage, in cmd/target-bigquery or a similar wiring layer:
//
//	import (
//	    _ "bqtarget/internal/storage/all" // enable all built-in backends
//
//	    "bqtarget/internal/storage"
//	)
//
//	backend, err := storage.New(ctx, storage.Config{Kind: cfg.Storage, DSN: cfg.DSN})
//	if err != nil {
//	    // handle error
//	}
//	defer backend.Close()
//
// A binary that supports only a subset of backends can define its own wiring
// package importing just those.
package all

import (
	_ "bqtarget/internal/storage/bigquery"
	_ "bqtarget/internal/storage/memory"
	_ "bqtarget/internal/storage/mssql"
	_ "bqtarget/internal/storage/mysql"
	_ "bqtarget/internal/storage/postgres"
	_ "bqtarget/internal/storage/sqlite"
)
