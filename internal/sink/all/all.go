// Package all wires all built-in warehouse backends into the sink factory.
//
// This package exists purely for side effects: importing it (even as a blank
// import) runs the init functions of each concrete backend, which register
// their factories with the sink package.
//
// Importing this package makes the following warehouse kinds available:
//
//   - "postgres" (moviesetl/internal/sink/postgres)
//   - "sqlite"   (moviesetl/internal/sink/sqlite)
//   - "mssql"    (moviesetl/internal/sink/mssql)
//
// Typical usage, in cmd/moviesetl/main.go or a similar wiring layer:
//
//	import _ "moviesetl/internal/sink/all" // enable all built-in backends
//
// A binary that only needs one backend can blank-import that backend's
// package directly instead of this one.
package all

import (
	_ "moviesetl/internal/sink/mssql"
	_ "moviesetl/internal/sink/postgres"
	_ "moviesetl/internal/sink/sqlite"
)
