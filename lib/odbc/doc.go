// Package odbc holds the API-visible vocabulary of the driver: the opaque
// handle token types, the SQL_HANDLE_* discriminators, SQLRETURN codes and
// the enumerations used as attribute values at Environment, Connection and
// Statement level.
//
// The package has no behavior of its own. It is imported by the handle core
// (lib/handles), the handle table (lib/registry) and by the entry point layer
// that translates these values to and from the C calling convention.
package odbc
