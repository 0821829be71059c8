// Package cmd implements the command-line interface of dODBC. It exercises
// the driver core outside of a driver manager.
//
// The package is organized into several subpackages:
//
//   - inspect: Builds a handle tree and dumps it as a snapshot together with the registry metrics
//   - perf: Measures shared and exclusive lock throughput on a statement handle
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// Configuration is read from flags and from DODBC_* environment variables
// (also from .env and .env.local files).
//
// See dodbc -help for a list of all commands.
package cmd
