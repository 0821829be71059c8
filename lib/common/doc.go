// Package common contains the configuration and logging setup shared by the
// driver packages and the dodbc command.
//
// Logging follows the dragonboat logger model: every package obtains a named
// logger with logger.GetLogger and InitLoggers installs a factory that backs
// these loggers with a zap JSON logger and applies the configured level.
package common
