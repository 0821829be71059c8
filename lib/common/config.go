package common

import (
	"fmt"
	"strings"
)

// --------------------------------------------------------------------------
// Driver configuration struct
// --------------------------------------------------------------------------

// SnapshotFormat selects the encoding of handle snapshots.
type SnapshotFormat string

const (
	SnapshotFormatJSON    SnapshotFormat = "json"
	SnapshotFormatMsgpack SnapshotFormat = "msgpack"
)

// DriverConfig holds the process-wide settings of the driver.
type DriverConfig struct {
	// Logging configuration
	LogLevel string

	// MaxHandles limits the number of live handles of a registry (0 = unlimited)
	MaxHandles int

	// Encoding used when dumping handle trees
	SnapshotFormat SnapshotFormat
}

// DefaultDriverConfig returns the configuration used when nothing is set
func DefaultDriverConfig() DriverConfig {
	return DriverConfig{
		LogLevel:       "info",
		MaxHandles:     0,
		SnapshotFormat: SnapshotFormatJSON,
	}
}

// Validate checks the configuration for invalid values
func (c *DriverConfig) Validate() error {
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return err
	}
	if c.MaxHandles < 0 {
		return fmt.Errorf("max handles must not be negative, got %d", c.MaxHandles)
	}
	switch c.SnapshotFormat {
	case SnapshotFormatJSON, SnapshotFormatMsgpack:
	default:
		return fmt.Errorf("invalid snapshot format %q. must be one of json, msgpack", c.SnapshotFormat)
	}
	return nil
}

// String returns a formatted string representation of the configuration
func (c *DriverConfig) String() string {
	var sb strings.Builder

	// Create helper functions for consistent formatting
	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	// Logging configuration
	addSection("Logging")
	addField("Log Level", c.LogLevel)

	// Registry
	addSection("Handle Registry")
	if c.MaxHandles == 0 {
		addField("Max Handles", "unlimited")
	} else {
		addField("Max Handles", fmt.Sprintf("%d", c.MaxHandles))
	}

	// Snapshots
	addSection("Snapshots")
	addField("Format", string(c.SnapshotFormat))

	return sb.String()
}
