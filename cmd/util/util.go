package util

import (
	"fmt"
	"strings"

	"github.com/ValentinKolb/dODBC/lib/common"
	"github.com/ValentinKolb/dODBC/lib/registry"
	"github.com/ValentinKolb/dODBC/lib/snapshot"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	// Wrap is the number of characters to Wrap the help text at
	Wrap int = 50
)

// WrapString wraps a string at Wrap characters
func WrapString(text string) string {
	var wrappedLines []string
	var currentLine strings.Builder
	lineWidth := 0

	for _, word := range strings.Fields(text) {
		wordWidth := len(word)

		// Check if we need to wrap
		if lineWidth > 0 && lineWidth+1+wordWidth > Wrap {
			wrappedLines = append(wrappedLines, currentLine.String())
			currentLine.Reset()
			lineWidth = 0
		}

		// Add space before word (if not first word on line)
		if lineWidth > 0 {
			currentLine.WriteString(" ")
			lineWidth++
		}

		currentLine.WriteString(word)
		lineWidth += wordWidth
	}

	// Add any remaining text
	if currentLine.Len() > 0 {
		wrappedLines = append(wrappedLines, currentLine.String())
	}

	return strings.Join(wrappedLines, "\n")
}

// SetupDriverFlags adds the driver configuration flags to a command
func SetupDriverFlags(cmd *cobra.Command) {
	defaults := common.DefaultDriverConfig()

	key := "log-level"
	cmd.PersistentFlags().String(key, defaults.LogLevel, WrapString("Log level of the driver (debug, info, warn, error)"))

	key = "max-handles"
	cmd.PersistentFlags().Int(key, defaults.MaxHandles, WrapString("Maximum number of live handles, 0 means unlimited"))

	key = "format"
	cmd.PersistentFlags().String(key, string(defaults.SnapshotFormat), WrapString("Encoding of handle snapshots (json, msgpack)"))
}

// InitConfig initializes configuration from environment variables
func InitConfig() {
	// load env files
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	// initialize viper
	viper.SetEnvPrefix("dodbc")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match
}

// GetDriverConfig reads the driver configuration from viper
func GetDriverConfig() (*common.DriverConfig, error) {
	conf := &common.DriverConfig{
		LogLevel:       viper.GetString("log-level"),
		MaxHandles:     viper.GetInt("max-handles"),
		SnapshotFormat: common.SnapshotFormat(viper.GetString("format")),
	}
	if err := conf.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return conf, nil
}

// InitDriver reads the configuration, sets up logging and returns the
// process-wide registry
func InitDriver() (*common.DriverConfig, *registry.Registry, error) {
	conf, err := GetDriverConfig()
	if err != nil {
		return nil, nil, err
	}
	if err := common.InitLoggers(*conf); err != nil {
		return nil, nil, err
	}
	return conf, registry.Init(*conf), nil
}

// GetSerializer creates a snapshot serializer based on configuration
func GetSerializer() (snapshot.ISerializer, error) {
	return snapshot.NewSerializer(common.SnapshotFormat(viper.GetString("format")))
}

// BindCommandFlags binds a command's flags to viper
func BindCommandFlags(cmd *cobra.Command) error {
	return viper.BindPFlags(cmd.Flags())
}
