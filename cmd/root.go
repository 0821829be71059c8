package cmd

import (
	"fmt"
	"os"

	"github.com/ValentinKolb/dODBC/cmd/inspect"
	"github.com/ValentinKolb/dODBC/cmd/perf"
	"github.com/ValentinKolb/dODBC/cmd/util"
	"github.com/ValentinKolb/dODBC/lib/common"
	"github.com/ValentinKolb/dODBC/lib/registry"
	"github.com/spf13/cobra"
)

const (
	Version = "0.3.0"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "dodbc",
		Short: "ODBC driver core for document databases",
		Long: fmt.Sprintf(`dODBC (v%s)

The handle, state and diagnostics core of an ODBC driver that fronts
a document database. This tool inspects the handle table and measures
the lock behavior of the driver core.`, Version),
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return util.BindCommandFlags(cmd)
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			registry.Teardown()
			common.SyncLoggers()
		},
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of dODBC",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("dODBC v%s\n", Version)
		},
	}
)

func init() {
	cobra.OnInitialize(util.InitConfig)

	// Add Commands
	RootCmd.AddCommand(inspect.InspectCmd)
	RootCmd.AddCommand(perf.PerfCmd)
	RootCmd.AddCommand(versionCmd)

	// Add Flags
	util.SetupDriverFlags(RootCmd)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
