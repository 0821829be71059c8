package inspect

import (
	"encoding/hex"
	"fmt"
	"os"

	"github.com/ValentinKolb/dODBC/cmd/util"
	"github.com/ValentinKolb/dODBC/lib/common"
	"github.com/ValentinKolb/dODBC/lib/handles"
	"github.com/ValentinKolb/dODBC/lib/odbc"
	"github.com/ValentinKolb/dODBC/lib/odbcerr"
	"github.com/ValentinKolb/dODBC/lib/registry"
	"github.com/ValentinKolb/dODBC/lib/snapshot"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	InspectCmd = &cobra.Command{
		Use:   "inspect",
		Short: "Build a sample handle tree and dump it",
		Long: util.WrapString(`Allocates an environment, a connection and a number of statements,
records a diagnostic on the first statement and prints a snapshot of
the tree followed by the registry metrics. With --format msgpack the
snapshot is printed hex encoded.`),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			return viper.BindPFlags(cmd.Flags())
		},
		RunE: run,
	}
)

func init() {
	key := "statements"
	InspectCmd.Flags().Int(key, 1, util.WrapString("Number of statements to allocate on the connection"))
	key = "database"
	InspectCmd.Flags().String(key, "", util.WrapString("Current database to set on the connection"))
	key = "poison"
	InspectCmd.Flags().Bool(key, false, util.WrapString("Poison the last statement by panicking while its lock is held"))
	key = "metrics"
	InspectCmd.Flags().Bool(key, true, util.WrapString("Print the registry metrics after the snapshot"))
}

func run(_ *cobra.Command, _ []string) error {
	config, reg, err := util.InitDriver()
	if err != nil {
		return err
	}

	henv, err := buildTree(reg, viper.GetInt("statements"), viper.GetString("database"), viper.GetBool("poison"))
	if err != nil {
		return err
	}

	tree, err := snapshot.Take(reg, odbc.Handle(henv))
	if err != nil {
		return err
	}

	serializer, err := util.GetSerializer()
	if err != nil {
		return err
	}
	b, err := serializer.Serialize(tree)
	if err != nil {
		return fmt.Errorf("failed to serialize snapshot: %v", err)
	}

	if config.SnapshotFormat == common.SnapshotFormatMsgpack {
		fmt.Println(hex.EncodeToString(b))
	} else {
		fmt.Println(string(b))
	}

	if viper.GetBool("metrics") {
		fmt.Println()
		reg.WritePrometheus(os.Stdout)
	}
	return nil
}

// buildTree allocates env -> dbc -> n statements the way a driver manager
// would. The connection is moved to Connected before statements are
// allocated.
func buildTree(reg *registry.Registry, n int, database string, poison bool) (odbc.HEnv, error) {
	henv, err := reg.AllocEnv()
	if err != nil {
		return 0, err
	}
	hdbc, err := reg.AllocConnection(henv)
	if err != nil {
		return 0, err
	}

	connH, err := reg.ResolveConnection(hdbc)
	if err != nil {
		return 0, err
	}
	conn, _ := connH.AsConnection()
	err = conn.Write(func(c *handles.Connection) {
		c.State = handles.ConnConnected
		if database != "" {
			c.Attributes.CurrentDB = &database
		}
	})
	if err != nil {
		return 0, err
	}

	var last *handles.Handle
	for i := 0; i < n; i++ {
		hstmt, err := reg.AllocStatement(hdbc)
		if err != nil {
			return 0, err
		}
		if last, err = reg.ResolveStatement(hstmt); err != nil {
			return 0, err
		}
		if i == 0 {
			last.AddDiagnostic(odbcerr.General("sample diagnostic on statement %s", last.ID()).WithNative(42))
		}
	}

	if poison && last != nil {
		stmt, _ := last.AsStatement()
		err := stmt.Write(func(*handles.Statement) { panic("poisoned by inspect") })
		last.AddDiagnostic(err)
	}

	return henv, nil
}
