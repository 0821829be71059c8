package perf

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/ValentinKolb/dODBC/cmd/util"
	"github.com/ValentinKolb/dODBC/lib/common"
	"github.com/ValentinKolb/dODBC/lib/handles"
	"github.com/ValentinKolb/dODBC/lib/odbc"
	"github.com/ValentinKolb/dODBC/lib/odbcerr"
	"github.com/ValentinKolb/dODBC/lib/registry"
	"github.com/lni/dragonboat/v4/logger"
	gometrics "github.com/rcrowley/go-metrics"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var log = logger.GetLogger("cmd")

var (
	PerfCmd = &cobra.Command{
		Use:   "perf",
		Short: "Measure lock throughput of the handle core",
		Long: util.WrapString(`Runs parallel benchmarks against a single statement handle:
shared readers, exclusive writers and a mix of both, as well as handle
resolution and the alloc/free path of the registry.`),
		RunE:    run,
		PreRunE: processPerfConfig,
	}
	perfNumThreads = 10
	perfWriteRatio = 10
	perfSkip       = make([]string, 0)

	// percentiles reported for each timer
	perfPercentiles = []float64{0.5, 0.95, 0.99}
)

func init() {
	key := "skip"
	PerfCmd.Flags().String(key, "", util.WrapString("Benchmarks to skip (comma separated - e.g. read,write)"))
	key = "threads"
	PerfCmd.Flags().Int(key, 10, util.WrapString("Number of goroutines per CPU to use for the benchmark"))
	key = "write-ratio"
	PerfCmd.Flags().Int(key, 10, util.WrapString("Percentage of writers in the mixed benchmark"))
	key = "csv"
	PerfCmd.Flags().String(key, "", util.WrapString("Optional path to save benchmark results as CSV"))
}

func processPerfConfig(cmd *cobra.Command, _ []string) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	perfNumThreads = viper.GetInt("threads")
	perfWriteRatio = viper.GetInt("write-ratio")
	if perfWriteRatio < 0 || perfWriteRatio > 100 {
		return fmt.Errorf("write ratio must be between 0 and 100, got %d", perfWriteRatio)
	}
	perfSkip = strings.Split(viper.GetString("skip"), ",")

	return nil
}

// bench is one named benchmark. op is called once per iteration.
type bench struct {
	name string
	op   func(counter int) error
}

func run(_ *cobra.Command, _ []string) error {
	config, reg, err := util.InitDriver()
	if err != nil {
		return err
	}

	fmt.Println("Performance testing tool for the dODBC handle core")

	fmt.Println()
	fmt.Println("Configuration:")
	fmt.Println(config.String())
	fmt.Printf("Threads: %d\n", perfNumThreads)
	fmt.Println()

	fx, err := newFixture(reg)
	if err != nil {
		return err
	}
	defer fx.close()

	fmt.Println("staring tests...")

	benches := []bench{
		{name: "read", op: fx.read},
		{name: "write", op: fx.write},
		{name: "mixed", op: fx.mixed},
		{name: "diagnostics", op: fx.diagnostics},
		{name: "resolve", op: fx.resolve},
		{name: "alloc-free", op: fx.allocFree},
	}

	results := make(map[string]testing.BenchmarkResult)
	timers := make(map[string]gometrics.Timer)
	for _, bm := range benches {
		timer := gometrics.NewTimer()
		result := testing.Benchmark(func(b *testing.B) {
			if shouldSkip(bm.name) {
				return
			}

			b.SetParallelism(perfNumThreads)

			b.ResetTimer()

			b.RunParallel(func(pb *testing.PB) {
				counter := 0
				for pb.Next() {
					start := time.Now()
					if err := bm.op(counter); err != nil {
						log.Errorf("(%s) - %v", bm.name, err)
					}
					timer.UpdateSince(start)
					counter++
				}
			})
		})
		results[bm.name] = result
		timers[bm.name] = timer
		printResult(bm.name, result, timer)
	}

	// Write results to csv is specified
	if csvPath := viper.GetString("csv"); csvPath != "" {
		fmt.Printf("\nExporting results to CSV: %s\n", csvPath)
		if err := writeResultsToCSV(csvPath, results, timers, config); err != nil {
			return fmt.Errorf("failed to export results to CSV: %v", err)
		}
		fmt.Println("Export complete")
	}

	return nil
}

// --------------------------------------------------------------------------
// Fixture
// --------------------------------------------------------------------------

// fixture is the handle tree the benchmarks run against
type fixture struct {
	reg   *registry.Registry
	henv  odbc.HEnv
	hdbc  odbc.HDbc
	hstmt odbc.HStmt
	stmt  *handles.Handle
}

func newFixture(reg *registry.Registry) (*fixture, error) {
	fx := &fixture{reg: reg}
	var err error
	if fx.henv, err = reg.AllocEnv(); err != nil {
		return nil, err
	}
	if fx.hdbc, err = reg.AllocConnection(fx.henv); err != nil {
		return nil, err
	}
	connH, err := reg.ResolveConnection(fx.hdbc)
	if err != nil {
		return nil, err
	}
	conn, _ := connH.AsConnection()
	if err := conn.Write(func(c *handles.Connection) { c.State = handles.ConnConnected }); err != nil {
		return nil, err
	}
	if fx.hstmt, err = reg.AllocStatement(fx.hdbc); err != nil {
		return nil, err
	}
	if fx.stmt, err = reg.ResolveStatement(fx.hstmt); err != nil {
		return nil, err
	}
	return fx, nil
}

func (fx *fixture) close() {
	for _, token := range []odbc.Handle{odbc.Handle(fx.hstmt), odbc.Handle(fx.hdbc), odbc.Handle(fx.henv)} {
		if err := fx.reg.Free(token); err != nil {
			log.Warningf("failed to free benchmark handle: %v", err)
		}
	}
}

func (fx *fixture) read(int) error {
	s, _ := fx.stmt.AsStatement()
	return s.Read(func(s *handles.Statement) { _ = s.Attributes.RowArraySize })
}

func (fx *fixture) write(counter int) error {
	s, _ := fx.stmt.AsStatement()
	return s.Write(func(s *handles.Statement) { s.Attributes.MaxRows = uint64(counter) })
}

func (fx *fixture) mixed(counter int) error {
	if counter%100 < perfWriteRatio {
		return fx.write(counter)
	}
	return fx.read(counter)
}

func (fx *fixture) diagnostics(counter int) error {
	if counter%2 == 0 {
		fx.stmt.AddDiagnostic(odbcerr.General("benchmark record %d", counter))
		return nil
	}
	fx.stmt.Diagnostics()
	fx.stmt.ClearDiagnostics()
	return nil
}

func (fx *fixture) resolve(int) error {
	_, err := fx.reg.ResolveStatement(fx.hstmt)
	return err
}

func (fx *fixture) allocFree(int) error {
	hstmt, err := fx.reg.AllocStatement(fx.hdbc)
	if err != nil {
		return err
	}
	return fx.reg.Free(odbc.Handle(hstmt))
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

func shouldSkip(test string) bool {
	// Check if the test is in the skip list
	for _, skip := range perfSkip {
		if test == skip {
			return true
		}
	}
	return false
}

// printResult prints the result of a benchmark test in a formatted way
func printResult(test string, result testing.BenchmarkResult, timer gometrics.Timer) {
	if result.NsPerOp() == 0 {
		fmt.Printf("%-20sskipped\n", test)
		return
	}

	nsPerOp := math.Max(float64(result.NsPerOp()), 1) // prevent division by zero
	opsPerSec := 1.0 / (nsPerOp / 1e9)

	ps := timer.Percentiles(perfPercentiles)
	fmt.Printf("%-20s%.0fns/op (%s/op)\t%.0f ops/sec\tp50=%s p95=%s p99=%s\n",
		test, nsPerOp, time.Duration(nsPerOp), opsPerSec,
		time.Duration(ps[0]), time.Duration(ps[1]), time.Duration(ps[2]))
}

// writeResultsToCSV writes benchmark results to a CSV file
func writeResultsToCSV(csvPath string, results map[string]testing.BenchmarkResult, timers map[string]gometrics.Timer, config *common.DriverConfig) error {
	file, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %v", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	// Write header
	header := []string{
		"Test", "NsPerOp", "DurationPerOp", "OpsPerSec", "Skipped",
		"P50Ns", "P95Ns", "P99Ns",
		"MaxHandles", "Threads", "WriteRatio",
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %v", err)
	}

	// Write test results
	for test, result := range results {
		var nsPerOp float64
		var opsPerSec float64
		var skipped string

		if result.NsPerOp() == 0 {
			skipped = "true"
		} else {
			skipped = "false"
			nsPerOp = math.Max(float64(result.NsPerOp()), 1)
			opsPerSec = 1.0 / (nsPerOp / 1e9)
		}

		ps := timers[test].Percentiles(perfPercentiles)
		row := []string{
			test,
			fmt.Sprintf("%.0f", nsPerOp),
			time.Duration(nsPerOp).String(),
			fmt.Sprintf("%.0f", opsPerSec),
			skipped,
			fmt.Sprintf("%.0f", ps[0]),
			fmt.Sprintf("%.0f", ps[1]),
			fmt.Sprintf("%.0f", ps[2]),
			strconv.Itoa(config.MaxHandles),
			strconv.Itoa(perfNumThreads),
			strconv.Itoa(perfWriteRatio),
		}

		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write row for test %s: %v", test, err)
		}
	}

	return nil
}
