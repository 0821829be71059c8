package handles

import (
	"sync"
	"testing"
	"time"

	"github.com/ValentinKolb/dODBC/lib/odbc"
	"github.com/ValentinKolb/dODBC/lib/odbcerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func newTestTree() (env, conn, stmt *Handle) {
	env = NewEnvHandle(NewID(0, 1), NewEnv(EnvAllocated))
	conn = NewConnectionHandle(NewID(1, 1), NewConnection(env.ID(), ConnAllocated))
	stmt = NewStatementHandle(NewID(2, 1), NewStatement(conn.ID(), StmtAllocated))
	return env, conn, stmt
}

func TestDowncasts(t *testing.T) {
	env, conn, stmt := newTestTree()

	tests := []struct {
		name                  string
		h                     *Handle
		isEnv, isConn, isStmt bool
	}{
		{"environment", env, true, false, false},
		{"connection", conn, false, true, false},
		{"statement", stmt, false, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, ok := tt.h.AsEnv()
			assert.Equal(t, tt.isEnv, ok)
			assert.Equal(t, tt.isEnv, e != nil)

			c, ok := tt.h.AsConnection()
			assert.Equal(t, tt.isConn, ok)
			assert.Equal(t, tt.isConn, c != nil)

			s, ok := tt.h.AsStatement()
			assert.Equal(t, tt.isStmt, ok)
			assert.Equal(t, tt.isStmt, s != nil)
		})
	}

	assert.Equal(t, odbc.HandleEnv, env.Kind())
	assert.Equal(t, odbc.HandleDbc, conn.Kind())
	assert.Equal(t, odbc.HandleStmt, stmt.Kind())
}

func TestDiagnostics(t *testing.T) {
	env, conn, stmt := newTestTree()

	for _, h := range []*Handle{env, conn, stmt} {
		t.Run(h.Kind().String(), func(t *testing.T) {
			e1 := odbcerr.General("first")
			e2 := odbcerr.General("second")

			h.AddDiagnostic(e1)
			h.AddDiagnostic(e2)
			assert.Equal(t, []error{e1, e2}, h.Diagnostics())

			h.ClearDiagnostics()
			assert.Empty(t, h.Diagnostics())

			// the log stays usable after a clear
			h.AddDiagnostic(e2)
			assert.Equal(t, []error{e2}, h.Diagnostics())
			h.ClearDiagnostics()
		})
	}
}

func TestDiagnosticsCopy(t *testing.T) {
	_, conn, _ := newTestTree()
	conn.AddDiagnostic(odbcerr.General("a"))

	records := conn.Diagnostics()
	records[0] = nil
	assert.NotNil(t, conn.Diagnostics()[0])
}

func TestConnectionScenario(t *testing.T) {
	env := NewEnvHandle(NewID(0, 1), NewEnv(EnvAllocated))
	conn := NewConnectionHandle(NewID(1, 1), NewConnection(env.ID(), ConnAllocated))

	rec := odbcerr.General("test")
	conn.AddDiagnostic(rec)
	assert.Equal(t, []error{rec}, conn.Diagnostics())
	assert.Equal(t, "HY000", rec.SQLState)

	conn.ClearDiagnostics()
	assert.Empty(t, conn.Diagnostics())

	_, ok := env.AsConnection()
	assert.False(t, ok)
	_, ok = env.AsEnv()
	assert.True(t, ok)

	c, _ := conn.AsConnection()
	require.NoError(t, c.Read(func(c *Connection) {
		assert.Equal(t, env.ID(), c.Env())
		assert.Nil(t, c.Attributes.CurrentDB)
		assert.Equal(t, ConnAllocated, c.State)
	}))
}

func TestEnvDefaults(t *testing.T) {
	env, _, _ := newTestTree()
	e, _ := env.AsEnv()

	require.NoError(t, e.Read(func(e *Env) {
		assert.Equal(t, odbc.OdbcVersion3_80, e.Attributes.ODBCVersion)
		assert.Equal(t, odbc.True, e.Attributes.OutputNTS)
		assert.Equal(t, odbc.PoolingOff, e.Attributes.ConnectionPooling)
		assert.Equal(t, odbc.CpStrictMatch, e.Attributes.CPMatch)
		assert.Equal(t, EnvAllocated, e.State)
		assert.Zero(t, e.NumConnections())
		assert.Zero(t, e.Errors.Len())
	}))
}

func TestStatementDefaults(t *testing.T) {
	_, _, stmt := newTestTree()
	s, _ := stmt.AsStatement()

	require.NoError(t, s.Read(func(s *Statement) {
		a := s.Attributes
		assert.Equal(t, StmtAllocated, s.State)
		assert.Zero(t, s.Errors.Len())

		assert.Equal(t, uint64(1), a.RowArraySize)
		assert.Equal(t, odbc.CursorForwardOnly, a.CursorType)
		assert.Equal(t, odbc.ConcurReadOnly, a.Concurrency)
		assert.Equal(t, odbc.NonScrollable, a.CursorScrollable)
		assert.Equal(t, odbc.Insensitive, a.CursorSensitivity)
		assert.Equal(t, odbc.AsyncEnableOff, a.AsyncEnable)
		assert.Equal(t, odbc.False, a.EnableAutoIPD)
		assert.Equal(t, odbc.NoScanOff, a.NoScan)
		assert.Equal(t, odbc.RetrieveDataOff, a.RetrieveData)
		assert.Equal(t, odbc.BindByColumn, a.ParamBindType)
		assert.Equal(t, odbc.BindByColumn, a.RowBindType)
		assert.Equal(t, odbc.SimulateCursorNonUnique, a.SimulateCursor)
		assert.Equal(t, odbc.UseBookmarksOff, a.UseBookmarks)

		for name, v := range map[string]uint64{
			"MaxLength":    a.MaxLength,
			"MaxRows":      a.MaxRows,
			"ParamsetSize": a.ParamsetSize,
			"QueryTimeout": a.QueryTimeout,
			"RowNumber":    a.RowNumber,
		} {
			assert.Zero(t, v, name)
		}
		for name, p := range map[string]uintptr{
			"AppRowDesc":         a.AppRowDesc,
			"AppParamDesc":       a.AppParamDesc,
			"AsyncStmtEvent":     a.AsyncStmtEvent,
			"FetchBookmarkPtr":   a.FetchBookmarkPtr,
			"ImpRowDesc":         a.ImpRowDesc,
			"ImpParamDesc":       a.ImpParamDesc,
			"ParamBindOffsetPtr": a.ParamBindOffsetPtr,
			"ParamOperationPtr":  a.ParamOperationPtr,
			"ParamProcessedPtr":  a.ParamProcessedPtr,
			"ParamStatusPtr":     a.ParamStatusPtr,
			"RowBindOffsetPtr":   a.RowBindOffsetPtr,
			"RowOperationPtr":    a.RowOperationPtr,
			"RowStatusPtr":       a.RowStatusPtr,
			"RowsFetchedPtr":     a.RowsFetchedPtr,
		} {
			assert.Zero(t, p, name)
		}
	}))
}

func TestStatementsDoNotShareAttributes(t *testing.T) {
	a := NewStatement(NewID(1, 1), StmtAllocated)
	b := NewStatement(NewID(1, 1), StmtAllocated)
	a.Attributes.RowArraySize = 50
	assert.Equal(t, uint64(1), b.Attributes.RowArraySize)
}

func TestSetThenGet(t *testing.T) {
	env, conn, stmt := newTestTree()

	e, _ := env.AsEnv()
	require.NoError(t, e.Write(func(e *Env) {
		e.Attributes.ODBCVersion = odbc.OdbcVersion3
		e.Attributes.ConnectionPooling = odbc.PoolingOnePerHEnv
	}))
	require.NoError(t, e.Read(func(e *Env) {
		assert.Equal(t, odbc.OdbcVersion3, e.Attributes.ODBCVersion)
		assert.Equal(t, odbc.PoolingOnePerHEnv, e.Attributes.ConnectionPooling)
	}))

	db := "sales"
	c, _ := conn.AsConnection()
	require.NoError(t, c.Write(func(c *Connection) { c.Attributes.CurrentDB = &db }))
	require.NoError(t, c.Read(func(c *Connection) {
		require.NotNil(t, c.Attributes.CurrentDB)
		assert.Equal(t, "sales", *c.Attributes.CurrentDB)
	}))

	s, _ := stmt.AsStatement()
	require.NoError(t, s.Write(func(s *Statement) {
		s.Attributes.RowsFetchedPtr = 0xdeadbeef
		s.Attributes.CursorType = odbc.CursorStatic
		s.State = StmtAsyncCancelled
	}))
	require.NoError(t, s.Read(func(s *Statement) {
		assert.Equal(t, uintptr(0xdeadbeef), s.Attributes.RowsFetchedPtr)
		assert.Equal(t, odbc.CursorStatic, s.Attributes.CursorType)
		assert.Equal(t, StmtAsyncCancelled, s.State)
	}))
}

func TestChildSets(t *testing.T) {
	e := NewEnv(EnvAllocated)
	e.AddConnection(NewID(3, 1))
	e.AddConnection(NewID(1, 2))
	e.AddConnection(NewID(3, 1))
	assert.Equal(t, 2, e.NumConnections())
	assert.Equal(t, []ID{NewID(3, 1), NewID(1, 2)}, e.Connections())
	e.RemoveConnection(NewID(3, 1))
	assert.False(t, e.HasConnection(NewID(3, 1)))
	assert.True(t, e.HasConnection(NewID(1, 2)))

	c := NewConnection(NewID(0, 1), ConnConnected)
	c.AddStatement(NewID(5, 1))
	assert.True(t, c.HasStatement(NewID(5, 1)))
	assert.Equal(t, []ID{NewID(5, 1)}, c.Statements())
	c.RemoveStatement(NewID(5, 1))
	assert.Zero(t, c.NumStatements())
}

func TestStateNames(t *testing.T) {
	assert.Equal(t, "ConnectionAllocated", EnvConnectionAllocated.String())
	assert.Equal(t, "StatementAllocated", ConnStatementAllocated.String())
	assert.Equal(t, "AsyncCancelled", StmtAsyncCancelled.String())
	assert.Equal(t, "Unknown", StatementState(42).String())
	assert.True(t, ConnNeedsData.IsReserved())
	assert.True(t, ConnTransactionInProgress.IsReserved())
	assert.False(t, ConnConnected.IsReserved())
}

func TestID(t *testing.T) {
	id := NewID(7, 3)
	assert.Equal(t, uint32(7), id.Index())
	assert.Equal(t, uint32(3), id.Generation())
	assert.Equal(t, "7.3", id.String())
	assert.False(t, id.IsZero())
	assert.True(t, ID(0).IsZero())
	assert.NotEqual(t, NewID(7, 3), NewID(7, 4))
}

func TestPoisoning(t *testing.T) {
	env, conn, stmt := newTestTree()
	s, _ := stmt.AsStatement()

	err := s.Write(func(s *Statement) {
		s.State = StmtExecuting
		panic("driver bug")
	})
	require.Error(t, err)
	assert.True(t, odbcerr.Is(err, odbcerr.RetCPoisoned))
	assert.True(t, stmt.Poisoned())

	// only the failing node is affected
	assert.False(t, conn.Poisoned())
	assert.False(t, env.Poisoned())
	assert.NoError(t, conn.Healthy())

	assert.ErrorIs(t, s.Read(func(*Statement) {}), odbcerr.ErrPoisoned)
	assert.ErrorIs(t, s.Write(func(*Statement) {}), odbcerr.ErrPoisoned)

	// diagnostics keep working
	stmt.ClearDiagnostics()
	assert.ErrorIs(t, stmt.Healthy(), odbcerr.ErrPoisoned)
	assert.Equal(t, []error{odbcerr.ErrPoisoned}, stmt.Diagnostics())
}

func TestHealthyRecordsPoisonOnce(t *testing.T) {
	_, _, stmt := newTestTree()
	s, _ := stmt.AsStatement()
	require.Error(t, s.Write(func(*Statement) { panic("driver bug") }))

	for i := 0; i < 3; i++ {
		assert.ErrorIs(t, stmt.Healthy(), odbcerr.ErrPoisoned)
	}
	assert.Equal(t, []error{odbcerr.ErrPoisoned}, stmt.Diagnostics())

	// a newer record pushes the fatal one down, so it is reported again
	stmt.AddDiagnostic(odbcerr.General("retry"))
	assert.ErrorIs(t, stmt.Healthy(), odbcerr.ErrPoisoned)
	assert.ErrorIs(t, stmt.Healthy(), odbcerr.ErrPoisoned)
	diags := stmt.Diagnostics()
	require.Len(t, diags, 3)
	assert.Equal(t, odbcerr.ErrPoisoned, diags[2])
}

func TestStatementHandleOwnsAttributes(t *testing.T) {
	payload := NewStatement(NewID(1, 1), StmtAllocated)
	stmt := NewStatementHandle(NewID(2, 1), payload)

	// writes through the caller's copy must not reach the node
	payload.Attributes.MaxRows = 99

	s, _ := stmt.AsStatement()
	require.NoError(t, s.Read(func(s *Statement) {
		assert.Equal(t, uint64(0), s.Attributes.MaxRows)
		assert.NotSame(t, payload.Attributes, s.Attributes)
	}))

	// a payload without attributes gets the defaults
	bare := NewStatementHandle(NewID(3, 1), Statement{State: StmtAllocated})
	b, _ := bare.AsStatement()
	require.NoError(t, b.Read(func(s *Statement) {
		assert.Equal(t, uint64(1), s.Attributes.RowArraySize)
	}))
}

func TestReaderPanicDoesNotPoison(t *testing.T) {
	env, _, _ := newTestTree()
	e, _ := env.AsEnv()

	err := e.Read(func(*Env) { panic("reader bug") })
	require.Error(t, err)
	assert.True(t, odbcerr.Is(err, odbcerr.RetCInternalError))
	assert.False(t, env.Poisoned())
	assert.NoError(t, e.Write(func(e *Env) { e.State = EnvConnectionAllocated }))
}

// TestConcurrentReaders checks that shared readers hold the lock at the
// same time: every reader waits inside Read until all of them are inside.
func TestConcurrentReaders(t *testing.T) {
	const readers = 8
	_, _, stmt := newTestTree()
	s, _ := stmt.AsStatement()

	var inside sync.WaitGroup
	inside.Add(readers)

	done := make(chan error, 1)
	go func() {
		var g errgroup.Group
		for i := 0; i < readers; i++ {
			g.Go(func() error {
				return s.Read(func(*Statement) {
					inside.Done()
					inside.Wait()
				})
			})
		}
		done <- g.Wait()
	}()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("shared readers blocked each other")
	}
}

// TestWritesAreAtomic checks that readers never see a half-applied write.
func TestWritesAreAtomic(t *testing.T) {
	_, _, stmt := newTestTree()
	s, _ := stmt.AsStatement()

	var g errgroup.Group
	g.Go(func() error {
		for i := uint64(1); i <= 2000; i++ {
			if err := s.Write(func(s *Statement) {
				s.Attributes.MaxRows = i
				s.Attributes.MaxLength = i
			}); err != nil {
				return err
			}
		}
		return nil
	})
	for r := 0; r < 4; r++ {
		g.Go(func() error {
			for i := 0; i < 2000; i++ {
				var rows, length uint64
				if err := s.Read(func(s *Statement) {
					rows, length = s.Attributes.MaxRows, s.Attributes.MaxLength
				}); err != nil {
					return err
				}
				if rows != length {
					return odbcerr.General("torn read: %d != %d", rows, length)
				}
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	require.NoError(t, s.Read(func(s *Statement) {
		assert.Equal(t, uint64(2000), s.Attributes.MaxRows)
	}))
}

func TestConcurrentDiagnostics(t *testing.T) {
	_, conn, _ := newTestTree()

	var g errgroup.Group
	for i := 0; i < 10; i++ {
		g.Go(func() error {
			for j := 0; j < 100; j++ {
				conn.AddDiagnostic(odbcerr.General("record"))
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
	assert.Len(t, conn.Diagnostics(), 1000)

	conn.ClearDiagnostics()
	assert.Empty(t, conn.Diagnostics())
}
