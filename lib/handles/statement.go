package handles

import "github.com/ValentinKolb/dODBC/lib/odbc"

// --------------------------------------------------------------------------
// Statement
// --------------------------------------------------------------------------

// StatementState is the lifecycle state of a statement.
type StatementState int

const (
	StmtAllocated                  StatementState = iota // S1
	StmtPrepared                                         // S2: prepared, no result set
	StmtPreparedHasResultSet                             // S3
	StmtExecutedNoResultSet                              // S4
	StmtExecutedHasResultSet                             // S5
	StmtCursorFetchSet                                   // S6: SQLFetch / SQLFetchScroll
	StmtCursorExtendedFetchSet                           // S7: SQLExtendedFetch
	StmtFunctionNeedsDataNoParam                         // S8
	StmtFunctionNeedsDataNoPut                           // S9
	StmtFunctionNeedsDataPutCalled                       // S10
	StmtExecuting                                        // S11
	StmtAsyncCancelled                                   // S12
)

var statementStateNames = [...]string{
	StmtAllocated:                  "Allocated",
	StmtPrepared:                   "Prepared",
	StmtPreparedHasResultSet:       "PreparedHasResultSet",
	StmtExecutedNoResultSet:        "ExecutedNoResultSet",
	StmtExecutedHasResultSet:       "ExecutedHasResultSet",
	StmtCursorFetchSet:             "CursorFetchSet",
	StmtCursorExtendedFetchSet:     "CursorExtendedFetchSet",
	StmtFunctionNeedsDataNoParam:   "FunctionNeedsDataNoParam",
	StmtFunctionNeedsDataNoPut:     "FunctionNeedsDataNoPut",
	StmtFunctionNeedsDataPutCalled: "FunctionNeedsDataPutCalled",
	StmtExecuting:                  "Executing",
	StmtAsyncCancelled:             "AsyncCancelled",
}

func (s StatementState) String() string {
	if s < 0 || int(s) >= len(statementStateNames) {
		return "Unknown"
	}
	return statementStateNames[s]
}

// StatementAttributes are the values behind SQLSetStmtAttr / SQLGetStmtAttr.
//
// Fields ending in Ptr and the descriptor fields hold addresses of buffers
// owned by the application. They are stored and handed back verbatim and
// are never dereferenced by the driver core; 0 is the null pointer.
type StatementAttributes struct {
	AppRowDesc         uintptr
	AppParamDesc       uintptr
	AsyncEnable        odbc.AsyncEnable
	AsyncStmtEvent     uintptr
	CursorScrollable   odbc.CursorScrollable
	CursorSensitivity  odbc.CursorSensitivity
	Concurrency        odbc.Concurrency
	CursorType         odbc.CursorType
	EnableAutoIPD      odbc.SqlBool
	FetchBookmarkPtr   uintptr
	ImpRowDesc         uintptr
	ImpParamDesc       uintptr
	MaxLength          uint64
	MaxRows            uint64
	NoScan             odbc.NoScan
	ParamBindOffsetPtr uintptr
	ParamBindType      uint64
	ParamOperationPtr  uintptr
	ParamProcessedPtr  uintptr
	ParamStatusPtr     uintptr
	ParamsetSize       uint64
	QueryTimeout       uint64
	RetrieveData       odbc.RetrieveData
	RowArraySize       uint64
	RowBindOffsetPtr   uintptr
	RowBindType        uint64
	RowNumber          uint64
	RowOperationPtr    uintptr
	RowStatusPtr       uintptr
	RowsFetchedPtr     uintptr
	SimulateCursor     odbc.SimulateCursor
	UseBookmarks       odbc.UseBookmarks
}

// DefaultStatementAttributes returns the attributes of a fresh statement.
// Zero-valued fields are listed on purpose so the table reads like the
// attribute defaults of the ODBC reference.
func DefaultStatementAttributes() StatementAttributes {
	return StatementAttributes{
		AppRowDesc:         0,
		AppParamDesc:       0,
		AsyncEnable:        odbc.AsyncEnableOff,
		AsyncStmtEvent:     0,
		CursorScrollable:   odbc.NonScrollable,
		CursorSensitivity:  odbc.Insensitive,
		Concurrency:        odbc.ConcurReadOnly,
		CursorType:         odbc.CursorForwardOnly,
		EnableAutoIPD:      odbc.False,
		FetchBookmarkPtr:   0,
		ImpRowDesc:         0,
		ImpParamDesc:       0,
		MaxLength:          0,
		MaxRows:            0,
		NoScan:             odbc.NoScanOff,
		ParamBindOffsetPtr: 0,
		ParamBindType:      odbc.BindByColumn,
		ParamOperationPtr:  0,
		ParamProcessedPtr:  0,
		ParamStatusPtr:     0,
		ParamsetSize:       0,
		QueryTimeout:       0,
		RetrieveData:       odbc.RetrieveDataOff,
		RowArraySize:       1,
		RowBindOffsetPtr:   0,
		RowBindType:        odbc.BindByColumn,
		RowNumber:          0,
		RowOperationPtr:    0,
		RowStatusPtr:       0,
		RowsFetchedPtr:     0,
		SimulateCursor:     odbc.SimulateCursorNonUnique,
		UseBookmarks:       odbc.UseBookmarksOff,
	}
}

// Statement is the payload of a statement handle.
type Statement struct {
	// Attributes is boxed so a Handle stays small whatever its variant.
	Attributes *StatementAttributes
	State      StatementState
	Errors     DiagnosticsLog

	connection ID
}

// NewStatement creates a statement allocated from conn in the given state.
func NewStatement(conn ID, state StatementState) Statement {
	attrs := DefaultStatementAttributes()
	return Statement{
		Attributes: &attrs,
		State:      state,
		connection: conn,
	}
}

// Connection returns the connection this statement was allocated from.
func (s *Statement) Connection() ID { return s.connection }
