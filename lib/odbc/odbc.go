package odbc

import "strconv"

// --------------------------------------------------------------------------
// Opaque handle tokens
// --------------------------------------------------------------------------

// Handle is the generic opaque token handed to callers of the driver.
// The typed flavors below carry the same bits; they only document what the
// caller claims the token refers to.
type Handle uintptr

type (
	HEnv  Handle // environment token
	HDbc  Handle // connection token
	HStmt Handle // statement token
)

// NullHandle is SQL_NULL_HANDLE.
const NullHandle Handle = 0

// HandleType is the SQL_HANDLE_* discriminator.
type HandleType int16

const (
	HandleEnv  HandleType = 1
	HandleDbc  HandleType = 2
	HandleStmt HandleType = 3
	HandleDesc HandleType = 4
)

func (t HandleType) String() string {
	switch t {
	case HandleEnv:
		return "SQL_HANDLE_ENV"
	case HandleDbc:
		return "SQL_HANDLE_DBC"
	case HandleStmt:
		return "SQL_HANDLE_STMT"
	case HandleDesc:
		return "SQL_HANDLE_DESC"
	default:
		return "SQL_HANDLE_UNKNOWN(" + strconv.Itoa(int(t)) + ")"
	}
}

// --------------------------------------------------------------------------
// Return codes
// --------------------------------------------------------------------------

// SQLReturn is the SQLRETURN value of an entry point.
type SQLReturn int16

const (
	Success         SQLReturn = 0
	SuccessWithInfo SQLReturn = 1
	StillExecuting  SQLReturn = 2
	NeedData        SQLReturn = 99
	NoData          SQLReturn = 100
	Error           SQLReturn = -1
	InvalidHandle   SQLReturn = -2
)

// --------------------------------------------------------------------------
// Attribute value enumerations
// --------------------------------------------------------------------------

// OdbcVersion is the value of SQL_ATTR_ODBC_VERSION.
type OdbcVersion int32

const (
	OdbcVersion2    OdbcVersion = 2
	OdbcVersion3    OdbcVersion = 3
	OdbcVersion3_80 OdbcVersion = 380
)

func (v OdbcVersion) String() string {
	switch v {
	case OdbcVersion2:
		return "SQL_OV_ODBC2"
	case OdbcVersion3:
		return "SQL_OV_ODBC3"
	case OdbcVersion3_80:
		return "SQL_OV_ODBC3_80"
	default:
		return strconv.Itoa(int(v))
	}
}

// SqlBool is SQL_TRUE / SQL_FALSE.
type SqlBool int32

const (
	False SqlBool = 0
	True  SqlBool = 1
)

func (b SqlBool) String() string {
	if b == False {
		return "SQL_FALSE"
	}
	return "SQL_TRUE"
}

// ConnectionPooling is the value of SQL_ATTR_CONNECTION_POOLING.
type ConnectionPooling uint32

const (
	PoolingOff          ConnectionPooling = 0
	PoolingOnePerDriver ConnectionPooling = 1
	PoolingOnePerHEnv   ConnectionPooling = 2
	PoolingDriverAware  ConnectionPooling = 3
)

func (p ConnectionPooling) String() string {
	switch p {
	case PoolingOff:
		return "SQL_CP_OFF"
	case PoolingOnePerDriver:
		return "SQL_CP_ONE_PER_DRIVER"
	case PoolingOnePerHEnv:
		return "SQL_CP_ONE_PER_HENV"
	case PoolingDriverAware:
		return "SQL_CP_DRIVER_AWARE"
	default:
		return strconv.FormatUint(uint64(p), 10)
	}
}

// CpMatch is the value of SQL_ATTR_CP_MATCH.
type CpMatch uint32

const (
	CpStrictMatch  CpMatch = 0
	CpRelaxedMatch CpMatch = 1
)

func (m CpMatch) String() string {
	if m == CpStrictMatch {
		return "SQL_CP_STRICT_MATCH"
	}
	return "SQL_CP_RELAXED_MATCH"
}

// AsyncEnable is the value of SQL_ATTR_ASYNC_ENABLE.
type AsyncEnable uint64

const (
	AsyncEnableOff AsyncEnable = 0
	AsyncEnableOn  AsyncEnable = 1
)

// CursorScrollable is the value of SQL_ATTR_CURSOR_SCROLLABLE.
type CursorScrollable uint64

const (
	NonScrollable CursorScrollable = 0
	Scrollable    CursorScrollable = 1
)

// CursorSensitivity is the value of SQL_ATTR_CURSOR_SENSITIVITY.
type CursorSensitivity uint64

const (
	SensitivityUnspecified CursorSensitivity = 0
	Insensitive            CursorSensitivity = 1
	Sensitive              CursorSensitivity = 2
)

// Concurrency is the value of SQL_ATTR_CONCURRENCY.
type Concurrency uint64

const (
	ConcurReadOnly Concurrency = 1
	ConcurLock     Concurrency = 2
	ConcurRowVer   Concurrency = 3
	ConcurValues   Concurrency = 4
)

// CursorType is the value of SQL_ATTR_CURSOR_TYPE.
type CursorType uint64

const (
	CursorForwardOnly  CursorType = 0
	CursorKeysetDriven CursorType = 1
	CursorDynamic      CursorType = 2
	CursorStatic       CursorType = 3
)

// NoScan is the value of SQL_ATTR_NOSCAN.
type NoScan uint64

const (
	NoScanOff NoScan = 0
	NoScanOn  NoScan = 1
)

// RetrieveData is the value of SQL_ATTR_RETRIEVE_DATA.
type RetrieveData uint64

const (
	RetrieveDataOff RetrieveData = 0
	RetrieveDataOn  RetrieveData = 1
)

// UseBookmarks is the value of SQL_ATTR_USE_BOOKMARKS.
type UseBookmarks uint64

const (
	UseBookmarksOff      UseBookmarks = 0
	UseBookmarksVariable UseBookmarks = 2
)

// BindByColumn is SQL_BIND_BY_COLUMN for SQL_ATTR_PARAM_BIND_TYPE and
// SQL_ATTR_ROW_BIND_TYPE. Any other value is a row-wise binding struct size.
const BindByColumn uint64 = 0

// SimulateCursor is the value of SQL_ATTR_SIMULATE_CURSOR.
type SimulateCursor uint64

const (
	SimulateCursorNonUnique SimulateCursor = 0
	SimulateCursorTryUnique SimulateCursor = 1
	SimulateCursorUnique    SimulateCursor = 2
)
