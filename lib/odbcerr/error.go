package odbcerr

import (
	"fmt"

	"github.com/ValentinKolb/dODBC/lib/odbc"
	"github.com/pkg/errors"
)

// --------------------------------------------------------------------------
// Return Codes
// --------------------------------------------------------------------------

type RetCode uint64

const (
	RetCSuccess           RetCode = iota // 0: Operation completed successfully.
	RetCInternalError                    // 1: Operation failed due to an internal error.
	RetCInvalidHandle                    // 2: Token is unknown or refers to a freed node.
	RetCWrongHandleType                  // 3: Token refers to a node of another kind.
	RetCPoisoned                         // 4: A writer panicked while holding the node's lock.
	RetCHandleLimit                      // 5: The configured handle limit is reached.
	RetCFunctionSequence                 // 6: The call is not allowed in the node's current state.
	RetCConnectionNotOpen                // 7: The connection is not connected.
	RetCNotInitialized                   // 8: The process-wide registry was not initialized.
)

func (c RetCode) String() string {
	switch c {
	case RetCSuccess:
		return "Success"
	case RetCInternalError:
		return "InternalError"
	case RetCInvalidHandle:
		return "InvalidHandle"
	case RetCWrongHandleType:
		return "WrongHandleType"
	case RetCPoisoned:
		return "Poisoned"
	case RetCHandleLimit:
		return "HandleLimit"
	case RetCFunctionSequence:
		return "FunctionSequence"
	case RetCConnectionNotOpen:
		return "ConnectionNotOpen"
	case RetCNotInitialized:
		return "NotInitialized"
	default:
		return "Unknown"
	}
}

// --------------------------------------------------------------------------
// Custom Error Type
// --------------------------------------------------------------------------

// Error is a diagnostic record. It carries the return code used inside the
// driver, the SQLSTATE and native error reported to the application and a
// human readable message.
type Error struct {
	Code        RetCode
	SQLState    string
	NativeError int32
	Msg         string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "nil record"
	}
	if e.SQLState == "" {
		return fmt.Sprintf("ODBCError (code %s): %s", e.Code, e.Msg)
	}
	return fmt.Sprintf("ODBCError [%s] (code %s): %s", e.SQLState, e.Code, e.Msg)
}

// NewError creates a new Error with the given code, SQLSTATE and message.
func NewError(code RetCode, sqlState string, msg string) *Error {
	return &Error{
		Code:     code,
		SQLState: sqlState,
		Msg:      msg,
	}
}

// General creates an HY000 record with a formatted message.
func General(format string, args ...any) *Error {
	return NewError(RetCInternalError, StateGeneralError, fmt.Sprintf(format, args...))
}

// WithNative returns a copy of e carrying the given native error code.
func (e *Error) WithNative(native int32) *Error {
	c := *e
	c.NativeError = native
	return &c
}

// --------------------------------------------------------------------------
// SQLSTATE values used by the driver
// --------------------------------------------------------------------------

const (
	StateGeneralError       = "HY000"
	StateFunctionSequence   = "HY010"
	StateHandleLimit        = "HY014"
	StateConnectionNotOpen  = "08003"
	StateInvalidHandleToken = "" // SQL_INVALID_HANDLE has no diagnostic record
)

// --------------------------------------------------------------------------
// Well known errors
// --------------------------------------------------------------------------

var (
	ErrInvalidHandle     = NewError(RetCInvalidHandle, StateInvalidHandleToken, "invalid handle")
	ErrWrongHandleType   = NewError(RetCWrongHandleType, StateInvalidHandleToken, "handle is of the wrong type")
	ErrPoisoned          = NewError(RetCPoisoned, StateGeneralError, "handle is in an unrecoverable state after a failed operation")
	ErrHandleLimit       = NewError(RetCHandleLimit, StateHandleLimit, "limit on the number of handles exceeded")
	ErrHasChildren       = NewError(RetCFunctionSequence, StateFunctionSequence, "handle still has allocated child handles")
	ErrConnectionNotOpen = NewError(RetCConnectionNotOpen, StateConnectionNotOpen, "connection not open")
	ErrNotInitialized    = NewError(RetCNotInitialized, StateGeneralError, "driver registry is not initialized")
)

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// Extract returns the *Error wrapped somewhere in err. A nil *Error is not
// extracted.
func Extract(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) && e != nil {
		return e, true
	}
	return nil, false
}

// Is reports whether err carries the given return code.
func Is(err error, code RetCode) bool {
	e, ok := Extract(err)
	return ok && e.Code == code
}

// SQLReturn maps err to the SQLRETURN an entry point hands back.
func SQLReturn(err error) odbc.SQLReturn {
	if err == nil {
		return odbc.Success
	}
	if Is(err, RetCInvalidHandle) || Is(err, RetCWrongHandleType) {
		return odbc.InvalidHandle
	}
	return odbc.Error
}
