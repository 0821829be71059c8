// Package odbcerr defines the diagnostic record type of the driver and the
// return codes used between its layers.
//
// An Error pairs an internal RetCode with the SQLSTATE that the diagnostic
// query functions (SQLGetDiagRec, SQLGetDiagField) report to applications.
// The handle core stores these records without looking at them; only the
// outer layers create and inspect them.
//
// Usage:
//
//	h.AddDiagnostic(odbcerr.General("unable to parse statement: %v", err))
//
//	if odbcerr.Is(err, odbcerr.RetCInvalidHandle) {
//	    return odbcerr.SQLReturn(err) // SQL_INVALID_HANDLE
//	}
package odbcerr
