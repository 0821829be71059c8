package handles

// DiagnosticsLog is the ordered list of diagnostic records of one node.
// Records are opaque to the core and are kept in insertion order.
//
// Thread-safety: A DiagnosticsLog is not safe for concurrent use on its own,
// it is always accessed under the lock of the node that owns it.
type DiagnosticsLog struct {
	records []error
}

// Append adds rec at the end of the log.
func (l *DiagnosticsLog) Append(rec error) {
	l.records = append(l.records, rec)
}

// Clear removes every record.
func (l *DiagnosticsLog) Clear() {
	clear(l.records)
	l.records = l.records[:0]
}

// Len returns the number of records.
func (l *DiagnosticsLog) Len() int {
	return len(l.records)
}

// Last returns the newest record.
func (l *DiagnosticsLog) Last() (error, bool) {
	if len(l.records) == 0 {
		return nil, false
	}
	return l.records[len(l.records)-1], true
}

// Records returns a copy of the records in FIFO order.
func (l *DiagnosticsLog) Records() []error {
	out := make([]error, len(l.records))
	copy(out, l.records)
	return out
}
