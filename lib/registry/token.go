package registry

import (
	"crypto/rand"
	"encoding/binary"
	"sync/atomic"
	"time"

	"github.com/ValentinKolb/dODBC/lib/odbc"
)

// generateSeed returns a random value used as the token base of a registry
func generateSeed() uint64 {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		// fall back to the current time, only in the worst case
		return uint64(time.Now().UnixNano())
	}
	return binary.LittleEndian.Uint64(b[:])
}

// tokenSource hands out opaque tokens. Tokens are never reused during the
// lifetime of a registry, so a token kept after its handle was freed can
// never resolve to a newer handle. The random high bits make tokens of two
// registries (and plain small integers) unlikely to be accepted by mistake.
type tokenSource struct {
	next atomic.Uint64
}

func newTokenSource() *tokenSource {
	ts := &tokenSource{}
	// keep the low 32 bits free for the counter
	ts.next.Store(generateSeed() &^ 0xFFFF_FFFF)
	return ts
}

// nextToken returns a fresh, non-null token
func (ts *tokenSource) nextToken() odbc.Handle {
	for {
		t := odbc.Handle(ts.next.Add(1))
		if t != odbc.NullHandle {
			return t
		}
	}
}
