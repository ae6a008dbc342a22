package tensor

import (
	"strconv"
	"sync/atomic"
)

var lastID atomic.Uint64

// MakeID returns a new process-unique tensor identifier ("T1", "T2", ...).
// Safe for concurrent use.
func MakeID() string {
	return "T" + strconv.FormatUint(lastID.Add(1), 10)
}
