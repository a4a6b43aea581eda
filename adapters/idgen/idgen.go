// Package idgen provides ID generation implementations.
package idgen

import (
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/artpar/contentgate/ports"
	"github.com/google/uuid"
)

// Prefixed generates compact UUID v4 identifiers behind a type prefix,
// e.g. "tpl_3f2c...". An empty prefix yields plain dashed UUIDs.
type Prefixed string

// New generates a new identifier.
func (p Prefixed) New() string {
	if p == "" {
		return uuid.NewString()
	}
	return string(p) + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// Sequential generates predictable IDs for tests: prefix1, prefix2, ...
type Sequential struct {
	prefix  string
	counter atomic.Uint64
}

// NewSequential creates a sequential ID generator.
func NewSequential(prefix string) *Sequential {
	return &Sequential{prefix: prefix}
}

// New generates the next sequential ID.
func (s *Sequential) New() string {
	return s.prefix + strconv.FormatUint(s.counter.Add(1), 10)
}

// Ensure interface compliance.
var (
	_ ports.IDGenerator = Prefixed("")
	_ ports.IDGenerator = (*Sequential)(nil)
)
