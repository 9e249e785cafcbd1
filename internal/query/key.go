package query

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Key identifies one logical remote resource, e.g. {"leads"} or
// {"leadDetails", int64(7)}. Elements should be primitives (strings, bools,
// integers, floats).
type Key []any

// Equal reports whether both keys hold the same elements in the same order.
// Elements of different dynamic types never compare equal, so int(7) and
// int64(7) are distinct.
func (k Key) Equal(other Key) bool {
	if len(k) != len(other) {
		return false
	}
	for i := range k {
		if encodePart(k[i]) != encodePart(other[i]) {
			return false
		}
	}
	return true
}

// String returns the canonical form of the key. Two keys are equal exactly
// when their canonical forms are equal.
func (k Key) String() string {
	parts := make([]string, len(k))
	for i, part := range k {
		parts[i] = encodePart(part)
	}
	return strings.Join(parts, "/")
}

// Fingerprint hashes the canonical form. It is short enough to tag log lines.
func (k Key) Fingerprint() uint64 {
	return xxhash.Sum64String(k.String())
}

// Clone returns a copy that does not share the backing array.
func (k Key) Clone() Key {
	if k == nil {
		return nil
	}
	dup := make(Key, len(k))
	copy(dup, k)
	return dup
}

func encodePart(part any) string {
	switch v := part.(type) {
	case nil:
		return "nil"
	case string:
		return strconv.Quote(v)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprintf("%T:%v", v, v)
	}
}
