package utils

import (
	"fmt"
	"hash/fnv"
)

func HashStringToUint64(s string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return h.Sum64()
}

// ShortHash returns a 6-char hex digest, stable across processes.
func ShortHash(s string) string {
	return fmt.Sprintf("%012x", HashStringToUint64(s))[:6]
}
