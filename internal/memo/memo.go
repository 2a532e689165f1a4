// Package memo derives the numeric correlation id that binds one off-band
// ledger payment to one pending order.
package memo

import (
	"fmt"
	"hash/fnv"
	"math"
)

// Generate hashes (pictureID, caller, timestamp) into a non-negative 64-bit
// memo. Fixed inputs always produce the same memo; distinct triples collide
// only with hash probability, and the settlement flow treats a collision
// with a live pending memo as a hard error rather than an overwrite.
func Generate(pictureID, caller string, timestamp uint64) uint64 {
	h := fnv.New64a()
	_, _ = fmt.Fprintf(h, "%s_%s_%d", pictureID, caller, timestamp)
	return h.Sum64() & math.MaxInt64
}
