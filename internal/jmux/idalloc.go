package jmux

import "math/bits"

// idAllocator hands out dense uint32 channel ids with reuse, backed by a growable
// bitset of taken indices. It is not safe for concurrent use on its own; callers
// must serialize access (internal/jmux.Session does this under its idsMu mutex,
// which is separate from the channel registry's lock).
//
// Adapted from original_source/crates/jmux-proxy/src/id_allocator.rs, which keeps a
// bitvec::BitVec of taken indices; this is the same structure expressed as a []uint64
// word bitset instead of a dedicated bit-vector crate.
type idAllocator struct {
	words  []uint64
	nTaken int // count of bits currently set; kept up to date but not read anywhere yet
}

// errOutOfIDs is returned when every id in the 32-bit space is taken.
var errOutOfIDs = newErr(ErrorResourceExhausted, errString("out of channel ids"))

// alloc returns the lowest-numbered id not currently taken, marking it taken.
func (a *idAllocator) alloc() (uint32, error) {
	for i, w := range a.words {
		if w != ^uint64(0) {
			bit := bits.TrailingZeros64(^w)
			idx := uint32(i*64 + bit)
			a.words[i] |= 1 << uint(bit)
			a.nTaken++
			return idx, nil
		}
	}

	// every existing word is full; append a new one, unless doing so would need an
	// index beyond the uint32 range.
	newWordIdx := len(a.words)
	firstIdxOfNewWord := uint64(newWordIdx) * 64
	if firstIdxOfNewWord > 0xFFFFFFFF {
		return 0, errOutOfIDs
	}
	a.words = append(a.words, 1)
	a.nTaken++
	return uint32(firstIdxOfNewWord), nil
}

// free releases id for reuse. Freeing an id that was never allocated, or that is
// already free, is a silent no-op: callers that race a remote CLOSE against a local
// free must not be penalized for it.
func (a *idAllocator) free(id uint32) {
	wordIdx := int(id / 64)
	bit := id % 64
	if wordIdx >= len(a.words) {
		return
	}
	if a.words[wordIdx]&(1<<bit) != 0 {
		a.words[wordIdx] &^= 1 << bit
		a.nTaken--
	}
}

// taken reports whether id is currently allocated. Exported to tests only.
func (a *idAllocator) taken(id uint32) bool {
	wordIdx := int(id / 64)
	bit := id % 64
	if wordIdx >= len(a.words) {
		return false
	}
	return a.words[wordIdx]&(1<<bit) != 0
}
