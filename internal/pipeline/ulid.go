package pipeline

import (
	"crypto/rand"
	"encoding/binary"
	"sync"
	"time"
)

// Job IDs are ULIDs: 48 bits of millisecond timestamp plus 80 bits of
// randomness, rendered as 26 Crockford base32 characters. Lexicographic
// order matches creation order, which keeps log output and store dumps
// easy to scan.

const crockford = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"

var (
	ulidMu       sync.Mutex
	ulidLastMs   uint64
	ulidSequence uint16
)

func generateULID() string {
	var id [16]byte

	ulidMu.Lock()
	ms := uint64(time.Now().UnixMilli())
	if ms == ulidLastMs {
		ulidSequence++
	} else {
		ulidLastMs = ms
		ulidSequence = 0
	}
	seq := ulidSequence
	ulidMu.Unlock()

	id[0] = byte(ms >> 40)
	id[1] = byte(ms >> 32)
	id[2] = byte(ms >> 24)
	id[3] = byte(ms >> 16)
	id[4] = byte(ms >> 8)
	id[5] = byte(ms)

	rand.Read(id[6:])
	// Fold the sequence counter into the random section so two jobs
	// submitted in the same millisecond still sort by arrival.
	binary.BigEndian.PutUint16(id[6:8], seq)

	return encodeBase32(id)
}

// encodeBase32 renders 128 bits as 26 Crockford characters, filling from
// the least significant end so the first character carries the top three
// bits of the timestamp.
func encodeBase32(b [16]byte) string {
	var out [26]byte
	var acc uint32
	var bits uint
	pos := len(out) - 1
	for i := len(b) - 1; i >= 0; i-- {
		acc |= uint32(b[i]) << bits
		bits += 8
		for bits >= 5 && pos > 0 {
			out[pos] = crockford[acc&31]
			acc >>= 5
			bits -= 5
			pos--
		}
	}
	out[0] = crockford[acc&31]
	return string(out[:])
}
