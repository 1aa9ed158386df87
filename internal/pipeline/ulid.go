package pipeline

import (
	"crypto/rand"
	"encoding/binary"
	"sync"
	"time"
)

// Minimal ULID generator: 26 Crockford Base32 characters over a 48-bit
// millisecond timestamp plus 80 random bits, so IDs sort by creation time.

var (
	ulidMu  sync.Mutex
	lastTS  uint64
	lastSeq uint16
)

const crockford = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"

func generateULID() string {
	ulidMu.Lock()
	defer ulidMu.Unlock()

	ts := uint64(time.Now().UnixMilli())
	if ts == lastTS {
		lastSeq++
	} else {
		lastTS = ts
		lastSeq = 0
	}

	var b [16]byte
	// 48-bit timestamp, big-endian, in the first 6 bytes.
	b[0] = byte(ts >> 40)
	b[1] = byte(ts >> 32)
	b[2] = byte(ts >> 24)
	b[3] = byte(ts >> 16)
	b[4] = byte(ts >> 8)
	b[5] = byte(ts)
	rand.Read(b[6:])
	// Sequence in bytes 6-7 keeps IDs unique within one millisecond.
	binary.BigEndian.PutUint16(b[6:8], lastSeq)

	return encodeBase32(b)
}

// encodeBase32 packs 128 bits into 26 characters, 5 bits at a time; the
// final 3 leftover bits pad the last character.
func encodeBase32(b [16]byte) string {
	var out [26]byte
	acc, bits, j := 0, 0, 0
	for i := 0; i < len(b); i++ {
		acc = acc<<8 | int(b[i])
		bits += 8
		for bits >= 5 {
			out[j] = crockford[(acc>>(bits-5))&31]
			bits -= 5
			j++
		}
	}
	out[j] = crockford[(acc<<(5-bits))&31]
	return string(out[:])
}
