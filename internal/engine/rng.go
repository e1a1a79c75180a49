package engine

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
)

// Stream generates an unbounded sequence of floats in [0, 1) from
// HMAC-SHA256 rounds keyed by the server seed. Every random decision an
// engine makes (shuffle swaps, mine placement, plinko hops, collision
// jitter) is drawn from a stream, so a round is fully determined by
// (serverSeed, clientSeed, nonce).
type Stream struct {
	serverSeed   string
	clientSeed   string
	nonce        uint64
	currentRound uint64
	currentPos   int
	buffer       [32]byte
}

// NewStream creates a stream positioned at the given byte cursor.
func NewStream(serverSeed, clientSeed string, nonce uint64, cursor uint64) *Stream {
	s := &Stream{
		serverSeed:   serverSeed,
		clientSeed:   clientSeed,
		nonce:        nonce,
		currentRound: cursor / 32,
		currentPos:   int(cursor % 32),
	}
	s.fill()
	return s
}

func (s *Stream) fill() {
	h := hmac.New(sha256.New, []byte(s.serverSeed))
	fmt.Fprintf(h, "%s:%d:%d", s.clientSeed, s.nonce, s.currentRound)
	copy(s.buffer[:], h.Sum(nil))
}

// NextByte returns the next byte, advancing to a fresh HMAC round every
// 32 bytes.
func (s *Stream) NextByte() byte {
	if s.currentPos >= 32 {
		s.currentRound++
		s.currentPos = 0
		s.fill()
	}
	b := s.buffer[s.currentPos]
	s.currentPos++
	return b
}

// Float returns the next float in [0, 1), consuming exactly 4 bytes.
func (s *Stream) Float() float64 {
	result := 0.0
	for i := 0; i < 4; i++ {
		divider := math.Pow(256, float64(i+1))
		result += float64(s.NextByte()) / divider
	}
	return result
}

// Intn returns an integer in [0, n) derived from the next float.
func (s *Stream) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	idx := int(math.Floor(s.Float() * float64(n)))
	if idx >= n {
		idx = n - 1
	}
	return idx
}

// Floats generates count floats starting from the given cursor.
func Floats(serverSeed, clientSeed string, nonce uint64, cursor uint64, count int) []float64 {
	s := NewStream(serverSeed, clientSeed, nonce, cursor)
	floats := make([]float64, count)
	for i := range floats {
		floats[i] = s.Float()
	}
	return floats
}

// Permutation consumes floats from the stream to produce a Fisher-Yates
// selection of the integers [0, size). Only the first count entries of
// the permutation are materialized; size-1 floats are enough for a full
// shuffle because the last element has no choice left.
func Permutation(s *Stream, size, count int) []int {
	pool := make([]int, size)
	for i := range pool {
		pool[i] = i
	}
	if count > size {
		count = size
	}
	perm := make([]int, 0, count)
	for i := 0; i < count; i++ {
		idx := s.Intn(len(pool))
		perm = append(perm, pool[idx])
		pool = append(pool[:idx], pool[idx+1:]...)
	}
	return perm
}

// NewServerSeed returns a fresh 32-byte hex server seed.
func NewServerSeed() (string, error) {
	var b [32]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", fmt.Errorf("generate server seed: %w", err)
	}
	return hex.EncodeToString(b[:]), nil
}

// HashServerSeed returns the SHA256 hex digest of a server seed, safe to
// disclose before the seed is rotated.
func HashServerSeed(serverSeed string) string {
	sum := sha256.Sum256([]byte(serverSeed))
	return hex.EncodeToString(sum[:])
}
