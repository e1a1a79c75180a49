package games

import (
	"io"
	"log"

	"github.com/drachma-games/casino/internal/engine"
	"github.com/drachma-games/casino/internal/ledger"
)

// seedRNG hands out deterministic streams for a fixed seed pair with a
// monotonic nonce, so whole rounds replay identically across runs.
type seedRNG struct {
	serverSeed string
	clientSeed string
	nonce      uint64
}

func newSeedRNG(serverSeed string) *seedRNG {
	return &seedRNG{serverSeed: serverSeed, clientSeed: "test_client"}
}

func (r *seedRNG) NextStream() *engine.Stream {
	r.nonce++
	return engine.NewStream(r.serverSeed, r.clientSeed, r.nonce, 0)
}

func testLedger(balance int64) *ledger.Ledger {
	return ledger.New(balance)
}

func testLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}
