// Package ledger holds the coin balance for one session. It is the only
// piece of state shared between game engines, so every mutation happens
// under one lock and is pushed to the persistence sink as a side effect.
package ledger

import (
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrInsufficientFunds is returned when a debit would overdraw the balance.
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrNegativeAmount is returned for negative balances or amounts.
	ErrNegativeAmount = errors.New("negative amount")
)

// Sink receives balance changes for persistence. Implementations must not
// block for long; failures are the sink's problem to log, the in-memory
// balance stays authoritative for the session either way.
type Sink func(balance int64, change string)

// Ledger is a non-negative integer coin balance with change notification.
type Ledger struct {
	mu      sync.Mutex
	balance int64
	sink    Sink
}

// New creates a ledger with the given starting balance.
func New(start int64) *Ledger {
	if start < 0 {
		start = 0
	}
	return &Ledger{balance: start}
}

// SetSink installs the persistence sink. The sink is invoked after every
// effective change with the new balance and a change-type tag.
func (l *Ledger) SetSink(sink Sink) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sink = sink
}

// Balance returns the current balance.
func (l *Ledger) Balance() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balance
}

// Set replaces the balance. Writing the current value is a no-op and does
// not notify the sink.
func (l *Ledger) Set(amount int64, change string) error {
	if amount < 0 {
		return fmt.Errorf("%w: set %d", ErrNegativeAmount, amount)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if amount == l.balance {
		return nil
	}
	l.balance = amount
	l.notify(change)
	return nil
}

// Credit adds amount to the balance. A zero credit is a no-op.
func (l *Ledger) Credit(amount int64, change string) error {
	if amount < 0 {
		return fmt.Errorf("%w: credit %d", ErrNegativeAmount, amount)
	}
	if amount == 0 {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balance += amount
	l.notify(change)
	return nil
}

// Debit removes amount from the balance, rejecting overdrafts before any
// state changes.
func (l *Ledger) Debit(amount int64, change string) error {
	if amount < 0 {
		return fmt.Errorf("%w: debit %d", ErrNegativeAmount, amount)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if amount > l.balance {
		return fmt.Errorf("%w: debit %d exceeds balance %d", ErrInsufficientFunds, amount, l.balance)
	}
	if amount == 0 {
		return nil
	}
	l.balance -= amount
	l.notify(change)
	return nil
}

// Reset zeroes the balance, as on sign-out.
func (l *Ledger) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.balance == 0 {
		return
	}
	l.balance = 0
	l.notify("reset")
}

func (l *Ledger) notify(change string) {
	if l.sink != nil {
		l.sink(l.balance, change)
	}
}
