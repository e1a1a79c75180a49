package games

import "errors"

// Sentinel errors shared by all game engines. Every operation that fails
// with one of these leaves engine state untouched; callers surface them as
// transient notices, never as round-aborting failures.
var (
	// ErrInvalidBet indicates a wager amount out of range or above the balance.
	ErrInvalidBet = errors.New("invalid bet")
	// ErrInvalidAction indicates an operation called in the wrong round state.
	ErrInvalidAction = errors.New("invalid action")
	// ErrInsufficientBalance indicates funds too low for a split or new round.
	ErrInsufficientBalance = errors.New("insufficient balance")
	// ErrConfiguration indicates an out-of-range board or game parameter.
	ErrConfiguration = errors.New("configuration error")
)
