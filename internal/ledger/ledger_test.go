package ledger

import (
	"errors"
	"testing"
)

func TestLedgerBasics(t *testing.T) {
	l := New(100)
	if l.Balance() != 100 {
		t.Fatalf("starting balance %d, want 100", l.Balance())
	}

	if err := l.Debit(10, "bet"); err != nil {
		t.Fatalf("Debit failed: %v", err)
	}
	if l.Balance() != 90 {
		t.Errorf("balance after debit %d, want 90", l.Balance())
	}

	if err := l.Credit(25, "payout"); err != nil {
		t.Fatalf("Credit failed: %v", err)
	}
	if l.Balance() != 115 {
		t.Errorf("balance after credit %d, want 115", l.Balance())
	}
}

func TestLedgerOverdraftRejected(t *testing.T) {
	l := New(5)
	err := l.Debit(10, "bet")
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	if l.Balance() != 5 {
		t.Errorf("balance changed on rejected debit: %d", l.Balance())
	}
}

func TestLedgerNegativeAmounts(t *testing.T) {
	l := New(10)
	if err := l.Set(-1, "set"); !errors.Is(err, ErrNegativeAmount) {
		t.Errorf("Set(-1): expected ErrNegativeAmount, got %v", err)
	}
	if err := l.Credit(-1, "payout"); !errors.Is(err, ErrNegativeAmount) {
		t.Errorf("Credit(-1): expected ErrNegativeAmount, got %v", err)
	}
	if err := l.Debit(-1, "bet"); !errors.Is(err, ErrNegativeAmount) {
		t.Errorf("Debit(-1): expected ErrNegativeAmount, got %v", err)
	}
	if l.Balance() != 10 {
		t.Errorf("balance changed on rejected ops: %d", l.Balance())
	}
}

func TestLedgerSinkNotification(t *testing.T) {
	l := New(50)
	var gotBalance int64
	var gotChange string
	calls := 0
	l.SetSink(func(balance int64, change string) {
		gotBalance = balance
		gotChange = change
		calls++
	})

	if err := l.Debit(20, "blackjack:bet"); err != nil {
		t.Fatal(err)
	}
	if calls != 1 || gotBalance != 30 || gotChange != "blackjack:bet" {
		t.Errorf("sink saw (%d, %q) after %d calls", gotBalance, gotChange, calls)
	}

	// No-op writes must not notify.
	if err := l.Set(30, "set"); err != nil {
		t.Fatal(err)
	}
	if calls != 1 {
		t.Errorf("no-op Set notified the sink (%d calls)", calls)
	}
	if err := l.Credit(0, "payout"); err != nil {
		t.Fatal(err)
	}
	if err := l.Debit(0, "bet"); err != nil {
		t.Fatal(err)
	}
	if calls != 1 {
		t.Errorf("zero credit/debit notified the sink (%d calls)", calls)
	}
}

func TestLedgerReset(t *testing.T) {
	l := New(75)
	calls := 0
	l.SetSink(func(balance int64, change string) {
		calls++
		if change != "reset" {
			t.Errorf("change tag %q, want reset", change)
		}
		if balance != 0 {
			t.Errorf("balance %d after reset, want 0", balance)
		}
	})
	l.Reset()
	if l.Balance() != 0 {
		t.Errorf("balance %d after reset", l.Balance())
	}
	l.Reset() // already zero, no notification
	if calls != 1 {
		t.Errorf("reset notified %d times, want 1", calls)
	}
}
