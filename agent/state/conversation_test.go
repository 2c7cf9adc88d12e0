package state

import (
	"fmt"
	"testing"
	"time"

	contractx "github.com/tanpawarit/dbchat/agent/contract"
)

func TestAppendTurnCapsHistory(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	conv := NewConversation("s1", now)

	for i := 0; i < MaxHistoryTurns+5; i++ {
		conv.AppendTurn(fmt.Sprintf("u%d", i), fmt.Sprintf("a%d", i), now)
	}

	if len(conv.Turns) != MaxHistoryTurns {
		t.Fatalf("expected %d turns, got %d", MaxHistoryTurns, len(conv.Turns))
	}
	if conv.Turns[0].User != "u5" {
		t.Fatalf("expected oldest surviving turn u5, got %q", conv.Turns[0].User)
	}
	if conv.Turns[len(conv.Turns)-1].User != fmt.Sprintf("u%d", MaxHistoryTurns+4) {
		t.Fatalf("unexpected newest turn %q", conv.Turns[len(conv.Turns)-1].User)
	}
}

func TestHistoryMostRecentFirst(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()
	conv := NewConversation("s1", now)
	conv.AppendTurn("first", "r1", now)
	conv.AppendTurn("second", "r2", now)

	hist := conv.History()
	if len(hist) != 2 {
		t.Fatalf("expected 2 history turns, got %d", len(hist))
	}
	if hist[0].User != "second" || hist[1].User != "first" {
		t.Fatalf("history not most-recent-first: %+v", hist)
	}
}

func TestRecomputeDerivesMissing(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()
	conv := NewConversation("s1", now)
	p := conv.BeginPending(contractx.OpCreate, now)
	required := []string{"name", "email"}

	p.Recompute(required, now)
	if len(p.Missing) != 2 {
		t.Fatalf("expected both fields missing, got %v", p.Missing)
	}
	if p.Missing[0] != "name" || p.Missing[1] != "email" {
		t.Fatalf("missing not in declaration order: %v", p.Missing)
	}

	p.SetField("name", "Alice")
	p.Recompute(required, now)
	if len(p.Missing) != 1 || p.Missing[0] != "email" {
		t.Fatalf("expected only email missing, got %v", p.Missing)
	}

	p.SetField("email", "alice@example.com")
	p.Recompute(required, now)
	if p.Missing != nil {
		t.Fatalf("expected no missing fields, got %v", p.Missing)
	}

	// An empty string does not count as collected.
	p.SetField("email", "")
	p.Recompute(required, now)
	if len(p.Missing) != 1 || p.Missing[0] != "email" {
		t.Fatalf("empty value should reopen the field, got %v", p.Missing)
	}

	p.SetField("email", "alice@example.com")
	p.DropField("name")
	p.Recompute(required, now)
	if len(p.Missing) != 1 || p.Missing[0] != "name" {
		t.Fatalf("dropped field should be missing again, got %v", p.Missing)
	}
}

func TestBeginPendingReplacesPrior(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()
	conv := NewConversation("s1", now)

	first := conv.BeginPending(contractx.OpCreate, now)
	first.SetField("name", "Alice")

	second := conv.BeginPending(contractx.OpDelete, now)
	if conv.Pending != second {
		t.Fatal("expected new pending to replace the old one")
	}
	if _, ok := conv.Pending.Fields["name"]; ok {
		t.Fatal("replacement pending must start with empty fields")
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()

	var nilConv *Conversation
	if err := nilConv.Validate(); err != ErrNilConversation {
		t.Fatalf("expected ErrNilConversation, got %v", err)
	}

	conv := NewConversation("", now)
	if err := conv.Validate(); err != ErrInvalidSession {
		t.Fatalf("expected ErrInvalidSession, got %v", err)
	}

	conv = NewConversation("s1", now)
	if err := conv.Validate(); err != nil {
		t.Fatalf("fresh conversation should validate, got %v", err)
	}

	p := conv.BeginPending(contractx.OpUnclassified, now)
	if err := conv.Validate(); err == nil {
		t.Fatal("pending with an undispatchable op must fail validation")
	}

	p.Op = contractx.OpDelete
	p.AwaitConfirm = true
	p.Missing = []string{"email"}
	if err := conv.Validate(); err == nil {
		t.Fatal("awaiting confirmation with missing fields must fail validation")
	}

	p.Missing = nil
	if err := conv.Validate(); err != nil {
		t.Fatalf("valid pending should pass, got %v", err)
	}
}
