package respond

import (
	"strings"
	"testing"

	contractx "github.com/tanpawarit/dbchat/agent/contract"
)

func TestRenderClarifyNamesMissingFields(t *testing.T) {
	t.Parallel()

	got := Render(Outcome{
		Kind:    KindClarify,
		Op:      contractx.OpCreate,
		Missing: []string{"age", "role"},
	})
	if !strings.Contains(got, "age, role") {
		t.Fatalf("clarification must name the missing fields, got %q", got)
	}
	if !strings.Contains(got, "create") {
		t.Fatalf("clarification must name the operation, got %q", got)
	}
}

func TestRenderCorrect(t *testing.T) {
	t.Parallel()

	got := Render(Outcome{
		Kind:      KindCorrect,
		Op:        contractx.OpCreate,
		FieldName: "email",
		FieldWhy:  `"nope" is not a valid email address`,
	})
	if !strings.Contains(got, "email") || !strings.Contains(got, "not a valid email") {
		t.Fatalf("correction must name the field and the reason, got %q", got)
	}
}

func TestRenderDisambiguateListsCandidates(t *testing.T) {
	t.Parallel()

	got := Render(Outcome{
		Kind: KindDisambiguate,
		Op:   contractx.OpDelete,
		Candidates: []contractx.Candidate{
			{Name: "John Smith", Email: "john.smith@example.com", Role: "admin"},
			{Name: "John Smith", Email: "j.smith@example.com"},
		},
	})
	if !strings.Contains(got, "2 users") {
		t.Fatalf("expected candidate count, got %q", got)
	}
	if !strings.Contains(got, "john.smith@example.com") || !strings.Contains(got, "j.smith@example.com") {
		t.Fatalf("every candidate must be listed, got %q", got)
	}
	if !strings.Contains(got, "email address") {
		t.Fatalf("expected instruction how to choose, got %q", got)
	}
}

func TestRenderConfirm(t *testing.T) {
	t.Parallel()

	got := Render(Outcome{
		Kind:   KindConfirm,
		Op:     contractx.OpDelete,
		Target: contractx.Candidate{Name: "Bob", Email: "bob@example.com"},
	})
	if !strings.Contains(got, "delete") || !strings.Contains(got, "bob@example.com") {
		t.Fatalf("confirmation must name the operation and target, got %q", got)
	}
	if !strings.Contains(got, "(yes/no)") {
		t.Fatalf("confirmation must ask yes/no, got %q", got)
	}
}

func TestRenderResult(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		result contractx.ToolResult
		want   string
	}{
		{
			"create",
			contractx.ToolResult{Op: contractx.OpCreate, OK: true, Records: []contractx.Candidate{{Name: "Alice", Email: "alice@example.com"}}},
			"Created user",
		},
		{
			"read empty",
			contractx.ToolResult{Op: contractx.OpRead, OK: true},
			"No users found.",
		},
		{
			"read many",
			contractx.ToolResult{Op: contractx.OpRead, OK: true, Records: []contractx.Candidate{{Email: "a@example.com"}, {Email: "b@example.com"}}},
			"Found 2 users",
		},
		{
			"update",
			contractx.ToolResult{Op: contractx.OpUpdate, OK: true, Records: []contractx.Candidate{{Email: "bob@example.com"}}},
			"Updated user bob@example.com.",
		},
		{
			"delete",
			contractx.ToolResult{Op: contractx.OpDelete, OK: true, Records: []contractx.Candidate{{Email: "bob@example.com"}}},
			"Deleted user bob@example.com.",
		},
		{
			"failure",
			contractx.ToolResult{Op: contractx.OpCreate, Reason: "a user with email x@example.com already exists"},
			"Nothing was changed",
		},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := Render(Outcome{Kind: KindResult, Op: tc.result.Op, Result: tc.result})
			if !strings.Contains(got, tc.want) {
				t.Fatalf("expected %q in %q", tc.want, got)
			}
		})
	}
}

func TestRenderReject(t *testing.T) {
	t.Parallel()

	got := Render(Outcome{Kind: KindReject, Op: contractx.OpCreate, Missing: []string{"email"}})
	if !strings.Contains(got, "create") || !strings.Contains(got, `"cancel"`) {
		t.Fatalf("rejection must name the pending operation and the way out, got %q", got)
	}
	if !strings.Contains(got, "email") {
		t.Fatalf("rejection should restate what is still needed, got %q", got)
	}
}

func TestRenderTerminalKinds(t *testing.T) {
	t.Parallel()

	if got := Render(Outcome{Kind: KindExit}); got != "Goodbye!" {
		t.Fatalf("unexpected exit reply %q", got)
	}
	got := Render(Outcome{Kind: KindCancelled, Op: contractx.OpDelete})
	if !strings.Contains(got, "cancelled the pending delete") {
		t.Fatalf("unexpected cancel reply %q", got)
	}
	got = Render(Outcome{Kind: KindCancelled})
	if !strings.Contains(got, "nothing was pending") {
		t.Fatalf("unexpected no-op cancel reply %q", got)
	}
	got = Render(Outcome{Kind: KindRephrase})
	if !strings.Contains(got, "rephrase") {
		t.Fatalf("unexpected rephrase reply %q", got)
	}
}
