package respond

import (
	"fmt"
	"strings"

	contractx "github.com/tanpawarit/dbchat/agent/contract"
)

// Kind enumerates every way a turn can end. Each kind has exactly one
// deterministic rendering; no model call happens on the way out.
type Kind string

const (
	KindClarify      Kind = "clarify"
	KindCorrect      Kind = "correct"
	KindDisambiguate Kind = "disambiguate"
	KindConfirm      Kind = "confirm"
	KindResult       Kind = "result"
	KindReject       Kind = "reject"
	KindRephrase     Kind = "rephrase"
	KindCancelled    Kind = "cancelled"
	KindExit         Kind = "exit"
)

// Outcome is what the planning step hands the renderer.
type Outcome struct {
	Kind       Kind
	Op         contractx.OpKind
	Missing    []string
	FieldName  string
	FieldWhy   string
	Candidates []contractx.Candidate
	Target     contractx.Candidate
	Result     contractx.ToolResult
}

// Render turns an outcome into the agent's reply.
func Render(o Outcome) string {
	switch o.Kind {
	case KindClarify:
		return renderClarify(o)
	case KindCorrect:
		return fmt.Sprintf("The value for %s didn't look right: %s. Could you give it to me again?", o.FieldName, o.FieldWhy)
	case KindDisambiguate:
		return renderDisambiguate(o)
	case KindConfirm:
		return renderConfirm(o)
	case KindResult:
		return renderResult(o.Result)
	case KindReject:
		return renderReject(o)
	case KindRephrase:
		return "I couldn't work out what you'd like to do. I can create, read, update, or delete user records. Could you rephrase?"
	case KindCancelled:
		if o.Op.Valid() {
			return fmt.Sprintf("Okay, I've cancelled the pending %s. What would you like to do next?", o.Op)
		}
		return "Okay, nothing was pending. What would you like to do next?"
	case KindExit:
		return "Goodbye!"
	}
	return "I'm not sure how to answer that."
}

func renderClarify(o Outcome) string {
	if len(o.Missing) == 0 {
		return fmt.Sprintf("I need a bit more detail to %s a user. What should I use?", o.Op)
	}
	return fmt.Sprintf("To %s a user I still need: %s. Could you provide %s?",
		o.Op, strings.Join(o.Missing, ", "), itThem(len(o.Missing)))
}

func renderDisambiguate(o Outcome) string {
	var b strings.Builder
	fmt.Fprintf(&b, "I found %d users matching that request:\n", len(o.Candidates))
	for i, c := range o.Candidates {
		fmt.Fprintf(&b, "  %d. %s\n", i+1, describe(c))
	}
	b.WriteString("Which one do you mean? Reply with the email address.")
	return b.String()
}

func renderConfirm(o Outcome) string {
	return fmt.Sprintf("You're about to %s %s. Should I go ahead? (yes/no)", o.Op, describe(o.Target))
}

func renderReject(o Outcome) string {
	if len(o.Missing) > 0 {
		return fmt.Sprintf("We're still in the middle of a %s operation (waiting on: %s). Please finish it or say \"cancel\" first.",
			o.Op, strings.Join(o.Missing, ", "))
	}
	return fmt.Sprintf("We're still in the middle of a %s operation. Please finish it or say \"cancel\" first.", o.Op)
}

func renderResult(r contractx.ToolResult) string {
	if !r.OK {
		return fmt.Sprintf("I couldn't %s: %s. Nothing was changed; you can adjust the request and try again.", r.Op, r.Reason)
	}

	switch r.Op {
	case contractx.OpCreate:
		if len(r.Records) > 0 {
			return fmt.Sprintf("Created user %s.", describe(r.Records[0]))
		}
		return "Created the user."
	case contractx.OpRead:
		if len(r.Records) == 0 {
			return "No users found."
		}
		var b strings.Builder
		fmt.Fprintf(&b, "Found %d users:\n", len(r.Records))
		for i, c := range r.Records {
			fmt.Fprintf(&b, "  %d. %s\n", i+1, describe(c))
		}
		return strings.TrimRight(b.String(), "\n")
	case contractx.OpUpdate:
		if len(r.Records) > 0 {
			return fmt.Sprintf("Updated user %s.", r.Records[0].Email)
		}
		return "Updated the user."
	case contractx.OpDelete:
		if len(r.Records) > 0 {
			return fmt.Sprintf("Deleted user %s.", r.Records[0].Email)
		}
		return "Deleted the user."
	}
	return "Done."
}

func describe(c contractx.Candidate) string {
	parts := make([]string, 0, 3)
	if c.Name != "" {
		parts = append(parts, c.Name)
	}
	if c.Email != "" {
		parts = append(parts, "<"+c.Email+">")
	}
	if c.Role != "" {
		parts = append(parts, "("+c.Role+")")
	}
	if len(parts) == 0 {
		return "an unnamed record"
	}
	return strings.Join(parts, " ")
}

func itThem(n int) string {
	if n == 1 {
		return "it"
	}
	return "them"
}
