package classifier

import (
	"context"
	"errors"
	"testing"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	contractx "github.com/tanpawarit/dbchat/agent/contract"
	toolx "github.com/tanpawarit/dbchat/agent/tool"
)

type fakeToolCallingModel struct {
	responses []*schema.Message
	err       error
	idx       int
}

func (f *fakeToolCallingModel) Generate(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.Message, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.idx >= len(f.responses) {
		return nil, errors.New("no fake response left")
	}
	msg := f.responses[f.idx]
	f.idx++
	return msg, nil
}

func (f *fakeToolCallingModel) Stream(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("stream not implemented in fake model")
}

func (f *fakeToolCallingModel) WithTools(tools []*schema.ToolInfo) (einomodel.ToolCallingChatModel, error) {
	return f, nil
}

func newTestClassifier(t *testing.T, fake *fakeToolCallingModel) *LLMClassifier {
	t.Helper()
	c, err := New(context.Background(), fake, "classifier prompt", toolx.NewRegistry())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return c
}

func TestClassifySuccess(t *testing.T) {
	t.Parallel()

	fake := &fakeToolCallingModel{
		responses: []*schema.Message{
			{
				Content: `{"operation":"create","fields":{"name":"Alice","email":"Alice@Example.com"},"complete":false}`,
			},
		},
	}
	c := newTestClassifier(t, fake)

	out, err := c.Classify(context.Background(), contractx.ClassifyRequest{
		Utterance: "add a user called Alice",
	})
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if out.Op != contractx.OpCreate {
		t.Fatalf("unexpected op %q", out.Op)
	}
	if out.Fields["name"] != "Alice" {
		t.Fatalf("unexpected fields %v", out.Fields)
	}
	if out.Complete {
		t.Fatal("expected complete=false")
	}
}

func TestClassifyTargetEmailNormalized(t *testing.T) {
	t.Parallel()

	fake := &fakeToolCallingModel{
		responses: []*schema.Message{
			{
				Content: `{"operation":"delete","target_email":"  Bob@Example.COM ","complete":true}`,
			},
		},
	}
	c := newTestClassifier(t, fake)

	out, err := c.Classify(context.Background(), contractx.ClassifyRequest{
		Utterance: "remove bob",
	})
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if out.Op != contractx.OpDelete {
		t.Fatalf("unexpected op %q", out.Op)
	}
	if out.TargetID != "bob@example.com" {
		t.Fatalf("target email not normalized: %q", out.TargetID)
	}
}

func TestClassifyUnclassifiedSynonyms(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{"", "none", "unknown", "unclassified"} {
		fake := &fakeToolCallingModel{
			responses: []*schema.Message{
				{Content: `{"operation":"` + raw + `"}`},
			},
		}
		c := newTestClassifier(t, fake)

		out, err := c.Classify(context.Background(), contractx.ClassifyRequest{Utterance: "what's the weather"})
		if err != nil {
			t.Fatalf("Classify(%q) error = %v", raw, err)
		}
		if out.Op != contractx.OpUnclassified {
			t.Fatalf("expected unclassified for %q, got %q", raw, out.Op)
		}
	}
}

func TestClassifySchemaViolation(t *testing.T) {
	t.Parallel()

	fake := &fakeToolCallingModel{
		responses: []*schema.Message{
			{Content: `{"operation":"truncate"}`},
		},
	}
	c := newTestClassifier(t, fake)

	_, err := c.Classify(context.Background(), contractx.ClassifyRequest{Utterance: "truncate everything"})
	if !errors.Is(err, contractx.ErrSchemaViolation) {
		t.Fatalf("expected ErrSchemaViolation, got %v", err)
	}
}

func TestClassifyMalformedJSON(t *testing.T) {
	t.Parallel()

	fake := &fakeToolCallingModel{
		responses: []*schema.Message{
			{Content: `I think the user wants to create someone`},
		},
	}
	c := newTestClassifier(t, fake)

	_, err := c.Classify(context.Background(), contractx.ClassifyRequest{Utterance: "add alice"})
	if !errors.Is(err, contractx.ErrModelInvoke) {
		t.Fatalf("expected ErrModelInvoke for unparseable output, got %v", err)
	}
}

func TestClassifyModelError(t *testing.T) {
	t.Parallel()

	fake := &fakeToolCallingModel{err: errors.New("upstream timeout")}
	c := newTestClassifier(t, fake)

	_, err := c.Classify(context.Background(), contractx.ClassifyRequest{Utterance: "add alice"})
	if !errors.Is(err, contractx.ErrModelInvoke) {
		t.Fatalf("expected ErrModelInvoke, got %v", err)
	}
}

func TestClassifyEmptyUtterance(t *testing.T) {
	t.Parallel()

	c := newTestClassifier(t, &fakeToolCallingModel{})
	_, err := c.Classify(context.Background(), contractx.ClassifyRequest{Utterance: "   "})
	if !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}
