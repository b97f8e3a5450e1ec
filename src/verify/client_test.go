package verify

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stake-plus/veritrust/src/ai/core"
)

type fakeAI struct {
	reply string
	err   error
	calls int
	req   core.Request
	opts  core.Options
	wait  time.Duration
}

func (f *fakeAI) Analyze(ctx context.Context, req core.Request, opts core.Options) (string, error) {
	f.calls++
	f.req = req
	f.opts = opts
	if f.wait > 0 {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(f.wait):
		}
	}
	return f.reply, f.err
}

func mustBuild(t *testing.T, kind ContentKind, input string) Request {
	t.Helper()
	req, err := Builder{}.Build(kind, input, "")
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return req
}

func TestClientAnalyzeText(t *testing.T) {
	ai := &fakeAI{reply: validReply}
	c := NewClient(ai, ClientConfig{})

	res, err := c.Analyze(context.Background(), mustBuild(t, KindText, "hello"))
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if res.TrustScore != 32 || res.AuthenticityRating != RatingSuspicious {
		t.Fatalf("unexpected result %+v", res)
	}
	if ai.calls != 1 {
		t.Fatalf("expected exactly one provider call, got %d", ai.calls)
	}
	if ai.req.Inline != nil {
		t.Fatal("text request must not carry an inline blob")
	}
	if ai.req.Schema != ResponseSchema {
		t.Fatal("request must carry the response schema")
	}
	if ai.opts.SystemPrompt != SystemInstruction {
		t.Fatal("system instruction not applied")
	}
}

func TestClientAnalyzeMediaSendsBlob(t *testing.T) {
	ai := &fakeAI{reply: validReply}
	c := NewClient(ai, ClientConfig{})

	req, err := Builder{}.BuildBytes(KindImage, pngHeader, "")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.Analyze(context.Background(), req); err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if ai.req.Inline == nil || ai.req.Inline.MimeType != "image/png" || ai.req.Inline.Data != req.Payload {
		t.Fatalf("unexpected inline blob %+v", ai.req.Inline)
	}
}

func TestClientEmptyBodyIsMalformed(t *testing.T) {
	c := NewClient(&fakeAI{reply: ""}, ClientConfig{})
	_, err := c.Analyze(context.Background(), mustBuild(t, KindText, "hello"))
	if !errors.Is(err, ErrMalformedResponse) {
		t.Fatalf("err = %v, want ErrMalformedResponse", err)
	}
}

func TestClientProviderMalformedSentinel(t *testing.T) {
	ai := &fakeAI{err: fmt.Errorf("gemini: empty response: %w", core.ErrMalformedResponse)}
	_, err := NewClient(ai, ClientConfig{}).Analyze(context.Background(), mustBuild(t, KindText, "hello"))
	if !errors.Is(err, ErrMalformedResponse) || errors.Is(err, ErrTransportFailure) {
		t.Fatalf("err = %v, want only ErrMalformedResponse", err)
	}
}

func TestClientUnsupportedInputIsInvalid(t *testing.T) {
	ai := &fakeAI{err: fmt.Errorf("%w: openai cannot analyse \"audio/mpeg\" content", core.ErrUnsupportedInput)}
	_, err := NewClient(ai, ClientConfig{}).Analyze(context.Background(), mustBuild(t, KindText, "hello"))
	if !errors.Is(err, ErrInvalidInput) || errors.Is(err, ErrTransportFailure) {
		t.Fatalf("err = %v, want only ErrInvalidInput", err)
	}
	if Retryable(err) {
		t.Fatal("unsupported input should not be offered as a retry")
	}
}

func TestClientOutOfRangeIsMalformed(t *testing.T) {
	ai := &fakeAI{reply: `{"trustScore":101,"authenticityRating":"Authentic","summary":"","analysisPoints":[],"intentAnalysis":"","metadata":{"detectedFormat":"text/plain"}}`}
	_, err := NewClient(ai, ClientConfig{}).Analyze(context.Background(), mustBuild(t, KindText, "hello"))
	if !errors.Is(err, ErrMalformedResponse) {
		t.Fatalf("err = %v, want ErrMalformedResponse", err)
	}
}

func TestClientTransportFailure(t *testing.T) {
	boom := errors.New("dial tcp: connection refused")
	_, err := NewClient(&fakeAI{err: boom}, ClientConfig{}).Analyze(context.Background(), mustBuild(t, KindText, "hello"))
	if !errors.Is(err, ErrTransportFailure) || !errors.Is(err, boom) {
		t.Fatalf("err = %v, want ErrTransportFailure wrapping cause", err)
	}
	if !Retryable(err) {
		t.Fatal("transport failure should be retryable by the user")
	}
}

func TestClientTimeout(t *testing.T) {
	ai := &fakeAI{reply: validReply, wait: time.Second}
	_, err := NewClient(ai, ClientConfig{Timeout: 10 * time.Millisecond}).Analyze(context.Background(), mustBuild(t, KindText, "hello"))
	if !errors.Is(err, ErrTransportFailure) || !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want transport failure from deadline", err)
	}
}

func TestClientRejectsMalformedRequest(t *testing.T) {
	ai := &fakeAI{reply: validReply}
	_, err := NewClient(ai, ClientConfig{}).Analyze(context.Background(), Request{Kind: KindImage})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
	if ai.calls != 0 {
		t.Fatal("invalid request must not reach the provider")
	}
}
