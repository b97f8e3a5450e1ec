package openai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stake-plus/veritrust/src/ai/core"
)

const chatReply = `{"id":"x","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"{\"ok\":true}"},"finish_reason":"stop"}]}`

type fakeOpenAI struct {
	chat  map[string]interface{}
	calls int32
	reply string
}

func (f *fakeOpenAI) server(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&f.calls, 1)
		switch {
		case strings.HasSuffix(r.URL.Path, "/chat/completions"):
			b, _ := io.ReadAll(r.Body)
			_ = json.Unmarshal(b, &f.chat)
			w.Header().Set("Content-Type", "application/json")
			_, _ = io.WriteString(w, f.reply)
		default:
			http.NotFound(w, r)
		}
	}))
}

func newTestClient(t *testing.T, url string) core.Client {
	t.Helper()
	c, err := core.NewClient(core.FactoryConfig{Provider: "openai", OpenAIKey: "k", BaseURL: url, SystemPrompt: "sys"})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

func TestAnalyzeImageUsesDataURL(t *testing.T) {
	f := &fakeOpenAI{reply: chatReply}
	srv := f.server(t)
	defer srv.Close()

	out, err := newTestClient(t, srv.URL).Analyze(context.Background(), core.Request{
		Prompt: "look",
		Inline: &core.Blob{MimeType: "image/png", Data: "AAAA"},
		Schema: &core.Schema{Type: "object", Properties: map[string]*core.Schema{"ok": {Type: "boolean"}}, Required: []string{"ok"}},
	}, core.Options{})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if out != `{"ok":true}` {
		t.Fatalf("out = %q", out)
	}

	body, _ := json.Marshal(f.chat)
	for _, want := range []string{`data:image/png;base64,AAAA`, `"json_schema"`, `"verification_result"`, `"model":"gpt-4o"`} {
		if !strings.Contains(string(body), want) {
			t.Errorf("request missing %s: %s", want, body)
		}
	}
	if n := atomic.LoadInt32(&f.calls); n != 1 {
		t.Fatalf("calls = %d, want 1", n)
	}
	if _, ok := f.chat["max_tokens"]; ok {
		t.Fatalf("max_tokens sent without a configured cap: %s", body)
	}
}

func TestAnalyzeAudioRefusedBeforeAnyCall(t *testing.T) {
	f := &fakeOpenAI{reply: chatReply}
	srv := f.server(t)
	defer srv.Close()

	_, err := newTestClient(t, srv.URL).Analyze(context.Background(), core.Request{
		Prompt: "listen",
		Inline: &core.Blob{MimeType: "audio/mpeg", Data: "SUQz"},
	}, core.Options{})
	if !errors.Is(err, core.ErrUnsupportedInput) {
		t.Fatalf("err = %v, want ErrUnsupportedInput", err)
	}
	if n := atomic.LoadInt32(&f.calls); n != 0 {
		t.Fatalf("provider received %d requests for refused audio", n)
	}
}

func TestAnalyzeEmptyContentIsMalformed(t *testing.T) {
	f := &fakeOpenAI{reply: `{"choices":[{"index":0,"message":{"role":"assistant","content":""},"finish_reason":"length"}]}`}
	srv := f.server(t)
	defer srv.Close()

	_, err := newTestClient(t, srv.URL).Analyze(context.Background(), core.Request{Prompt: "x"}, core.Options{})
	if !errors.Is(err, core.ErrMalformedResponse) {
		t.Fatalf("err = %v, want ErrMalformedResponse", err)
	}
}
