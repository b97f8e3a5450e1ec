package core

import (
	"context"
	"errors"
)

// ErrMalformedResponse marks a provider reply that arrived but carried no usable
// content (empty candidate, undecodable envelope). Transport failures are returned
// unwrapped so callers can tell the two apart.
var ErrMalformedResponse = errors.New("ai: malformed response")

// ErrUnsupportedInput marks a request the provider cannot take at all, such as a
// media type it has no input path for. It is returned before any network call.
var ErrUnsupportedInput = errors.New("ai: input not supported by provider")

// Blob is binary input sent inline with a request.
type Blob struct {
	MimeType string
	Data     string // standard base64
}

// Schema is a provider-neutral description of the JSON object the model must return.
// Providers translate it into their own dialect.
type Schema struct {
	Type        string // object, array, string, integer, number, boolean
	Description string
	Properties  map[string]*Schema
	Order       []string
	Required    []string
	Items       *Schema
	Enum        []string
	Minimum     *float64
	Maximum     *float64
}

// Request is a single analysis call.
type Request struct {
	Prompt string
	Inline *Blob
	Schema *Schema
}

// Options controls model behavior; fields are optional per provider.
type Options struct {
	Model               string
	Temperature         float64
	MaxCompletionTokens int
	SystemPrompt        string
	RetryAttempts       int
}

// Client is a provider-agnostic interface for the model call we need. It returns the
// raw model text; interpreting it is the caller's job.
type Client interface {
	Analyze(ctx context.Context, req Request, opts Options) (string, error)
}

// Float returns a pointer to v, for Schema bounds.
func Float(v float64) *float64 {
	return &v
}
