package verify

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// Request is one normalized analysis request. Payload is the raw text for KindText
// and canonical standard base64 for binary kinds.
type Request struct {
	Kind        ContentKind
	Payload     string
	MimeType    string
	Instruction string
}

// Bytes returns the submitted content: the text itself, or the decoded blob.
func (r Request) Bytes() ([]byte, error) {
	if !r.Kind.Binary() {
		return []byte(r.Payload), nil
	}
	return base64.StdEncoding.DecodeString(r.Payload)
}

func (r Request) validate() error {
	switch {
	case r.Kind != KindText && !r.Kind.Binary():
		return fmt.Errorf("%w: unknown content kind %q", ErrInvalidInput, r.Kind)
	case r.Payload == "":
		return fmt.Errorf("%w: empty payload", ErrInvalidInput)
	case r.Kind.Binary() && r.MimeType == "":
		return fmt.Errorf("%w: missing mime type", ErrInvalidInput)
	}
	return nil
}

// Builder turns user input into a Request. Zero limits mean unlimited.
type Builder struct {
	MaxTextBytes  int
	MaxMediaBytes int
}

// Build creates a request from text, or from base64 (optionally a data: URL) for
// image and audio. mimeType may be empty; it is then taken from the data URL or
// sniffed from the content.
func (b Builder) Build(kind ContentKind, input, mimeType string) (Request, error) {
	switch kind {
	case KindText:
		return b.buildText(input)
	case KindImage, KindAudio:
		data, urlMime, err := decodeMedia(input)
		if err != nil {
			return Request{}, err
		}
		if mimeType == "" {
			mimeType = urlMime
		}
		return b.buildMedia(kind, data, mimeType)
	default:
		return Request{}, fmt.Errorf("%w: unknown content kind %q", ErrInvalidInput, kind)
	}
}

// BuildBytes creates a request from raw file bytes, as received from an upload.
func (b Builder) BuildBytes(kind ContentKind, data []byte, mimeType string) (Request, error) {
	if kind == KindText {
		return b.buildText(string(data))
	}
	if !kind.Binary() {
		return Request{}, fmt.Errorf("%w: unknown content kind %q", ErrInvalidInput, kind)
	}
	return b.buildMedia(kind, data, mimeType)
}

func (b Builder) buildText(text string) (Request, error) {
	if strings.TrimSpace(text) == "" {
		return Request{}, fmt.Errorf("%w: text is empty", ErrInvalidInput)
	}
	if b.MaxTextBytes > 0 && len(text) > b.MaxTextBytes {
		return Request{}, fmt.Errorf("%w: text exceeds %d bytes", ErrInvalidInput, b.MaxTextBytes)
	}
	return Request{
		Kind:        KindText,
		Payload:     text,
		Instruction: textInstruction(text),
	}, nil
}

func (b Builder) buildMedia(kind ContentKind, data []byte, mimeType string) (Request, error) {
	if len(data) == 0 {
		return Request{}, fmt.Errorf("%w: no %s file selected", ErrInvalidInput, kind)
	}
	if b.MaxMediaBytes > 0 && len(data) > b.MaxMediaBytes {
		return Request{}, fmt.Errorf("%w: %s exceeds %d bytes", ErrInvalidInput, kind, b.MaxMediaBytes)
	}
	mt, err := resolveMime(kind, mimeType, data)
	if err != nil {
		return Request{}, err
	}
	return Request{
		Kind:        kind,
		Payload:     base64.StdEncoding.EncodeToString(data),
		MimeType:    mt,
		Instruction: mediaInstruction(kind),
	}, nil
}

// decodeMedia accepts bare base64 or a data:<mime>;base64,<data> URL.
func decodeMedia(input string) ([]byte, string, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return nil, "", fmt.Errorf("%w: no file selected", ErrInvalidInput)
	}

	var urlMime string
	if strings.HasPrefix(s, "data:") {
		comma := strings.IndexByte(s, ',')
		if comma < 0 {
			return nil, "", fmt.Errorf("%w: invalid data url", ErrInvalidInput)
		}
		header := s[len("data:"):comma]
		if !strings.HasSuffix(header, ";base64") {
			return nil, "", fmt.Errorf("%w: data url is not base64", ErrInvalidInput)
		}
		urlMime = normalizeMime(strings.TrimSuffix(header, ";base64"))
		s = s[comma+1:]
	}

	s = strings.Map(func(r rune) rune {
		switch r {
		case '\n', '\r', '\t', ' ':
			return -1
		}
		return r
	}, s)

	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		var rawErr error
		data, rawErr = base64.RawStdEncoding.DecodeString(s)
		if rawErr != nil {
			return nil, "", fmt.Errorf("%w: file is not valid base64: %v", ErrInvalidInput, err)
		}
	}
	if len(data) == 0 {
		return nil, "", fmt.Errorf("%w: file is empty", ErrInvalidInput)
	}
	return data, urlMime, nil
}

var errMimeFamily = errors.New("mime type does not match content kind")

// resolveMime prefers the declared type, then the sniffed type, then the kind default.
func resolveMime(kind ContentKind, declared string, data []byte) (string, error) {
	family := string(kind) + "/"
	if declared = normalizeMime(declared); declared != "" {
		if !strings.HasPrefix(declared, family) {
			return "", fmt.Errorf("%w: %v: %s for %s", ErrInvalidInput, errMimeFamily, declared, kind)
		}
		return declared, nil
	}
	for m := mimetype.Detect(data); m != nil; m = m.Parent() {
		if mt := normalizeMime(m.String()); strings.HasPrefix(mt, family) {
			return mt, nil
		}
	}
	return kind.defaultMime(), nil
}

func normalizeMime(mt string) string {
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = mt[:i]
	}
	return strings.ToLower(strings.TrimSpace(mt))
}
