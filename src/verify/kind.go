package verify

import (
	"fmt"
	"strings"
)

// ContentKind selects the request shape and payload encoding.
type ContentKind string

const (
	KindText  ContentKind = "text"
	KindImage ContentKind = "image"
	KindAudio ContentKind = "audio"
)

// ParseKind accepts text, image or audio in any case.
func ParseKind(raw string) (ContentKind, error) {
	switch k := ContentKind(strings.ToLower(strings.TrimSpace(raw))); k {
	case KindText, KindImage, KindAudio:
		return k, nil
	default:
		return "", fmt.Errorf("%w: unknown content kind %q", ErrInvalidInput, raw)
	}
}

// Binary reports whether the kind travels as a base64 blob.
func (k ContentKind) Binary() bool {
	return k == KindImage || k == KindAudio
}

func (k ContentKind) defaultMime() string {
	switch k {
	case KindImage:
		return "image/jpeg"
	case KindAudio:
		return "audio/mp3"
	default:
		return ""
	}
}
