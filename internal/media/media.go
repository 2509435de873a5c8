package media

import (
	"fmt"
	"strings"
)

type Kind string

const (
	KindImage    Kind = "image"
	KindAudio    Kind = "audio"
	KindVideo    Kind = "video"
	KindDocument Kind = "document"
)

func ParseKind(s string) (Kind, error) {
	switch kind := Kind(strings.ToLower(strings.TrimSpace(s))); kind {
	case KindImage, KindAudio, KindVideo, KindDocument:
		return kind, nil
	case "":
		return KindDocument, nil
	default:
		return "", fmt.Errorf("unsupported media kind %q", s)
	}
}

// Matches tells whether the declared content type is acceptable
// for this kind of media. Only images are strictly validated.
func (kind Kind) Matches(contentType string) bool {
	if kind != KindImage {
		return true
	}

	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(contentType)), "image/")
}

func (kind Kind) String() string {
	return string(kind)
}

type Image struct {
	Format string `json:"format"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Descriptor describes a single retrieval attempt.
type Descriptor struct {
	OriginalURL         string `json:"originalUrl"`
	ResolvedContentType string `json:"resolvedContentType,omitempty"`
	AuthRequired        bool   `json:"authRequired"`
	Kind                Kind   `json:"kind"`
	Image               *Image `json:"image,omitempty"`
}
