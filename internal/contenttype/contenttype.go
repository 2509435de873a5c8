// Package contenttype figures out what a media payload actually is when
// the upstream didn't bother to label it properly.
package contenttype

import (
	"encoding/hex"
	"strings"

	"github.com/cirruslabs/mediacache/internal/media"
)

const (
	OctetStream       = "application/octet-stream"
	BinaryOctetStream = "binary/octet-stream"

	OggOpus = "audio/ogg; codecs=opus"
	WAV     = "audio/wav"
	MPEG    = "audio/mpeg"
)

const sniffLen = 4

//nolint:gochecknoglobals // magic numbers are checked in order, first match wins
var audioSignatures = []struct {
	prefix      string
	contentType string
}{
	{prefix: "4f676753", contentType: OggOpus}, // "OggS"
	{prefix: "52494646", contentType: WAV},     // "RIFF"
	{prefix: "494433", contentType: MPEG},      // "ID3"
}

// IsGeneric reports whether the content type carries no useful information.
func IsGeneric(contentType string) bool {
	switch essence(contentType) {
	case "", OctetStream, BinaryOctetStream:
		return true
	default:
		return false
	}
}

// IsOgg reports whether the content type denotes OGG/Opus audio.
func IsOgg(contentType string) bool {
	switch essence(contentType) {
	case "audio/ogg", "audio/opus":
		return true
	default:
		return false
	}
}

// Resolve returns the content type to use for the payload, or an empty
// string when it can't be determined, in which case the payload's own
// declared type should be kept.
func Resolve(header string, kind media.Kind, payload []byte) string {
	if !IsGeneric(header) {
		return header
	}

	if kind != media.KindAudio {
		return ""
	}

	return Sniff(payload)
}

// Sniff classifies an audio payload by its magic number, falling back to OGG/Opus.
func Sniff(payload []byte) string {
	prefix := hex.EncodeToString(payload[:min(sniffLen, len(payload))])

	for _, signature := range audioSignatures {
		if strings.HasPrefix(prefix, signature.prefix) {
			return signature.contentType
		}
	}

	return OggOpus
}

// Label picks the content type to attach to the final binary object: the resolved
// type only replaces a declared type that is empty or generic.
func Label(declared string, resolved string) string {
	if !IsGeneric(declared) {
		return declared
	}

	if resolved != "" {
		return resolved
	}

	return declared
}

func essence(contentType string) string {
	value, _, _ := strings.Cut(contentType, ";")

	return strings.ToLower(strings.TrimSpace(value))
}
