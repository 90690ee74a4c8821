package util

import (
	"encoding/base64"
	"errors"
	"strings"
)

var ErrEmptyImage = errors.New("image is empty")

// DecodeBase64MaybeDataURL decodes base64 image data. A data:URI prefix is
// stripped and its MIME type returned as a hint.
func DecodeBase64MaybeDataURL(s string) ([]byte, string, error) {
	s = strings.TrimSpace(s)
	var hintMIME string
	if strings.HasPrefix(strings.ToLower(s), "data:") {
		// data:<mime>;base64,<payload>
		if idx := strings.IndexByte(s, ','); idx > 0 {
			meta := s[len("data:"):idx]
			if semi := strings.IndexByte(meta, ';'); semi >= 0 {
				hintMIME = meta[:semi]
			} else {
				hintMIME = meta
			}
			s = s[idx+1:]
		}
	}
	if s == "" {
		return nil, "", ErrEmptyImage
	}
	// std first, then URL-safe, then unpadded variants
	var firstErr error
	for _, enc := range []*base64.Encoding{
		base64.StdEncoding,
		base64.URLEncoding,
		base64.RawStdEncoding,
		base64.RawURLEncoding,
	} {
		b, err := enc.DecodeString(s)
		if err == nil {
			if len(b) == 0 {
				return nil, "", ErrEmptyImage
			}
			return b, hintMIME, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return nil, "", firstErr
}
