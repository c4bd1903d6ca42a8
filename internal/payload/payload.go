// Package payload encodes a test definition into a portable share token and
// back. The token travels outside the store: embedded in a link's testData
// query parameter or copy-pasted as a manual test code.
package payload

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"

	"github.com/nhattran/eduai/internal/model"
)

// ErrMalformed reports a token that cannot be decoded into a valid test.
// Callers surface it as a recoverable user-facing message.
var ErrMalformed = errors.New("malformed test payload")

// Encode serializes a test into a share token: JSON, percent-encoded, then
// base64. Sharing implies publication, so the encoded copy always carries
// isPublished=true regardless of the source value.
func Encode(t model.TestData) (string, error) {
	t.IsPublished = true
	data, err := json.Marshal(t)
	if err != nil {
		return "", fmt.Errorf("marshal test: %w", err)
	}
	escaped := url.QueryEscape(string(data))
	return base64.StdEncoding.EncodeToString([]byte(escaped)), nil
}

// Decode reverses Encode and validates the result. Any structural failure
// (wrong alphabet, truncation, bad JSON, missing required fields, or a
// multiple-choice answer outside the generated option labels) wraps
// ErrMalformed.
func Decode(token string) (*model.TestData, error) {
	raw, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("%w: decode base64: %v", ErrMalformed, err)
	}
	unescaped, err := url.QueryUnescape(string(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: unescape: %v", ErrMalformed, err)
	}
	var t model.TestData
	if err := json.Unmarshal([]byte(unescaped), &t); err != nil {
		return nil, fmt.Errorf("%w: parse JSON: %v", ErrMalformed, err)
	}
	if err := model.ValidateTest(&t); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return &t, nil
}
