package anonymizer

import (
	"context"
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash"
)

// HashText replaces text with a hex digest truncated to the input length, so
// column constraints keep holding. Deterministic: equal inputs map to equal
// outputs, which keeps analytical joins possible. Irreversible.
type HashText struct {
	newHash func() hash.Hash
}

// MD5Text and SHA256Text mirror the commonly used digests.
func MD5Text() HashText    { return HashText{newHash: md5.New} }
func SHA256Text() HashText { return HashText{newHash: sha256.New} }

// NewHashText selects the digest by name.
func NewHashText(algorithm string) (HashText, error) {
	switch algorithm {
	case "md5":
		return HashText{newHash: md5.New}, nil
	case "sha1":
		return HashText{newHash: sha1.New}, nil
	case "sha256":
		return HashText{newHash: sha256.New}, nil
	case "sha512":
		return HashText{newHash: sha512.New}, nil
	default:
		return HashText{}, fmt.Errorf("unsupported hash algorithm %q", algorithm)
	}
}

func (HashText) Reversible() bool { return false }

func (h HashText) Anonymize(_ context.Context, _ FieldContext, value any) (any, error) {
	s, err := asString(value)
	if err != nil {
		return nil, err
	}
	if s == "" {
		return s, nil
	}
	newHash := h.newHash
	if newHash == nil {
		newHash = sha256.New
	}
	digest := newHash()
	digest.Write([]byte(s))
	out := hex.EncodeToString(digest.Sum(nil))
	if len(out) > len(s) {
		out = out[:len(s)]
	}
	return out, nil
}
