package entity

import (
	"fmt"
	"log/slog"
	"strings"
)

const redacted = "[REDACTED]"

// SecretKey is the Base64 merchant secret shared with Redsys.
// It prints as [REDACTED] in every fmt verb, in slog records and in JSON.
type SecretKey string

func (s SecretKey) IsEmpty() bool {
	return strings.TrimSpace(string(s)) == ""
}

// Reveal returns the raw Base64 value; only key derivation should call it.
func (s SecretKey) Reveal() string {
	return string(s)
}

func (s SecretKey) String() string { return redacted }
func (s SecretKey) GoString() string { return redacted }
func (s SecretKey) Format(f fmt.State, _ rune) { _, _ = f.Write([]byte(redacted)) }
func (s SecretKey) LogValue() slog.Value { return slog.StringValue(redacted) }
func (s SecretKey) MarshalJSON() ([]byte, error) { return []byte(`"` + redacted + `"`), nil }

// DerivedKey is the order-scoped HMAC key. It lives for a single sign or verify call.
type DerivedKey []byte

func (k DerivedKey) String() string { return redacted }
func (k DerivedKey) GoString() string { return redacted }
func (k DerivedKey) Format(f fmt.State, _ rune) { _, _ = f.Write([]byte(redacted)) }
func (k DerivedKey) LogValue() slog.Value { return slog.StringValue(redacted) }
func (k DerivedKey) MarshalJSON() ([]byte, error) { return []byte(`"` + redacted + `"`), nil }

// Wipe zeroes the key bytes.
func (k DerivedKey) Wipe() {
	for i := range k {
		k[i] = 0
	}
}
