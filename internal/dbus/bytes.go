package dbus

import (
	"fmt"
	"strings"
)

// EncodingError reports a group id that cannot be turned into a byte array.
type EncodingError struct {
	ID     string
	Reason string
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("encode group id %q: %s", e.ID, e.Reason)
}

// EncodeBytes converts a hex group id ("abcdef") into the dbus-send byte
// array form ("0xab,0xcd,0xef"). Upper-case digits are folded to lower case.
func EncodeBytes(hexID string) (string, error) {
	id := strings.ToLower(strings.TrimSpace(hexID))
	if id == "" {
		return "", &EncodingError{ID: hexID, Reason: "empty id"}
	}
	if len(id)%2 != 0 {
		return "", &EncodingError{ID: hexID, Reason: "odd length"}
	}
	if !isHex(id) {
		return "", &EncodingError{ID: hexID, Reason: "not hexadecimal"}
	}

	var b strings.Builder
	b.Grow(len(id) / 2 * 5)
	for i := 0; i < len(id); i += 2 {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString("0x")
		b.WriteString(id[i : i+2])
	}
	return b.String(), nil
}

// DecodeBytes reverses EncodeBytes.
func DecodeBytes(encoded string) (string, error) {
	trimmed := strings.TrimSpace(encoded)
	if trimmed == "" {
		return "", &EncodingError{ID: encoded, Reason: "empty byte array"}
	}
	var b strings.Builder
	for _, token := range strings.Split(trimmed, ",") {
		token = strings.ToLower(strings.TrimSpace(token))
		digits, ok := strings.CutPrefix(token, "0x")
		if !ok || len(digits) != 2 || !isHex(digits) {
			return "", &EncodingError{ID: encoded, Reason: fmt.Sprintf("bad byte token %q", token)}
		}
		b.WriteString(digits)
	}
	return b.String(), nil
}

// bytesFromTokens builds both representations from the space separated
// byte pairs printed by dbus-send.
func bytesFromTokens(tokens []string) (encoded, hexID string) {
	prefixed := make([]string, len(tokens))
	for i, t := range tokens {
		prefixed[i] = "0x" + t
	}
	return strings.Join(prefixed, ","), strings.Join(tokens, "")
}

func isHex(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
