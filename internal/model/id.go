package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ID is an opaque identifier assigned by the remote service. The service
// emits integers; IDs are kept as the literal text so that no digit is ever
// lost to floating point and no arithmetic is done on them.
type ID string

func (id ID) String() string {
	return string(id)
}

// MarshalJSON writes integer literals back as JSON numbers and anything
// else as a JSON string.
func (id ID) MarshalJSON() ([]byte, error) {
	if id == "" {
		return []byte("null"), nil
	}
	if isIntegerLiteral(string(id)) {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	if !isIntegerLiteral(string(b)) {
		return fmt.Errorf("invalid id %s: want an integer or a string", string(b))
	}
	*id = ID(b)
	return nil
}

// isIntegerLiteral matches the JSON integer grammar: an optional minus, then
// 0 or a digit run without a leading zero.
func isIntegerLiteral(s string) bool {
	if s != "" && s[0] == '-' {
		s = s[1:]
	}
	if s == "" {
		return false
	}
	if s[0] == '0' {
		return len(s) == 1
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
