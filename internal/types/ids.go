package types

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// ID identifies a plan run or a history entry. It wraps a UUIDv4 string so
// run ids are safe to use as state-document filenames and JSON keys.
type ID string

// NewID generates a new run or history entry id.
func NewID() ID {
	return ID(uuid.New().String())
}

// ParseID validates a caller-supplied string (e.g. a CLI argument) as an ID.
func ParseID(s string) (ID, error) {
	if s == "" {
		return "", fmt.Errorf("id cannot be empty")
	}

	parsed, err := uuid.Parse(s)
	if err != nil {
		return "", fmt.Errorf("invalid id %q: %w", s, err)
	}

	return ID(parsed.String()), nil
}

// String returns the string representation of the ID.
func (id ID) String() string {
	return string(id)
}

// IsZero reports whether the ID is unset.
func (id ID) IsZero() bool {
	return id == ""
}

// MarshalJSON implements the json.Marshaler interface. Unset ids serialize
// as null.
func (id ID) MarshalJSON() ([]byte, error) {
	if id.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(string(id))
}

// UnmarshalJSON implements the json.Unmarshaler interface. Empty and null
// inputs set the zero value; anything else must be a valid UUID.
func (id *ID) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*id = ""
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("failed to unmarshal id: %w", err)
	}

	if s == "" {
		*id = ""
		return nil
	}

	parsed, err := ParseID(s)
	if err != nil {
		return err
	}

	*id = parsed
	return nil
}
