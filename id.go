// Package seqgen - id.go provides the ID type and its decimal encodings for
// JSON, text formats and database/sql.

package seqgen

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"strconv"
)

// ErrInvalidIDString is returned when text does not hold a decimal int64.
var ErrInvalidIDString = errors.New("invalid ID string")

// ID is an identifier minted by a SequenceGenerator.
//
// It is a plain int64 underneath; the fields it packs can only be read back
// through the generator (or Layout) that produced it, since their meaning
// depends on the epoch and layout in use.
type ID int64

// ============================================================================
// Conversions
// ============================================================================

// Int64 returns the ID as an int64.
func (id ID) Int64() int64 {
	return int64(id)
}

// String returns the decimal representation.
func (id ID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// ParseString parses a decimal string into an ID.
//
//	id, err := seqgen.ParseString("1234567890123456789")
func ParseString(s string) (ID, error) {
	i, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidIDString, s)
	}
	return ID(i), nil
}

// ============================================================================
// JSON / Text
// ============================================================================

// MarshalJSON encodes the ID as a quoted decimal string. IDs exceed 2^53, the
// largest integer a JavaScript number holds exactly.
//
//	{"id": "1234567890123456789"}
func (id ID) MarshalJSON() ([]byte, error) {
	b := make([]byte, 0, 22)
	b = append(b, '"')
	b = strconv.AppendInt(b, int64(id), 10)
	b = append(b, '"')
	return b, nil
}

// UnmarshalJSON accepts both the quoted form and a bare number. JSON null
// leaves the ID unchanged.
func (id *ID) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" {
		return nil
	}
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}

	parsed, err := ParseString(s)
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (id ID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *ID) UnmarshalText(text []byte) error {
	parsed, err := ParseString(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// ============================================================================
// SQL Database Integration
// ============================================================================

// Scan implements sql.Scanner. It accepts INTEGER columns as well as
// decimal TEXT; NULL scans as zero.
func (id *ID) Scan(value any) error {
	switch v := value.(type) {
	case nil:
		*id = 0
	case int64:
		*id = ID(v)
	case []byte:
		return id.UnmarshalText(v)
	case string:
		return id.UnmarshalText([]byte(v))
	default:
		return fmt.Errorf("cannot scan %T into ID", value)
	}
	return nil
}

// Value implements driver.Valuer, storing the ID as an integer.
func (id ID) Value() (driver.Value, error) {
	return int64(id), nil
}
