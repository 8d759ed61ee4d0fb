package pagination

import (
	"fmt"
	"strconv"
)

// Kind identifies which variant a Cursor holds.
type Kind uint8

const (
	// KindNone is the zero Cursor: no resume position. The page parameter is
	// omitted from the request and the server starts wherever it pleases.
	KindNone Kind = iota

	// KindPage is an absolute page number, starting at 1.
	KindPage

	// KindBefore asks for records whose ID is smaller than the boundary.
	KindBefore

	// KindAfter asks for records whose ID is larger than the boundary.
	KindAfter
)

// Cursor is an opaque resume position for a paginated listing: either an
// absolute page number or an ID boundary relative to records already seen.
// The zero value means unset.
type Cursor struct {
	kind Kind
	n    uint64
}

// Page returns a Cursor addressing the n-th page of a listing.
func Page(n uint64) Cursor { return Cursor{kind: KindPage, n: n} }

// Before returns a Cursor resuming with records whose ID is less than id.
func Before(id uint64) Cursor { return Cursor{kind: KindBefore, n: id} }

// After returns a Cursor resuming with records whose ID is greater than id.
func After(id uint64) Cursor { return Cursor{kind: KindAfter, n: id} }

// Kind returns the cursor variant.
func (c Cursor) Kind() Kind { return c.kind }

// Value returns the page number or boundary ID, depending on Kind.
func (c Cursor) Value() uint64 { return c.n }

// IsZero reports whether the cursor is unset.
func (c Cursor) IsZero() bool { return c.kind == KindNone }

// String renders the wire form of the cursor: the bare decimal page number
// for Page, "b" plus the boundary ID for Before, "a" plus the boundary ID for
// After. The zero Cursor renders as the empty string.
func (c Cursor) String() string {
	switch c.kind {
	case KindPage:
		return strconv.FormatUint(c.n, 10)
	case KindBefore:
		return "b" + strconv.FormatUint(c.n, 10)
	case KindAfter:
		return "a" + strconv.FormatUint(c.n, 10)
	default:
		return ""
	}
}

// ParseCursor is the inverse of String: a leading 'a' selects After, a
// leading 'b' selects Before, anything else must be an unsigned decimal page
// number. ParseCursor(c.String()) == c for every non-zero cursor.
func ParseCursor(s string) (Cursor, error) {
	if s == "" {
		return Cursor{}, fmt.Errorf("parse cursor: empty string")
	}

	switch s[0] {
	case 'a':
		id, err := strconv.ParseUint(s[1:], 10, 64)
		if err != nil {
			return Cursor{}, fmt.Errorf("parse cursor %q: %w", s, err)
		}
		return After(id), nil
	case 'b':
		id, err := strconv.ParseUint(s[1:], 10, 64)
		if err != nil {
			return Cursor{}, fmt.Errorf("parse cursor %q: %w", s, err)
		}
		return Before(id), nil
	default:
		n, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return Cursor{}, fmt.Errorf("parse cursor %q: %w", s, err)
		}
		return Page(n), nil
	}
}

// MarshalText implements encoding.TextMarshaler.
func (c Cursor) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Cursor) UnmarshalText(text []byte) error {
	parsed, err := ParseCursor(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
