// Package contentref holds opaque content-addressed references (job content, results, avatars).
//
// The marketplace never interprets a reference. At the API boundary references are
// written as CID strings when the bytes form a valid CID and as 0x-hex otherwise.
package contentref

import (
	"database/sql/driver"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ipfs/go-cid"
)

// Ref is an opaque content reference
type Ref []byte

// Parse accepts a CID string (optionally prefixed with ipfs://) or 0x-hex bytes
func Parse(s string) (Ref, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		raw, err := hex.DecodeString(s[2:])
		if err != nil {
			return nil, fmt.Errorf("invalid hex content reference: %w", err)
		}
		return Ref(raw), nil
	}
	c, err := cid.Decode(strings.TrimPrefix(s, "ipfs://"))
	if err != nil {
		return nil, fmt.Errorf("invalid content reference %q: %w", s, err)
	}
	return Ref(c.Bytes()), nil
}

// MustParse is Parse for constants and tests
func MustParse(s string) Ref {
	r, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return r
}

// IsEmpty reports whether the reference holds no bytes
func (r Ref) IsEmpty() bool {
	return len(r) == 0
}

// Equal compares two references byte for byte
func (r Ref) Equal(other Ref) bool {
	return string(r) == string(other)
}

// String renders the reference as a CID when possible, 0x-hex otherwise
func (r Ref) String() string {
	if len(r) == 0 {
		return ""
	}
	if c, err := cid.Cast(r); err == nil {
		return c.String()
	}
	return "0x" + hex.EncodeToString(r)
}

// MarshalJSON implements json.Marshaler
func (r Ref) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.String())
}

// UnmarshalJSON implements json.Unmarshaler
func (r *Ref) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// Value implements driver.Valuer
func (r Ref) Value() (driver.Value, error) {
	if r == nil {
		return []byte{}, nil
	}
	return []byte(r), nil
}

// Scan implements sql.Scanner
func (r *Ref) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*r = nil
	case []byte:
		*r = append(Ref(nil), v...)
	case string:
		*r = Ref(v)
	default:
		return fmt.Errorf("cannot scan %T into contentref.Ref", src)
	}
	return nil
}

// GormDataType maps the reference to a binary column
func (Ref) GormDataType() string {
	return "bytes"
}
