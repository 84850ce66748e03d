// Package cursor implements the opaque pagination cursor codec.
//
// A cursor encodes an ordering key: the values of the fields an item is
// ordered by, plus a unique ID as the final tie-break component. Tokens are
// canonical CBOR wrapped in a checksummed envelope and base64 URL-encoded,
// so equal keys always produce byte-identical tokens and corrupted tokens
// are rejected instead of silently decoding into a different position.
package cursor

import (
	"encoding/base64"
	"errors"
	"fmt"
	"hash/crc32"
	"strings"
	"time"

	"github.com/fxamacker/cbor/v2"
)

// ErrMalformed is returned when a cursor string cannot be decoded.
// Use with errors.Is() for matching.
var ErrMalformed = errors.New("malformed cursor")

// Key is the ordering key encoded in a cursor.
//
// Values holds the ordering field values in their canonical order.
// ID is the unique tie-break identifier and always sorts last, which
// guarantees that no two distinct items share a key.
type Key struct {
	Values []any
	ID     string
}

// NewKey builds a Key with all values normalized to the canonical wire
// types (int64, float64, string, bool, nil), so a decoded key compares
// equal to the key it was encoded from.
func NewKey(id string, values ...any) Key {
	if len(values) == 0 {
		return Key{ID: id}
	}
	normalized := make([]any, len(values))
	for i, v := range values {
		normalized[i] = normalize(v)
	}
	return Key{Values: normalized, ID: id}
}

// keyRecord is the CBOR representation of a Key.
type keyRecord struct {
	Values []any  `cbor:"1,keyasint,omitempty"`
	ID     string `cbor:"2,keyasint"`
}

// envelope wraps the key payload with an integrity checksum so that
// corrupted tokens fail decoding instead of yielding a valid-looking key.
type envelope struct {
	Payload []byte `cbor:"1,keyasint"`
	Sum     uint32 `cbor:"2,keyasint"`
}

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	// Canonical encoding keeps tokens deterministic: same key, same bytes.
	encMode, err = cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	// Decode all integers as int64 so keys round-trip through interface{}.
	decMode, err = cbor.DecOptions{IntDec: cbor.IntDecConvertSigned}.DecMode()
	if err != nil {
		panic(err)
	}
}

// Encode encodes an ordering key into an opaque cursor string.
// Encoding is deterministic: the same key always yields the same token.
func Encode(key Key) (string, error) {
	payload, err := encMode.Marshal(keyRecord{Values: key.Values, ID: key.ID})
	if err != nil {
		return "", fmt.Errorf("marshal cursor key: %w", err)
	}
	wrapped, err := encMode.Marshal(envelope{
		Payload: payload,
		Sum:     crc32.ChecksumIEEE(payload),
	})
	if err != nil {
		return "", fmt.Errorf("marshal cursor envelope: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(wrapped), nil
}

// Decode decodes a cursor string back into the ordering key it was
// produced from. It never panics on garbage input: any token that is not
// a well-formed encoding, including checksum mismatches, returns an error
// wrapping ErrMalformed.
func Decode(token string) (Key, error) {
	if token == "" {
		return Key{}, fmt.Errorf("%w: empty token", ErrMalformed)
	}
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return Key{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	var env envelope
	if err := decMode.Unmarshal(raw, &env); err != nil {
		return Key{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if crc32.ChecksumIEEE(env.Payload) != env.Sum {
		return Key{}, fmt.Errorf("%w: checksum mismatch", ErrMalformed)
	}
	var rec keyRecord
	if err := decMode.Unmarshal(env.Payload, &rec); err != nil {
		return Key{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return Key{Values: rec.Values, ID: rec.ID}, nil
}

// Compare imposes a strict total order on keys: ordering values pairwise,
// then the ID as the final tie-break. Returns -1, 0, or 1.
func Compare(a, b Key) int {
	n := len(a.Values)
	if len(b.Values) < n {
		n = len(b.Values)
	}
	for i := 0; i < n; i++ {
		if c := compareValue(a.Values[i], b.Values[i]); c != 0 {
			return c
		}
	}
	if len(a.Values) != len(b.Values) {
		if len(a.Values) < len(b.Values) {
			return -1
		}
		return 1
	}
	return strings.Compare(a.ID, b.ID)
}

// normalize converts a value to its canonical wire type.
func normalize(v any) any {
	switch val := v.(type) {
	case nil:
		return nil
	case bool, int64, float64, string:
		return val
	case int:
		return int64(val)
	case int8:
		return int64(val)
	case int16:
		return int64(val)
	case int32:
		return int64(val)
	case uint:
		return int64(val)
	case uint8:
		return int64(val)
	case uint16:
		return int64(val)
	case uint32:
		return int64(val)
	case uint64:
		return int64(val)
	case float32:
		return float64(val)
	case time.Time:
		return val.UTC().Format(time.RFC3339Nano)
	case []byte:
		return string(val)
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}

// compareValue compares two normalized values. Values of different kinds
// are ordered by kind so the result stays deterministic.
func compareValue(a, b any) int {
	ra, rb := valueRank(a), valueRank(b)
	if ra != rb {
		if ra < rb {
			return -1
		}
		return 1
	}
	switch av := a.(type) {
	case nil:
		return 0
	case bool:
		bv := b.(bool)
		switch {
		case av == bv:
			return 0
		case !av:
			return -1
		default:
			return 1
		}
	case int64:
		if bv, ok := b.(int64); ok {
			switch {
			case av < bv:
				return -1
			case av > bv:
				return 1
			default:
				return 0
			}
		}
		return compareNumber(float64(av), b)
	case float64:
		return compareNumber(av, b)
	case string:
		return strings.Compare(av, b.(string))
	default:
		return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
	}
}

func compareNumber(av float64, b any) int {
	var bv float64
	switch n := b.(type) {
	case int64:
		bv = float64(n)
	case float64:
		bv = n
	}
	switch {
	case av < bv:
		return -1
	case av > bv:
		return 1
	default:
		return 0
	}
}

func valueRank(v any) int {
	switch v.(type) {
	case nil:
		return 0
	case bool:
		return 1
	case int64, float64:
		return 2
	case string:
		return 3
	default:
		return 4
	}
}
