package authentic

import (
	"encoding/base64"
	"math/bits"
	"strconv"

	"github.com/google/uuid"
)

type uidKind int

const (
	uidKindUUID uidKind = iota
	uidKindInt
	uidKindString
)

// UID is a decoded primary key. The kind records what the encoded
// bytes turned out to be.
type UID struct {
	uuid uuid.UUID
	num  uint64
	str  string
	kind uidKind
}

// IsUUID reports whether the identifier decoded as a 128-bit UUID.
func (u UID) IsUUID() bool { return u.kind == uidKindUUID }

// UUID returns the UUID primary key. Only meaningful when IsUUID is true.
func (u UID) UUID() uuid.UUID { return u.uuid }

// Int returns the integer primary key. Only meaningful for integer keys.
func (u UID) Int() uint64 { return u.num }

// String renders the key in its canonical textual form.
func (u UID) String() string {
	switch u.kind {
	case uidKindUUID:
		return u.uuid.String()
	case uidKindString:
		return u.str
	default:
		return strconv.FormatUint(u.num, 10)
	}
}

// EncodeUID encodes a UUID primary key into a URL safe opaque string.
// The encoding is reversible and carries no secret; it only keeps raw
// keys out of URLs and emails.
func EncodeUID(pk uuid.UUID) string {
	return base64.RawURLEncoding.EncodeToString(pk[:])
}

// EncodeIntUID encodes an unsigned integer primary key using its
// minimal big-endian byte representation.
func EncodeIntUID(pk uint64) string {
	size := (bits.Len64(pk) + 7) / 8
	if size == 0 {
		size = 1
	}
	buf := make([]byte, size)
	for i := size - 1; i >= 0; i-- {
		buf[i] = byte(pk)
		pk >>= 8
	}
	return base64.RawURLEncoding.EncodeToString(buf)
}

// DecodeUID reverses EncodeUID/EncodeIntUID. A 16 byte payload is
// reconstructed as a UUID first; anything shorter decodes as an
// integer when it fits, falling back to the raw string. Malformed
// input always maps to ErrInvalidIdentifier.
func DecodeUID(s string) (UID, error) {
	if s == "" {
		return UID{}, ErrInvalidIdentifier
	}

	raw, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		// tolerate padded input
		raw, err = base64.URLEncoding.DecodeString(s)
		if err != nil {
			return UID{}, ErrInvalidIdentifier
		}
	}

	if len(raw) == 0 {
		return UID{}, ErrInvalidIdentifier
	}

	if len(raw) == 16 {
		if id, err := uuid.FromBytes(raw); err == nil {
			return UID{uuid: id, kind: uidKindUUID}, nil
		}
	}

	if len(raw) <= 8 {
		var n uint64
		for _, b := range raw {
			n = n<<8 | uint64(b)
		}
		return UID{num: n, kind: uidKindInt}, nil
	}

	return UID{str: string(raw), kind: uidKindString}, nil
}
