package types

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"
)

// Address identifies an account participating in sales and exchanges.
type Address [20]byte

// BurnAddress is the canonical sink for burned collectibles. Items transferred
// here are considered destroyed.
var BurnAddress = Address{
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0xde, 0xad,
}

var errInvalidAddress = errors.New("types: invalid address")

// Hex renders the address as a 0x-prefixed lowercase hex string.
func (a Address) Hex() string {
	return "0x" + hex.EncodeToString(a[:])
}

// IsZero reports whether the address is the zero value.
func (a Address) IsZero() bool {
	return a == Address{}
}

// MarshalJSON renders the address as its hex form.
func (a Address) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.Hex())
}

// UnmarshalJSON accepts the hex forms ParseAddress accepts.
func (a *Address) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseAddress(raw)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// ParseAddress decodes a 0x-prefixed or bare 40-character hex string.
func ParseAddress(s string) (Address, error) {
	trimmed := strings.TrimSpace(s)
	trimmed = strings.TrimPrefix(trimmed, "0x")
	trimmed = strings.TrimPrefix(trimmed, "0X")
	var addr Address
	if len(trimmed) != len(addr)*2 {
		return Address{}, errInvalidAddress
	}
	raw, err := hex.DecodeString(trimmed)
	if err != nil {
		return Address{}, errInvalidAddress
	}
	copy(addr[:], raw)
	return addr, nil
}
