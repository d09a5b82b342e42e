package database

import (
	"errors"

	"github.com/ethereum/go-ethereum/common"
)

// ErrInvalidAddress is returned when an address is not a hex-encoded account.
var ErrInvalidAddress = errors.New("invalid address format")

// ToAddress converts a hex-encoded string to an address in its checksum
// form and validates the hex-encoded string is formatted correctly.
func ToAddress(hex string) (string, error) {
	if !common.IsHexAddress(hex) {
		return "", ErrInvalidAddress
	}

	return common.HexToAddress(hex).Hex(), nil
}

// IsAddress verifies whether the underlying data represents a valid
// hex-encoded address.
func IsAddress(hex string) bool {
	return common.IsHexAddress(hex)
}
