package validation

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// ValidateAddress validates an EVM wallet address (20 bytes, hex, optional 0x prefix)
func ValidateAddress(addr string) error {
	if addr == "" {
		return fmt.Errorf("address cannot be empty")
	}

	normalized := strings.TrimPrefix(strings.TrimPrefix(addr, "0x"), "0X")
	if len(normalized) != 2*common.AddressLength {
		return fmt.Errorf("invalid address length: expected %d characters (without 0x), got %d", 2*common.AddressLength, len(normalized))
	}

	if !common.IsHexAddress(addr) {
		return fmt.Errorf("invalid hex address: %s", addr)
	}

	return nil
}

// NormalizeAddress converts an address to its 0x-prefixed EIP-55 checksum form
func NormalizeAddress(addr string) string {
	return common.HexToAddress(addr).Hex()
}

// ValidateAndNormalizeAddress validates an address and returns its normalized form
func ValidateAndNormalizeAddress(addr string) (string, error) {
	addr = strings.TrimSpace(addr)
	if err := ValidateAddress(addr); err != nil {
		return "", err
	}
	return NormalizeAddress(addr), nil
}
