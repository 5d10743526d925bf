package transaction

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"

	pocketerr "github.com/mrz1836/pocket/pkg/errors"
)

// ValidateAddress checks that to is a 0x-prefixed 20-byte hex address.
// Mixed-case input must carry a valid EIP-55 checksum.
func ValidateAddress(to string) error {
	if len(to) != 2+2*common.AddressLength || !common.IsHexAddress(to) || !strings.HasPrefix(to, "0x") {
		return pocketerr.WithDetails(pocketerr.ErrInvalidAddress, map[string]string{"address": to})
	}

	body := to[2:]
	mixed := body != strings.ToLower(body) && body != strings.ToUpper(body)
	if mixed && common.HexToAddress(to).Hex() != to {
		return pocketerr.WithDetails(pocketerr.ErrInvalidAddress, map[string]string{
			"address": to,
			"reason":  "checksum mismatch",
		})
	}
	return nil
}
