package events

import (
	"math/big"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

func formatAmount(v *uint256.Int) string {
	if v == nil {
		return "0"
	}
	return v.Dec()
}

func formatDelta(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

func formatAddress(addr [20]byte) string {
	return common.Address(addr).Hex()
}

// formatID renders a fixed-size identifier as its trimmed ASCII name when
// printable, falling back to hex.
func formatID(id []byte) string {
	trimmed := strings.TrimRight(string(id), "\x00")
	for _, r := range trimmed {
		if r < 0x20 || r > 0x7e {
			return "0x" + common.Bytes2Hex(id)
		}
	}
	if trimmed == "" {
		return "0x" + common.Bytes2Hex(id)
	}
	return trimmed
}

func intToString(v int64) string {
	return strconv.FormatInt(v, 10)
}
