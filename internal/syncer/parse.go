package syncer

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// ParseWallets validates and lower-cases wallet addresses.
func ParseWallets(inputs []string) ([]string, error) {
	wallets := make([]string, 0, len(inputs))
	for _, input := range inputs {
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		if !common.IsHexAddress(input) {
			return nil, fmt.Errorf("invalid wallet address: %s", input)
		}
		wallets = append(wallets, strings.ToLower(input))
	}
	return wallets, nil
}

// chunkWallets splits the wallet list into batches of at most size entries.
func chunkWallets(wallets []string, size int) [][]string {
	if size <= 0 {
		size = 1
	}
	var batches [][]string
	for start := 0; start < len(wallets); start += size {
		end := start + size
		if end > len(wallets) {
			end = len(wallets)
		}
		batches = append(batches, wallets[start:end])
	}
	return batches
}
