package core

import (
	"math/big"

	"github.com/piyushdaiya/address-classifier/internal/validator"
)

// ChainState is live account data read from a wallet provider. It is never
// an input to classification.
type ChainState struct {
	Balance     *big.Int `json:"balance"`      // wei
	Ether       string   `json:"ether"`        // balance in ether, 6 places
	Nonce       uint64   `json:"nonce"`        // transaction count
	IsContract  bool     `json:"is_contract"`  // code deployed at the address
	IsActive    bool     `json:"is_active"`    // balance > 0 or nonce > 0
	BlockNumber uint64   `json:"block_number"` // head the reads were made against
}

// Sanction is the watchlist engine's answer for one address.
type Sanction struct {
	Sanctioned bool   `json:"sanctioned"`
	Currency   string `json:"currency,omitempty"`
	Source     string `json:"source,omitempty"`
}

// Report is the standardized CLI output for one address.
type Report struct {
	Address        string           `json:"address"`
	Checksummed    string           `json:"checksum_address,omitempty"`
	ChainID        int64            `json:"chain_id"`
	Network        string           `json:"network"`
	ExplorerURL    string           `json:"explorer_url,omitempty"`
	Label          string           `json:"label,omitempty"`
	Classification validator.Result `json:"classification"`
	Sanction       *Sanction        `json:"sanction,omitempty"`
	State          *ChainState      `json:"state,omitempty"`
	Warnings       []string         `json:"warnings,omitempty"`
}
