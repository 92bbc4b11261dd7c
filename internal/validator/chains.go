package validator

import (
	"fmt"
	"sort"
	"strings"
)

// Chain is one supported network and the address family it uses.
type Chain struct {
	ID       int64         `json:"chain_id"`
	Name     string        `json:"name"`
	Explorer string        `json:"explorer"`
	Strategy ChainStrategy `json:"-"`
}

var evm = &EVMStrategy{}

var registry = map[int64]Chain{
	1:        {ID: 1, Name: "Ethereum", Explorer: "https://etherscan.io", Strategy: evm},
	10:       {ID: 10, Name: "OP Mainnet", Explorer: "https://optimistic.etherscan.io", Strategy: evm},
	56:       {ID: 56, Name: "BNB Smart Chain", Explorer: "https://bscscan.com", Strategy: evm},
	137:      {ID: 137, Name: "Polygon", Explorer: "https://polygonscan.com", Strategy: evm},
	8453:     {ID: 8453, Name: "Base", Explorer: "https://basescan.org", Strategy: evm},
	42161:    {ID: 42161, Name: "Arbitrum One", Explorer: "https://arbiscan.io", Strategy: evm},
	43114:    {ID: 43114, Name: "Avalanche C-Chain", Explorer: "https://snowtrace.io", Strategy: evm},
	11155111: {ID: 11155111, Name: "Sepolia", Explorer: "https://sepolia.etherscan.io", Strategy: evm},
}

// AddressURL links address on the chain's explorer, or "" when none is set.
func (ch Chain) AddressURL(address string) string {
	if ch.Explorer == "" {
		return ""
	}
	return strings.TrimRight(ch.Explorer, "/") + "/address/" + address
}

// DisplayAddress returns the EIP-55 form on EVM chains and address unchanged
// elsewhere.
func (ch Chain) DisplayAddress(address string) string {
	if _, ok := ch.Strategy.(*EVMStrategy); ok && evm.IsValidSyntax(address) {
		return ChecksumAddress(address)
	}
	return address
}

// LookupChain returns the registry entry for id.
func LookupChain(id int64) (Chain, error) {
	c, ok := registry[id]
	if !ok {
		return Chain{}, fmt.Errorf("%w: %d", ErrUnsupportedChain, id)
	}
	return c, nil
}

// SupportedChains lists the built-in chains ordered by id.
func SupportedChains() []Chain {
	return sortedChains(registry)
}

func sortedChains(chains map[int64]Chain) []Chain {
	out := make([]Chain, 0, len(chains))
	for _, c := range chains {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// AddressURL builds the explorer page link for address on chainID.
func AddressURL(chainID int64, address string) (string, error) {
	c, err := LookupChain(chainID)
	if err != nil {
		return "", err
	}
	return c.AddressURL(address), nil
}

// KnownContracts are widely used Ethereum mainnet contracts. Pass them with
// WithAllowlist to enable lookalike detection against them.
var KnownContracts = []Listing{
	{Address: "0x7a250d5630B4cF539739dF2C5dAcb4c659F2488D", Label: "Uniswap V2 Router", Type: WalletContract},
	{Address: "0x5C69bEe701ef814a2B6a3EDD4B1652CB9cc5aA6f", Label: "Uniswap V2 Factory", Type: WalletContract},
	{Address: "0x1F98431c8aD98523631AE4a59f267346ea31F984", Label: "Uniswap V3 Factory", Type: WalletContract},
	{Address: "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2", Label: "Wrapped Ether", Type: WalletContract},
	{Address: "0x1820a4B7618BdE71Dce8cdc73aAB6C95905faD24", Label: "ERC-1820 Registry", Type: WalletContract},
}

// KnownThreats is the built-in denylist, supplementary to sanctions data.
var KnownThreats = []Listing{
	{Address: "0xd90e2f925DA726b50C4Ed8D0Fb90Ad053324F31b", Label: "Tornado Cash Router", Type: WalletFlagged},
}
