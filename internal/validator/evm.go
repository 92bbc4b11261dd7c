package validator

import (
	"regexp"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

var evmAddressRe = regexp.MustCompile(`^0x[a-fA-F0-9]{40}$`)

const (
	zeroAddress = "0x0000000000000000000000000000000000000000"
	deadAddress = "0x000000000000000000000000000000000000dead"
	// highest precompile slot we treat as reserved
	precompileMax = 0xff
)

type EVMStrategy struct{}

func (e *EVMStrategy) Name() string {
	return "EVM"
}

// IsValidSyntax accepts exactly 0x followed by 40 hex digits. Surrounding
// whitespace is rejected; callers trim user input themselves.
func (e *EVMStrategy) IsValidSyntax(address string) bool {
	return evmAddressRe.MatchString(address)
}

func (e *EVMStrategy) Normalize(address string) string {
	return strings.ToLower(address)
}

func (e *EVMStrategy) Body(key string) string {
	return strings.TrimPrefix(key, "0x")
}

// Checksum verifies the EIP-55 mixed-case encoding.
func (e *EVMStrategy) Checksum(address string) ChecksumStatus {
	body := address[2:]
	lower := strings.ToLower(body)
	if !strings.ContainsAny(lower, "abcdef") {
		return ChecksumNotApplicable
	}
	if common.HexToAddress(address).Hex() == address {
		return ChecksumValid
	}
	if body == lower || body == strings.ToUpper(body) {
		return ChecksumAbsent
	}
	return ChecksumMismatch
}

func (e *EVMStrategy) Sentinel(key string) (Sentinel, bool) {
	switch key {
	case zeroAddress, deadAddress:
		return Sentinel{Tag: FeatureBurnAddress, WalletType: WalletBurn, SecurityPenalty: 50}, true
	}
	if isPrecompile(key) {
		return Sentinel{Tag: FeaturePrecompile, WalletType: WalletContract}, true
	}
	return Sentinel{}, false
}

func isPrecompile(key string) bool {
	addr := common.HexToAddress(key)
	for _, b := range addr[:common.AddressLength-1] {
		if b != 0 {
			return false
		}
	}
	last := addr[common.AddressLength-1]
	return last != 0 && int(last) <= precompileMax
}

// ChecksumAddress returns the EIP-55 form of a valid address.
func ChecksumAddress(address string) string {
	return common.HexToAddress(address).Hex()
}
