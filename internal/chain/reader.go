// Package chain reads live account state from an EVM JSON-RPC endpoint, the
// same calls a browser wallet provider answers (eth_getBalance and friends).
package chain

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/piyushdaiya/address-classifier/internal/core"
)

// StateReader is what the CLI needs from a provider.
type StateReader interface {
	ChainID(ctx context.Context) (*big.Int, error)
	State(ctx context.Context, address string) (core.ChainState, error)
	Close()
}

type Reader struct {
	client *ethclient.Client
}

// Dial connects to rpcURL (http, https, ws or ipc).
func Dial(ctx context.Context, rpcURL string) (*Reader, error) {
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("dial rpc: %w", err)
	}
	return &Reader{client: client}, nil
}

func (r *Reader) Close() {
	r.client.Close()
}

func (r *Reader) ChainID(ctx context.Context) (*big.Int, error) {
	id, err := r.client.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("eth_chainId: %w", err)
	}
	return id, nil
}

// State reads balance, nonce and code at the current head. All three reads
// are pinned to the same block.
func (r *Reader) State(ctx context.Context, address string) (core.ChainState, error) {
	if !common.IsHexAddress(address) {
		return core.ChainState{}, fmt.Errorf("not an EVM address: %q", address)
	}
	addr := common.HexToAddress(address)

	head, err := r.client.BlockNumber(ctx)
	if err != nil {
		return core.ChainState{}, fmt.Errorf("eth_blockNumber: %w", err)
	}
	block := new(big.Int).SetUint64(head)

	balance, err := r.client.BalanceAt(ctx, addr, block)
	if err != nil {
		return core.ChainState{}, fmt.Errorf("eth_getBalance: %w", err)
	}
	nonce, err := r.client.NonceAt(ctx, addr, block)
	if err != nil {
		return core.ChainState{}, fmt.Errorf("eth_getTransactionCount: %w", err)
	}
	code, err := r.client.CodeAt(ctx, addr, block)
	if err != nil {
		return core.ChainState{}, fmt.Errorf("eth_getCode: %w", err)
	}

	return core.ChainState{
		Balance:     balance,
		Ether:       FormatEther(balance),
		Nonce:       nonce,
		IsContract:  len(code) > 0,
		IsActive:    balance.Sign() > 0 || nonce > 0,
		BlockNumber: head,
	}, nil
}

// FormatEther renders wei as a decimal ether amount with 6 places.
func FormatEther(wei *big.Int) string {
	if wei == nil {
		return "0"
	}
	r := new(big.Rat).SetFrac(new(big.Int).Set(wei), big.NewInt(1_000_000_000_000_000_000))
	return r.FloatString(6)
}
