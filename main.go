package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/piyushdaiya/address-classifier/internal/chain"
	"github.com/piyushdaiya/address-classifier/internal/config"
	"github.com/piyushdaiya/address-classifier/internal/core"
	"github.com/piyushdaiya/address-classifier/internal/logging"
	"github.com/piyushdaiya/address-classifier/internal/validator"
	"github.com/piyushdaiya/address-classifier/internal/watchlist"
)

var errUsage = errors.New("usage: address-classifier [-chain id] [-offline] [-policy file] <address>")

// dialState is swapped in tests.
var dialState = func(ctx context.Context, url string) (chain.StateReader, error) {
	return chain.Dial(ctx, url)
}

func main() {
	cfg := config.Load()
	logging.Setup(cfg.LogLevel, os.Stderr)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.RequestTimeout)
	defer cancel()

	if err := run(ctx, cfg, os.Args[1:], os.Stdout); err != nil {
		logging.Logger().Error("classification failed", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("address-classifier", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	chainID := fs.Int64("chain", cfg.ChainID, "chain id the address belongs to")
	offline := fs.Bool("offline", false, "skip the watchlist engine and RPC lookups")
	policyPath := fs.String("policy", cfg.PolicyPath, "classifier policy TOML file")
	listChains := fs.Bool("list-chains", false, "print supported chains and exit")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}

	policy, err := config.LoadPolicy(*policyPath)
	if err != nil {
		return err
	}

	if *listChains {
		c, err := policy.NewClassifier()
		if err != nil {
			return err
		}
		return encode(stdout, c.Chains())
	}
	if fs.NArg() != 1 {
		return errUsage
	}
	address := strings.TrimSpace(fs.Arg(0))

	var (
		warnings  []string
		sanction  *core.Sanction
		extraDeny []validator.Listing
	)
	if !*offline {
		s, err := watchlist.NewClient(cfg.EngineURL).CheckWatchlist(ctx, address)
		switch {
		case err != nil:
			// fail open: report without sanctions data rather than not at all
			logging.Logger().Warn("watchlist engine unavailable", "url", cfg.EngineURL, "err", err)
			warnings = append(warnings, "watchlist engine unavailable - sanctions check skipped")
		case s.Sanctioned:
			sanction = s
			// the engine also holds non-EVM addresses; those stay off the denylist
			if (&validator.EVMStrategy{}).IsValidSyntax(address) {
				extraDeny = append(extraDeny, validator.Listing{
					Address: address,
					Label:   fmt.Sprintf("%s sanctioned (%s)", s.Source, s.Currency),
					Type:    validator.WalletFlagged,
				})
			}
		}
	}

	classifier, err := policy.NewClassifier(extraDeny...)
	if err != nil {
		return err
	}

	logging.Logger().Debug("classifying", "chain_id", *chainID, "address", address)
	result, err := classifier.Classify(*chainID, address)
	if err != nil {
		return err
	}

	ch, err := classifier.Chain(*chainID)
	if err != nil {
		return err
	}
	report := core.Report{
		Address:        address,
		ChainID:        *chainID,
		Network:        ch.Name,
		Classification: result,
		Sanction:       sanction,
	}
	if result.IsValid {
		report.Checksummed = ch.DisplayAddress(address)
		report.ExplorerURL = ch.AddressURL(address)
		report.Label, _ = classifier.Label(*chainID, address)
		if !*offline && cfg.EvmRPC != "" {
			state, err := readState(ctx, cfg.EvmRPC, *chainID, address)
			if err != nil {
				logging.Logger().Warn("chain state unavailable", "err", err)
				warnings = append(warnings, "chain state unavailable: "+err.Error())
			} else {
				report.State = state
			}
		}
	}
	report.Warnings = warnings

	return encode(stdout, report)
}

func readState(ctx context.Context, rpcURL string, chainID int64, address string) (*core.ChainState, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	reader, err := dialState(ctx, rpcURL)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	remote, err := reader.ChainID(ctx)
	if err != nil {
		return nil, err
	}
	if remote.Int64() != chainID || !remote.IsInt64() {
		return nil, fmt.Errorf("rpc serves chain %s, not %d", remote, chainID)
	}
	state, err := reader.State(ctx, address)
	if err != nil {
		return nil, err
	}
	return &state, nil
}

func encode(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)
	return encoder.Encode(v)
}
