package watchlist

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/piyushdaiya/address-classifier/internal/logging"
)

const SourceOFAC = "OFAC"

// Known OFAC feature type ids for digital currency addresses. New ids are
// learned from the FeatureType reference values while parsing.
var cryptoFeatureTypes = map[string]string{
	"344":  "XBT",
	"345":  "ETH",
	"686":  "ZEC",
	"687":  "DASH",
	"688":  "BTG",
	"689":  "ETC",
	"706":  "BSV",
	"726":  "BCH",
	"746":  "XVG",
	"992":  "TRX",
	"998":  "USDC",
	"1007": "ARB",
	"1008": "BSC",
	"1167": "SOL",
	"573":  "XMR",
	"572":  "LTC",
}

// minAddressLen drops placeholder values shorter than any real address.
const minAddressLen = 11

type featureTypeValue struct {
	ID    string `xml:"ID,attr"`
	Value string `xml:",chardata"`
}

type distinctParty struct {
	Profile []struct {
		Feature []struct {
			FeatureTypeID string `xml:"FeatureTypeID,attr"`
			Version       []struct {
				VersionDetail []struct {
					Value string `xml:",chardata"`
				} `xml:"VersionDetail"`
			} `xml:"FeatureVersion"`
		} `xml:"Feature"`
	} `xml:"Profile"`
}

// ParseStats summarizes one pass over the SDN file.
type ParseStats struct {
	Parties int
	Loaded  int
	Learned []string // currencies discovered beyond the built-in ids
}

// ParseOFAC streams the SDN advanced XML and calls add for every digital
// currency address found.
func ParseOFAC(ctx context.Context, r io.Reader, add func(address, currency string) error) (ParseStats, error) {
	types := make(map[string]string, len(cryptoFeatureTypes))
	for k, v := range cryptoFeatureTypes {
		types[k] = v
	}

	var stats ParseStats
	decoder := xml.NewDecoder(r)
	for {
		tok, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			return stats, nil
		}
		if err != nil {
			return stats, fmt.Errorf("read xml: %w", err)
		}
		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}

		switch se.Name.Local {
		case "FeatureType", "FeatureTypeValue":
			var ft featureTypeValue
			if err := decoder.DecodeElement(&ft, &se); err != nil {
				continue
			}
			if !strings.Contains(ft.Value, "Digital Currency Address") {
				continue
			}
			if _, exists := types[ft.ID]; exists {
				continue
			}
			currency := "UNKNOWN"
			if parts := strings.Split(ft.Value, "-"); len(parts) > 1 {
				currency = strings.TrimSpace(parts[1])
			}
			types[ft.ID] = currency
			stats.Learned = append(stats.Learned, currency)
			logging.Logger().Info("learned new currency", "feature_type_id", ft.ID, "currency", currency)

		case "DistinctParty":
			if err := ctx.Err(); err != nil {
				return stats, err
			}
			var p distinctParty
			if err := decoder.DecodeElement(&p, &se); err != nil {
				continue
			}
			for _, profile := range p.Profile {
				for _, feature := range profile.Feature {
					currency, isCrypto := types[feature.FeatureTypeID]
					if !isCrypto {
						continue
					}
					for _, v := range feature.Version {
						for _, d := range v.VersionDetail {
							addr := strings.TrimSpace(d.Value)
							if len(addr) < minAddressLen {
								continue
							}
							if err := add(addr, currency); err != nil {
								return stats, err
							}
							stats.Loaded++
						}
					}
				}
			}
			stats.Parties++
			if stats.Parties%10000 == 0 {
				logging.Logger().Info("scanning parties", "parties", stats.Parties)
			}
		}
	}
}

// Syncer keeps a Store in step with the published SDN file.
type Syncer struct {
	Store  *Store
	URL    string
	Client *http.Client
}

func NewSyncer(store *Store, url string) *Syncer {
	return &Syncer{Store: store, URL: url, Client: &http.Client{Timeout: 10 * time.Minute}}
}

// ShouldUpdate compares the remote Last-Modified header with the stored one.
// It fails open: when the remote cannot be checked an update is attempted.
func (s *Syncer) ShouldUpdate(ctx context.Context) bool {
	local, err := s.Store.LastModified(ctx)
	if err != nil {
		logging.Logger().Warn("read local last_modified failed", "err", err)
		return true
	}

	headCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(headCtx, http.MethodHead, s.URL, nil)
	if err != nil {
		return true
	}
	resp, err := s.Client.Do(req)
	if err != nil {
		logging.Logger().Warn("could not check remote headers", "url", s.URL, "err", err)
		return true
	}
	defer resp.Body.Close()

	remote := resp.Header.Get("Last-Modified")
	return remote == "" || local != remote
}

// Run downloads and loads the SDN file in a single transaction.
func (s *Syncer) Run(ctx context.Context) (ParseStats, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return ParseStats{}, err
	}
	resp, err := s.Client.Do(req)
	if err != nil {
		return ParseStats{}, fmt.Errorf("download: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return ParseStats{}, fmt.Errorf("download: HTTP %d", resp.StatusCode)
	}

	lastMod := resp.Header.Get("Last-Modified")
	logging.Logger().Info("downloading sanctions list", "url", s.URL, "last_modified", lastMod)

	batch, err := s.Store.Begin(ctx, SourceOFAC)
	if err != nil {
		return ParseStats{}, err
	}
	stats, err := ParseOFAC(ctx, resp.Body, batch.Add)
	if err != nil {
		batch.Rollback()
		return stats, err
	}
	if err := batch.Commit(lastMod); err != nil {
		return stats, err
	}

	logging.Logger().Info("sanctions list loaded", "parties", stats.Parties, "loaded", stats.Loaded)
	if stats.Loaded == 0 {
		logging.Logger().Warn("0 addresses loaded, double check feature type ids")
	}
	return stats, nil
}
