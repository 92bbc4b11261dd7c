package watchlist

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/piyushdaiya/address-classifier/internal/core"
	"github.com/piyushdaiya/address-classifier/internal/logging"
	"github.com/piyushdaiya/address-classifier/internal/metrics"
	"github.com/piyushdaiya/address-classifier/internal/validator"
)

// Server exposes the sanctions store and the classifier over HTTP.
type Server struct {
	store      *Store
	classifier atomic.Pointer[validator.Classifier]
	metrics    metrics.EngineMetrics
	gatherer   prometheus.Gatherer
	limiter    *rate.Limiter
}

// NewServer wires the handlers. ratePerSec <= 0 disables throttling.
func NewServer(store *Store, c *validator.Classifier, m metrics.EngineMetrics, g prometheus.Gatherer, ratePerSec int) *Server {
	s := &Server{store: store, metrics: m, gatherer: g}
	s.classifier.Store(c)
	if ratePerSec > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(ratePerSec), ratePerSec)
	}
	return s
}

// SetClassifier swaps the classifier used by /classify, e.g. after a sync
// changed the denylist. In-flight requests finish on the old one.
func (s *Server) SetClassifier(c *validator.Classifier) {
	s.classifier.Store(c)
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/check", s.wrap("/check", s.handleCheck))
	mux.HandleFunc("/classify", s.wrap("/classify", s.handleClassify))
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	mux.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	return mux
}

type ctxKey struct{}

// RequestID returns the id the middleware attached to ctx.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

func (s *Server) wrap(path string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)

		if s.limiter != nil && !s.limiter.Allow() {
			s.metrics.RequestsThrottled.Inc()
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		next(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, id)))

		elapsed := time.Since(start)
		s.metrics.RequestLatency.WithLabelValues(path).Observe(elapsed.Seconds())
		logging.Logger().Info("request", "request_id", id, "method", r.Method, "path", r.URL.Path, "took", elapsed)
	}
}

func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	address := strings.TrimSpace(r.URL.Query().Get("address"))
	if address == "" {
		writeError(w, http.StatusBadRequest, "missing address parameter")
		return
	}

	res, err := s.store.Lookup(r.Context(), address)
	if err != nil {
		logging.Logger().Error("lookup failed", "request_id", RequestID(r.Context()), "err", err)
		writeError(w, http.StatusInternalServerError, "lookup failed")
		return
	}
	s.metrics.ChecksServed.Inc()
	if res.Sanctioned {
		s.metrics.SanctionHits.Inc()
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	address := strings.TrimSpace(q.Get("address"))
	if address == "" {
		writeError(w, http.StatusBadRequest, "missing address parameter")
		return
	}
	chainID := int64(1)
	if raw := q.Get("chain"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "chain must be an integer")
			return
		}
		chainID = id
	}

	c := s.classifier.Load()
	result, err := c.Classify(chainID, address)
	if errors.Is(err, validator.ErrUnsupportedChain) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "classification failed")
		return
	}

	s.metrics.Classifications.WithLabelValues(string(result.RiskLevel)).Inc()
	for _, f := range result.Features {
		s.metrics.ClassificationFlags.WithLabelValues(f).Inc()
	}

	chain, _ := c.Chain(chainID)
	report := core.Report{
		Address:        address,
		ChainID:        chainID,
		Network:        chain.Name,
		Classification: result,
	}
	if result.IsValid {
		report.Checksummed = chain.DisplayAddress(address)
		report.ExplorerURL = chain.AddressURL(address)
		report.Label, _ = c.Label(chainID, address)
		if sanction, err := s.store.Lookup(r.Context(), address); err == nil && sanction.Sanctioned {
			report.Sanction = &sanction
		}
	}
	writeJSON(w, http.StatusOK, report)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
