// Package httpapi serves the analysis engine over JSON HTTP.
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"example.com/elliott-wave-analyzer/internal/analyzer"
	"example.com/elliott-wave-analyzer/internal/kline"
	"example.com/elliott-wave-analyzer/internal/labeler"
	"example.com/elliott-wave-analyzer/internal/metrics"
	"example.com/elliott-wave-analyzer/internal/wave"
)

// Server wires the analyzer and labeler behind HTTP handlers.
type Server struct {
	Analyzer       *analyzer.Analyzer
	Labeler        *labeler.Labeler
	Metrics        *metrics.Recorder
	MetricsPath    string
	AllowedOrigins []string
	Log            zerolog.Logger
}

func New(an *analyzer.Analyzer, lb *labeler.Labeler, rec *metrics.Recorder, log zerolog.Logger) *Server {
	return &Server{
		Analyzer:    an,
		Labeler:     lb,
		Metrics:     rec,
		MetricsPath: "/metrics",
		Log:         log.With().Str("component", "httpapi").Logger(),
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/api/analyze", s.handleAnalyze)
	mux.HandleFunc("/api/variations", s.handleVariations)
	mux.HandleFunc("/api/label", s.handleLabel)
	mux.HandleFunc("/api/label/stream", s.handleLabelStream)
	if s.Metrics != nil {
		mux.Handle(s.MetricsPath, promhttp.Handler())
	}
	return s.cors(mux)
}

// AnalyzeRequest is the body of POST /api/analyze and /api/variations.
type AnalyzeRequest struct {
	Candles      []kline.Candle `json:"candles"`
	StartIdx     int            `json:"start_idx"`
	Kind         string         `json:"kind"`
	CurrentPrice float64        `json:"current_price,omitempty"`
	// MinProbability overrides the configured floor for /api/variations.
	MinProbability float64 `json:"min_probability,omitempty"`
	// MaxResults caps the returned candidates for /api/analyze.
	MaxResults int `json:"max_results,omitempty"`
}

// POST /api/analyze
// Runs one pattern scan at start_idx and returns ranked candidates with
// price targets when current_price is supplied.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if done := s.preflight(w, r, http.MethodPost); done {
		return
	}

	req, kind, ok := s.decodeAnalyze(w, r)
	if !ok {
		return
	}

	started := time.Now()
	var (
		res analyzer.Result
		err error
	)
	if req.CurrentPrice > 0 {
		res, err = s.Analyzer.AnalyzeWithTargets(r.Context(), req.Candles, req.StartIdx, kind, req.CurrentPrice)
	} else {
		res, err = s.Analyzer.Analyze(r.Context(), req.Candles, req.StartIdx, kind)
	}
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.recordScan("analyze", started)
	if req.MaxResults > 0 && len(res.Candidates) > req.MaxResults {
		res.Candidates = res.Candidates[:req.MaxResults]
	}
	if s.Metrics != nil {
		for range res.Candidates {
			s.Metrics.RecordPattern(string(kind))
		}
	}
	s.writeJSON(w, res)
}

// POST /api/variations
// Enumerates the internal segment structures a window supports and buckets
// them by probability.
func (s *Server) handleVariations(w http.ResponseWriter, r *http.Request) {
	if done := s.preflight(w, r, http.MethodPost); done {
		return
	}

	req, kind, ok := s.decodeAnalyze(w, r)
	if !ok {
		return
	}

	started := time.Now()
	res, err := s.Analyzer.SegmentVariations(r.Context(), req.Candles, req.StartIdx, kind, req.MinProbability)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.recordScan("variations", started)
	s.writeJSON(w, res)
}

// LabelRequest is the body of POST /api/label.
type LabelRequest struct {
	Candles []kline.Candle `json:"candles"`
}

// POST /api/label
// Scans the whole series and returns the resolved labeling with statistics.
func (s *Server) handleLabel(w http.ResponseWriter, r *http.Request) {
	if done := s.preflight(w, r, http.MethodPost); done {
		return
	}
	if s.Labeler == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	var req LabelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeBadRequest(w, "malformed request body")
		return
	}

	started := time.Now()
	res, err := s.Labeler.Label(r.Context(), req.Candles)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.recordScan("label", started)
	s.writeJSON(w, res)
}

func (s *Server) decodeAnalyze(w http.ResponseWriter, r *http.Request) (AnalyzeRequest, wave.Kind, bool) {
	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeBadRequest(w, "malformed request body")
		return req, "", false
	}
	kind, err := wave.ParseKind(req.Kind)
	if err != nil {
		s.writeBadRequest(w, err.Error())
		return req, "", false
	}
	if req.StartIdx < 0 || req.StartIdx >= len(req.Candles) {
		s.writeBadRequest(w, "start_idx outside series")
		return req, "", false
	}
	return req, kind, true
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"ok":true}`))
}

func (s *Server) preflight(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return true
	}
	if r.Method != method {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return true
	}
	return false
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) writeBadRequest(w http.ResponseWriter, msg string) {
	if s.Metrics != nil {
		s.Metrics.RecordError("bad_request")
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// writeError maps input validation failures to 400 and everything else to 500.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	if errors.Is(err, kline.ErrSeriesTooShort) || errors.Is(err, kline.ErrMalformedSeries) {
		s.writeBadRequest(w, err.Error())
		return
	}
	if s.Metrics != nil {
		s.Metrics.RecordError("internal")
	}
	s.Log.Error().Err(err).Msg("request failed")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

func (s *Server) recordScan(op string, started time.Time) {
	if s.Metrics != nil {
		s.Metrics.RecordScan(op, time.Since(started).Seconds())
	}
}

func ParseAllowedOrigins(v string) []string {
	v = strings.TrimSpace(v)
	if v == "" {
		return []string{"*"}
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}

func (s *Server) cors(next http.Handler) http.Handler {
	allowed := s.AllowedOrigins
	if len(allowed) == 0 {
		allowed = []string{"*"}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin == "" {
			next.ServeHTTP(w, r)
			return
		}

		allowOrigin := ""
		for _, o := range allowed {
			if o == "*" {
				allowOrigin = "*"
				break
			}
			if o == origin {
				allowOrigin = origin
				break
			}
		}

		if allowOrigin != "" {
			w.Header().Set("Access-Control-Allow-Origin", allowOrigin)
			w.Header().Add("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
