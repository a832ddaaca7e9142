package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/ChrisMcGann/LipidKey/pkg/adduct"
	"github.com/ChrisMcGann/LipidKey/pkg/core"
	"github.com/ChrisMcGann/LipidKey/pkg/logging"
	"github.com/ChrisMcGann/LipidKey/pkg/scoring"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 32 << 20

// Handler holds the dependencies for HTTP handlers.
type Handler struct {
	detector *adduct.Detector
	scorer   *scoring.Scorer
	workers  int
	logger   *slog.Logger
}

// NewHandler creates a Handler. workers bounds adduct inference goroutines per request.
func NewHandler(detector *adduct.Detector, scorer *scoring.Scorer, workers int, logger *slog.Logger) *Handler {
	return &Handler{
		detector: detector,
		scorer:   scorer,
		workers:  workers,
		logger:   logging.OrNoop(logger),
	}
}

// HandleHealth handles GET /health requests.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	sendJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
		Rules:  len(h.scorer.Rules()),
	})
}

// HandleAdducts handles GET /adducts/{mode} requests.
func (h *Handler) HandleAdducts(w http.ResponseWriter, r *http.Request) {
	mode, err := core.ParseIonizationMode(mux.Vars(r)["mode"])
	if err != nil {
		sendError(w, http.StatusBadRequest, err)
		return
	}

	catalog := h.detector.Catalogs().For(mode)
	resp := AdductsResponse{Mode: mode.String(), Adducts: []Adduct{}}
	if catalog != nil {
		for _, a := range catalog.Entries() {
			resp.Adducts = append(resp.Adducts, Adduct{
				Notation:  a.Notation,
				MassShift: a.MassShift,
				Multimer:  a.Multimer(),
				Charge:    a.Charge(),
			})
		}
	}
	sendJSON(w, http.StatusOK, resp)
}

// HandleDetect handles POST /adducts/detect requests.
func (h *Handler) HandleDetect(w http.ResponseWriter, r *http.Request) {
	var req Annotation
	if err := decodeJSON(w, r, &req); err != nil {
		sendError(w, http.StatusBadRequest, err)
		return
	}

	ann, err := newPopulation().annotation(req)
	if err != nil {
		sendError(w, http.StatusBadRequest, err)
		return
	}

	match, ok := h.detector.Detect(ann)
	if !ok {
		sendJSON(w, http.StatusOK, DetectResponse{Matched: false})
		return
	}
	sendJSON(w, http.StatusOK, DetectResponse{
		Matched:     true,
		Adduct:      match.Adduct.Notation,
		Partner:     match.Partner.Notation,
		BaseMZ:      match.BasePeak.MZ,
		PartnerMZ:   match.PartnerPeak.MZ,
		NeutralMass: match.NeutralMass,
		PPM:         match.PPM,
	})
}

// HandleScore handles POST /score requests.
func (h *Handler) HandleScore(w http.ResponseWriter, r *http.Request) {
	var req ScoreRequest
	if err := decodeJSON(w, r, &req); err != nil {
		sendError(w, http.StatusBadRequest, err)
		return
	}

	pop := newPopulation()
	anns := make([]*core.Annotation, len(req.Annotations))
	for i, a := range req.Annotations {
		ann, err := pop.annotation(a)
		if err != nil {
			sendError(w, http.StatusBadRequest, fmt.Errorf("annotation %d: %w", i, err))
			return
		}
		anns[i] = ann
	}

	start := time.Now()
	labelled := 0
	if req.InferAdducts {
		n, err := h.detector.ApplyAll(r.Context(), anns, h.workers)
		if err != nil {
			sendError(w, http.StatusServiceUnavailable, err)
			return
		}
		labelled = n
	}

	summary, err := h.scorer.Score(r.Context(), anns)
	if err != nil {
		status := http.StatusServiceUnavailable
		if errors.Is(err, scoring.ErrInvalidPopulation) {
			status = http.StatusBadRequest
		}
		sendError(w, status, err)
		return
	}

	resp := ScoreResponse{
		Annotations: make([]ScoredAnnotation, len(anns)),
		Summary: Summary{
			Annotations: summary.Annotations,
			Pairs:       summary.Pairs,
			Matches:     summary.Matches,
			Compared:    summary.Compared,
			Labelled:    labelled,
			RuleHits:    summary.RuleHits,
		},
		LatencyMs: float64(time.Since(start).Microseconds()) / 1000.0,
	}
	for i, a := range anns {
		resp.Annotations[i] = scored(a)
	}
	sendJSON(w, http.StatusOK, resp)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}

func sendError(w http.ResponseWriter, status int, err error) {
	sendJSON(w, status, ErrorResponse{Error: err.Error()})
}

// sendJSON sends a JSON response with the given status code.
func sendJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
