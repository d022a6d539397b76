// Package rpc exposes the contract's read-only queries over HTTP. It is an
// observation surface only: no route mutates deal state.
package rpc

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tonescrow/contract/escrow"
	"tonescrow/core/events"
	"tonescrow/core/types"
	"tonescrow/vm"
)

// DealResult is the full deal record as returned over RPC.
type DealResult struct {
	ContextID      uint32  `json:"contextId"`
	Seller         string  `json:"seller"`
	Guarantor      string  `json:"guarantor"`
	Buyer          *string `json:"buyer,omitempty"`
	Amount         string  `json:"amount"`
	RoyaltyPercent uint32  `json:"royaltyPercent"`
	Asset          string  `json:"asset"`
	JettonMinter   *string `json:"jettonMinter,omitempty"`
	State          string  `json:"state"`
	Live           bool    `json:"live"`
}

// StateResult reports the funding state, or "destroyed" once settlement
// removed the account.
type StateResult struct {
	State string `json:"state"`
}

// RoyaltyResult reports the computed guarantor royalty for the current
// parameters.
type RoyaltyResult struct {
	Royalty string `json:"royalty"`
}

// EventResult is one emitted deal event.
type EventResult struct {
	Type       string            `json:"type"`
	Attributes map[string]string `json:"attributes"`
}

type errorResult struct {
	Error string `json:"error"`
}

// Server serves the query API for one hosted deal.
type Server struct {
	sandbox *vm.Sandbox
	history *events.MemoryEmitter
	log     *slog.Logger
}

// NewServer wires the query server to the hosted sandbox. The history
// emitter may be nil when event listing is not needed.
func NewServer(sandbox *vm.Sandbox, history *events.MemoryEmitter, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{sandbox: sandbox, history: history, log: logger}
}

// Router builds the HTTP routes: deal record, state, royalty, events,
// health and metrics.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/v1/deal", s.handleDeal)
	r.Get("/v1/deal/state", s.handleState)
	r.Get("/v1/deal/royalty", s.handleRoyalty)
	r.Get("/v1/deal/events", s.handleEvents)
	return r
}

func (s *Server) handleDeal(w http.ResponseWriter, _ *http.Request) {
	if !s.sandbox.Live() {
		s.writeJSON(w, http.StatusGone, DealResult{State: "destroyed"})
		return
	}
	deal, err := s.sandbox.Info()
	if err != nil {
		s.writeError(w, err)
		return
	}
	result := DealResult{
		ContextID:      deal.ContextID,
		Seller:         deal.Seller.String(),
		Guarantor:      deal.Guarantor.String(),
		Amount:         deal.Amount.String(),
		RoyaltyPercent: uint32(deal.Royalty),
		Asset:          "native",
		State:          deal.State.String(),
		Live:           true,
	}
	if deal.Buyer != nil {
		buyer := deal.Buyer.String()
		result.Buyer = &buyer
	}
	if deal.Asset.IsJetton() {
		result.Asset = "jetton"
		minter := deal.Asset.Minter.String()
		result.JettonMinter = &minter
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleState(w http.ResponseWriter, _ *http.Request) {
	if !s.sandbox.Live() {
		s.writeJSON(w, http.StatusOK, StateResult{State: "destroyed"})
		return
	}
	state, err := s.sandbox.State()
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, StateResult{State: state.String()})
}

func (s *Server) handleRoyalty(w http.ResponseWriter, _ *http.Request) {
	if !s.sandbox.Live() {
		s.writeJSON(w, http.StatusGone, errorResult{Error: "deal settled"})
		return
	}
	royalty, err := s.sandbox.GuarantorRoyalty()
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, RoyaltyResult{Royalty: royalty.String()})
}

func (s *Server) handleEvents(w http.ResponseWriter, _ *http.Request) {
	results := []EventResult{}
	if s.history != nil {
		for _, evt := range s.history.Events() {
			carrier, ok := evt.(interface{ Event() *types.Event })
			if !ok || carrier.Event() == nil {
				continue
			}
			payload := carrier.Event()
			results = append(results, EventResult{Type: payload.Type, Attributes: payload.Attributes})
		}
	}
	s.writeJSON(w, http.StatusOK, results)
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	var exit *escrow.ExitError
	if errors.As(err, &exit) {
		status = http.StatusConflict
	}
	s.log.Error("query failed", "error", err)
	s.writeJSON(w, status, errorResult{Error: err.Error()})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log.Error("encode response", "error", err)
	}
}
