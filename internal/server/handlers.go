// internal/server/handlers.go
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"launchpad/internal/engine"
	"launchpad/internal/export"
	"launchpad/internal/storage"
)

type createTokenRequest struct {
	Name        string `json:"name"`
	Ticker      string `json:"ticker"`
	Description string `json:"description"`
	ImageRef    string `json:"image_ref"`
	Creator     string `json:"creator"`
}

type submitTradeRequest struct {
	Kind      string  `json:"kind"`
	SolAmount float64 `json:"sol_amount"`
	Trader    string  `json:"trader"`
}

type postCommentRequest struct {
	Text   string `json:"text"`
	Author string `json:"author"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleCreateToken(w http.ResponseWriter, r *http.Request) {
	var req createTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if req.Creator == "" {
		req.Creator = anonAddress()
	}

	token, err := s.engine.CreateToken(r.Context(), engine.CreateTokenRequest{
		Name:        req.Name,
		Ticker:      req.Ticker,
		Description: req.Description,
		ImageRef:    req.ImageRef,
		Creator:     req.Creator,
	})
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, token)
}

func (s *Server) handleListTokens(w http.ResponseWriter, r *http.Request) {
	tokens, err := s.engine.ListTokens(r.Context())
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tokens)
}

func (s *Server) handleGetToken(w http.ResponseWriter, r *http.Request) {
	token, err := s.engine.GetToken(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, token)
}

func (s *Server) handleSubmitTrade(w http.ResponseWriter, r *http.Request) {
	var req submitTradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if req.Trader == "" {
		req.Trader = anonAddress()
	}

	trade, err := s.engine.ExecuteTrade(r.Context(), r.PathValue("id"), req.Kind, req.SolAmount, req.Trader)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, trade)
}

func (s *Server) handleListTrades(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = parsed
	}

	trades, err := s.engine.ListTrades(r.Context(), r.PathValue("id"), limit)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, trades)
}

func (s *Server) handleExportTrades(w http.ResponseWriter, r *http.Request) {
	format := export.Format(r.URL.Query().Get("format"))
	if format == "" {
		format = export.FormatCSV
	}
	if format != export.FormatCSV && format != export.FormatJSON {
		writeError(w, http.StatusBadRequest, "unsupported export format")
		return
	}

	tokenID := r.PathValue("id")
	trades, err := s.engine.ListTrades(r.Context(), tokenID, 0)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}

	switch format {
	case export.FormatCSV:
		w.Header().Set("Content-Type", "text/csv")
	case export.FormatJSON:
		w.Header().Set("Content-Type", "application/json")
	}
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", export.Filename(tokenID, format)))

	if err := export.WriteTrades(w, trades, format); err != nil {
		s.logger.Error("Trade export failed", zap.String("token_id", tokenID), zap.Error(err))
	}
}

func (s *Server) handleListHolders(w http.ResponseWriter, r *http.Request) {
	holders, err := s.engine.ListHolders(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, holders)
}

func (s *Server) handlePostComment(w http.ResponseWriter, r *http.Request) {
	var req postCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if req.Author == "" {
		req.Author = anonAddress()
	}

	comment, err := s.engine.PostComment(r.Context(), r.PathValue("id"), req.Text, req.Author)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, comment)
}

func (s *Server) handleListComments(w http.ResponseWriter, r *http.Request) {
	comments, err := s.engine.ListComments(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, comments)
}

// writeEngineError maps the engine's error taxonomy onto HTTP statuses.
func (s *Server) writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, engine.ErrInvalidAmount), errors.Is(err, engine.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, "token not found")
	case errors.Is(err, engine.ErrInsufficientBalance):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, engine.ErrTradeFailed):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		s.logger.Error("Unhandled engine error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// anonAddress mints a throwaway identity for requests that omit one. The demo
// site has no auth; every request may speak for a fresh anonymous wallet.
func anonAddress() string {
	return "anon-" + uuid.New().String()[:8]
}
