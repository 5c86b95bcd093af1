package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/company-analyzer/internal/analyzer"
	"github.com/sells-group/company-analyzer/internal/extract"
)

type analyzeRequest struct {
	URL string `json:"url"`
}

type questionRequest struct {
	URL      string `json:"url"`
	Question string `json:"question"`
}

type directRequest struct {
	Question    string   `json:"question"`
	Temperature *float64 `json:"temperature"`
}

// errorResponse is the body of every failed request.
type errorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail"`
	Reason string `json:"reason,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if !s.decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.URL) == "" {
		writeError(w, r, &analyzer.Error{Kind: analyzer.KindInvalidURL, Op: "analyze", Err: errors.New("url is required")})
		return
	}

	details, err := s.analyzer.Analyze(r.Context(), req.URL)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, details)
}

func (s *Server) handleQuestion(w http.ResponseWriter, r *http.Request) {
	var req questionRequest
	if !s.decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.URL) == "" {
		writeError(w, r, &analyzer.Error{Kind: analyzer.KindInvalidURL, Op: "question", Err: errors.New("url is required")})
		return
	}

	resp, err := s.answerer.Answer(r.Context(), req.URL, req.Question)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDirect(w http.ResponseWriter, r *http.Request) {
	var req directRequest
	if !s.decode(w, r, &req) {
		return
	}
	var temperature float64
	if req.Temperature != nil {
		temperature = *req.Temperature
	}

	resp, err := s.asker.Ask(r.Context(), req.Question, temperature)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:  string(analyzer.KindInvalidParameter),
			Detail: "invalid request body: " + err.Error(),
		})
		return false
	}
	return true
}

// statusFor maps a failure to its HTTP status and response body.
func statusFor(err error) (int, errorResponse) {
	body := errorResponse{Detail: err.Error()}

	var ae *analyzer.Error
	if !errors.As(err, &ae) {
		if errors.Is(err, context.DeadlineExceeded) {
			body.Error = "Timeout"
			return http.StatusGatewayTimeout, body
		}
		body.Error = "Internal"
		return http.StatusInternalServerError, body
	}

	body.Error = string(ae.Kind)
	body.Reason = ae.Reason
	switch ae.Kind {
	case analyzer.KindInvalidURL, analyzer.KindInvalidParameter:
		return http.StatusBadRequest, body
	case analyzer.KindExtractionFailed:
		switch extract.Reason(ae.Reason) {
		case extract.ReasonTimeout:
			return http.StatusGatewayTimeout, body
		case extract.ReasonNotFound:
			return http.StatusNotFound, body
		default:
			return http.StatusUnprocessableEntity, body
		}
	case analyzer.KindSearchFailed, analyzer.KindLLMError, analyzer.KindSchemaValidationFailed:
		return http.StatusBadGateway, body
	default:
		return http.StatusInternalServerError, body
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, context.Canceled) && r.Context().Err() != nil {
		// Client went away; nobody reads the response.
		return
	}
	status, body := statusFor(err)
	if status >= http.StatusInternalServerError {
		zap.L().Warn("server: request failed",
			zap.String("path", r.URL.Path),
			zap.Int("status", status),
			zap.Error(err),
		)
	}
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Debug("server: encode response", zap.Error(err))
	}
}
