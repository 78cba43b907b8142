package handler

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"cityos/internal/adapter"
	"cityos/internal/codec"
	"cityos/internal/domain"
	"cityos/internal/service"
)

// AIHandler serves the question answering endpoints
type AIHandler struct {
	analysis *service.AnalysisService
	ask      *service.AskService
	chat     *service.ChatService
	chart    *service.ChartService
	logger   *zap.Logger
}

// NewAIHandler creates the question answering handler
func NewAIHandler(analysis *service.AnalysisService, ask *service.AskService, chat *service.ChatService, chart *service.ChartService, logger *zap.Logger) *AIHandler {
	return &AIHandler{analysis: analysis, ask: ask, chat: chat, chart: chart, logger: logger}
}

type queryRequest struct {
	Query string `json:"query"`
}

// Analyze turns a question into chart data
func (h *AIHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	res, err := h.analysis.Analyze(r.Context(), req.Query)
	if err != nil {
		if errors.Is(err, domain.ErrInvalid) {
			writeError(w, http.StatusBadRequest, message(err), "")
			return
		}
		h.logger.Error("analysis failed", zap.String("query", req.Query), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to analyze data", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Intent answers a question with a quick keyword-driven chart
func (h *AIHandler) Intent(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	res, err := h.analysis.Intent(r.Context(), req.Query)
	if err != nil {
		h.logger.Error("intent failed", zap.String("query", req.Query), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to analyze data", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// askFailure is the error body of the ask endpoint
type askFailure struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Ask answers a scoped question
func (h *AIHandler) Ask(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Scope string `json:"scope"`
		Query string `json:"query"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusInternalServerError, askFailure{Error: "Erro interno", Message: "Falha ao processar a solicitação"})
		return
	}

	res, err := h.ask.Ask(r.Context(), req.Scope, req.Query)
	if err != nil {
		var askErr *service.AskError
		if errors.As(err, &askErr) {
			writeJSON(w, http.StatusBadRequest, askFailure{Error: askErr.Label, Message: askErr.Message})
			return
		}
		h.logger.Error("ask failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, askFailure{Error: "Erro interno", Message: "Falha ao processar a solicitação"})
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Chat streams the assistant answer as plain text
func (h *AIHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Messages []adapter.Message `json:"messages"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	flusher, _ := w.(http.Flusher)
	started := false
	emit := func(chunk string) error {
		if !started {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			w.WriteHeader(http.StatusOK)
			started = true
		}
		if _, err := w.Write([]byte(chunk)); err != nil {
			return err
		}
		if flusher != nil {
			flusher.Flush()
		}
		return nil
	}

	err := h.chat.Chat(r.Context(), req.Messages, emit)
	switch {
	case err == nil:
		if !started {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			w.WriteHeader(http.StatusOK)
		}
	case errors.Is(err, domain.ErrInvalid):
		writeError(w, http.StatusBadRequest, message(err), "")
	case started:
		// The status line is gone; the client sees a truncated stream
		h.logger.Warn("chat stream interrupted", zap.Error(err))
	default:
		writeError(w, http.StatusInternalServerError, "Failed to generate response", err.Error())
	}
}

// chartFailure is the error body of the chart endpoint
type chartFailure struct {
	Error           string `json:"error"`
	Details         string `json:"details"`
	FallbackMessage string `json:"fallbackMessage"`
}

// GenerateChart renders chart data as a PNG data URL
func (h *AIHandler) GenerateChart(w http.ResponseWriter, r *http.Request) {
	var req service.ChartRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	image, err := h.chart.Generate(r.Context(), req)
	if err != nil {
		if errors.Is(err, domain.ErrInvalid) {
			writeError(w, http.StatusBadRequest, message(err), "")
			return
		}
		writeJSON(w, http.StatusInternalServerError, chartFailure{
			Error:           "Failed to generate chart",
			Details:         err.Error(),
			FallbackMessage: service.ChartFallbackMessage,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"image": image, "success": true})
}

// ListAnalyses returns recorded analyses, newest first. With
// format=json|yaml the latest analysis is exported as a document.
func (h *AIHandler) ListAnalyses(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	limit := queryInt(r, "limit", 50)
	if format != "" {
		limit = 1
	}

	analyses, err := h.analysis.History(r.Context(), limit)
	if err != nil {
		h.logger.Error("failed to list analyses", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to list analyses", err.Error())
		return
	}
	if format == "" {
		writeJSON(w, http.StatusOK, analyses)
		return
	}

	c, err := codec.ForFormat(format)
	if err != nil {
		writeError(w, http.StatusBadRequest, message(err), "")
		return
	}
	if len(analyses) == 0 {
		writeError(w, http.StatusNotFound, "No analyses recorded", "")
		return
	}
	w.Header().Set("Content-Type", c.ContentType())
	w.Header().Set("Content-Disposition", "attachment; filename=analysis."+c.Format())
	if err := c.ExportChart(&codec.ChartExport{Query: analyses[0].Query, Chart: analyses[0].Chart}, w); err != nil {
		h.logger.Error("failed to export analysis", zap.Error(err))
	}
}
