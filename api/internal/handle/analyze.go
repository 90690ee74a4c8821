package handle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"exam-relay/api/internal/exam"
	"exam-relay/api/internal/llm"

	"go.uber.org/zap"
)

// Analyze serves POST /api: classify, assemble, one upstream call, normalize.
func (h *Handle) Analyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST only")
		return
	}
	log := h.log.With(zap.String("request_id", requestID(r.Context())))

	if h.opts.MaxBodyBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.opts.MaxBodyBytes)
	}
	var req exam.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("request body exceeds %d bytes", tooBig.Limit))
			return
		}
		writeError(w, http.StatusBadRequest, "bad json: "+err.Error())
		return
	}

	mode, err := exam.Classify(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	prompt, err := h.asm.Build(mode, req)
	if err != nil {
		if errors.Is(err, exam.ErrInvalidImage) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		log.Error("assemble prompt", zap.String("mode", string(mode)), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error: "+err.Error())
		return
	}

	ctx, cancel := h.requestContext(r)
	defer cancel()

	start := time.Now()
	text, err := h.eng.Generate(ctx, prompt)
	if err != nil {
		code, msg := upstreamFailure(err)
		log.Error("upstream call failed",
			zap.String("mode", string(mode)),
			zap.String("engine", h.eng.Name()),
			zap.String("model", h.eng.GetModel()),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		writeError(w, code, msg)
		return
	}

	res, err := h.norm.Normalize(mode, text)
	if err != nil {
		log.Error("normalize", zap.String("mode", string(mode)), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error: "+err.Error())
		return
	}
	if res.Failure != nil {
		log.Warn("upstream reply did not parse, serving fallback",
			zap.String("mode", string(mode)),
			zap.String("strategy", res.Failure.Strategy),
			zap.Int("raw_len", len(res.Failure.Raw)),
			zap.Error(res.Failure.Reason))
	}
	log.Info("analyzed",
		zap.String("mode", string(mode)),
		zap.String("engine", h.eng.Name()),
		zap.Duration("elapsed", time.Since(start)))
	writeJSON(w, http.StatusOK, res.Body)
}

// requestContext applies the configured upstream deadline. X-Request-Timeout
// or ?timeoutSec (seconds) override it per request.
func (h *Handle) requestContext(r *http.Request) (context.Context, context.CancelFunc) {
	deadline := h.opts.Timeout
	if ts := r.Header.Get("X-Request-Timeout"); ts != "" {
		if v, _ := strconv.Atoi(ts); v > 0 {
			deadline = time.Duration(v) * time.Second
		}
	} else if ts := r.URL.Query().Get("timeoutSec"); ts != "" {
		if v, _ := strconv.Atoi(ts); v > 0 {
			deadline = time.Duration(v) * time.Second
		}
	}
	if deadline <= 0 {
		return context.WithCancel(r.Context())
	}
	return context.WithTimeout(r.Context(), deadline)
}

func upstreamFailure(err error) (int, string) {
	var upErr *llm.UpstreamServiceError
	switch {
	case errors.As(err, &upErr):
		return http.StatusInternalServerError, fmt.Sprintf("upstream API error: %d - %s", upErr.Status, upErr.Body)
	case errors.Is(err, llm.ErrEmptyResponse):
		return http.StatusInternalServerError, "upstream returned no text content"
	case errors.Is(err, llm.ErrMissingAPIKey):
		return http.StatusInternalServerError, "upstream is not configured: api key is empty"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusInternalServerError, "upstream call timed out"
	default:
		return http.StatusInternalServerError, "unexpected error calling upstream: " + err.Error()
	}
}
