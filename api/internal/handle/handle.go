package handle

import (
	"encoding/json"
	"net/http"
	"time"

	"exam-relay/api/internal/exam"
	"exam-relay/api/internal/llm"

	"go.uber.org/zap"
)

type Options struct {
	// Timeout bounds the upstream call; zero means wait for the client to give up.
	Timeout      time.Duration
	MaxBodyBytes int64
	PromptDir    string
	// LegacyTags switches image analysis to the tag-delimited contract.
	LegacyTags bool
}

type Handle struct {
	eng  llm.Engine
	asm  *exam.Assembler
	norm exam.Normalizer
	log  *zap.Logger
	opts Options
}

func New(eng llm.Engine, log *zap.Logger, opts Options) *Handle {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handle{
		eng:  eng,
		asm:  &exam.Assembler{PromptDir: opts.PromptDir, Legacy: opts.LegacyTags},
		norm: exam.Normalizer{Legacy: opts.LegacyTags},
		log:  log,
		opts: opts,
	}
}

// Routes wires every endpoint behind the CORS and request-id middleware.
func (h *Handle) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/api", h.Analyze)
	return withCORS(h.withRequestLog(mux))
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	enc := json.NewEncoder(w)
	// model text passes through as-is
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, exam.ErrorResponse{Error: msg})
}
