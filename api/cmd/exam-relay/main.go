package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"exam-relay/api/internal/config"
	"exam-relay/api/internal/exam"
	"exam-relay/api/internal/handle"
	"exam-relay/api/internal/httpserver"
	"exam-relay/api/internal/llm"
	"exam-relay/api/internal/llm/gemini"
	"exam-relay/api/internal/llm/vertex"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

type flags struct {
	envFile   string
	port      string
	provider  string
	model     string
	promptDir string
	legacy    bool
	logLevel  string
}

func newRootCmd() *cobra.Command {
	var f flags
	root := &cobra.Command{
		Use:          "exam-relay",
		Short:        "HTTP relay that analyses driving-theory exam photos with Gemini",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return config.LoadDotEnv(f.envFile)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := f.apply(cmd, config.Load())
			return serve(cmd.Context(), cfg)
		},
	}
	pf := root.PersistentFlags()
	pf.StringVar(&f.envFile, "env-file", ".env", "dotenv file to load before reading the environment")
	pf.StringVar(&f.promptDir, "prompt-dir", "", "directory with <mode>.system.txt prompt overrides (env PROMPT_DIR)")
	pf.BoolVar(&f.legacy, "legacy-tags", false, "use the tag-delimited image contract (env LEGACY_TAG_PARSER)")

	fs := root.Flags()
	fs.StringVarP(&f.port, "port", "p", "", "listen port (env PORT)")
	fs.StringVar(&f.provider, "provider", "", "upstream provider: gemini or vertex (env LLM_PROVIDER)")
	fs.StringVar(&f.model, "model", "", "model id for the selected provider (env GEMINI_MODEL / VERTEX_MODEL)")
	fs.StringVar(&f.logLevel, "log-level", "", "debug, info, warn or error (env LOG_LEVEL)")

	root.AddCommand(newPromptsCmd(&f))
	return root
}

// apply lets explicitly set flags win over the environment.
func (f *flags) apply(cmd *cobra.Command, cfg *config.Config) *config.Config {
	changed := func(name string) bool {
		fl := cmd.Flags().Lookup(name)
		return fl != nil && fl.Changed
	}
	if changed("port") {
		cfg.Port = f.port
	}
	if changed("provider") {
		cfg.Provider = strings.ToLower(f.provider)
	}
	if changed("model") {
		cfg.GeminiModel = f.model
		cfg.VertexModel = f.model
	}
	if changed("prompt-dir") {
		cfg.PromptDir = f.promptDir
	}
	if changed("legacy-tags") {
		cfg.LegacyTagParser = f.legacy
	}
	if changed("log-level") {
		cfg.LogLevel = f.logLevel
	}
	return cfg
}

func newPromptsCmd(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:       "prompts [image|followup|test]",
		Short:     "Print the effective system instruction for each mode",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{string(exam.ModeImage), string(exam.ModeFollowUp), string(exam.ModeTest)},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := f.apply(cmd, config.Load())
			asm := &exam.Assembler{PromptDir: cfg.PromptDir, Legacy: cfg.LegacyTagParser}

			modes := []exam.Mode{exam.ModeImage, exam.ModeFollowUp, exam.ModeTest}
			if len(args) == 1 {
				modes = []exam.Mode{exam.Mode(args[0])}
			}
			for _, m := range modes {
				s, err := asm.SystemPrompt(m)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "=== %s ===\n%s\n\n", m, s)
			}
			return nil
		},
	}
}

func serve(ctx context.Context, cfg *config.Config) error {
	if strings.TrimSpace(cfg.Port) == "" {
		cfg.Port = config.DefaultPort
	}
	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	for _, w := range cfg.Warnings() {
		logger.Warn(w)
	}

	engines := &llm.Engines{
		Gemini: gemini.New(cfg.GeminiAPIKey, cfg.GeminiModel),
		Vertex: vertex.New(cfg.VertexProject, cfg.VertexLocation, cfg.VertexModel),
	}
	eng, err := engines.GetEngine(cfg.Provider)
	if err != nil {
		return err
	}

	h := handle.New(eng, logger, handle.Options{
		Timeout:      cfg.UpstreamTimeout,
		MaxBodyBytes: cfg.MaxBodyBytes,
		PromptDir:    cfg.PromptDir,
		LegacyTags:   cfg.LegacyTagParser,
	})

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("exam-relay starting",
		zap.String("engine", eng.Name()),
		zap.String("model", eng.GetModel()),
		zap.Bool("legacy_tags", cfg.LegacyTagParser))
	return httpserver.Run(ctx, ":"+cfg.Port, h.Routes(), logger)
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		return nil, fmt.Errorf("bad log level %q: %w", level, err)
	}
	cfg := zap.NewProductionConfig()
	if lvl == zapcore.DebugLevel {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}
