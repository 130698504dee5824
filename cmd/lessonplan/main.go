// Command lessonplan answers one lesson-plan question offline, failing loudly on any retrieval or generation error.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/bnccrag/internal/bootstrap"
	"github.com/kailas-cloud/bnccrag/internal/config"
	"github.com/kailas-cloud/bnccrag/internal/domain"
	logpkg "github.com/kailas-cloud/bnccrag/internal/logger"
	"github.com/kailas-cloud/bnccrag/internal/metrics"
	openaiTransport "github.com/kailas-cloud/bnccrag/internal/transport/openai"
	"github.com/kailas-cloud/bnccrag/internal/usecase/generation"
	"github.com/kailas-cloud/bnccrag/internal/usecase/grounding"
	"github.com/kailas-cloud/bnccrag/internal/usecase/rag"
	"github.com/kailas-cloud/bnccrag/internal/usecase/retrieval"
	"github.com/kailas-cloud/bnccrag/internal/version"
)

const (
	defaultQuestion  = "Quero uma aula sobre rimas e sons para o 1º ano"
	defaultYear      = "1º ano"
	defaultStage     = "Ensino Fundamental"
	defaultComponent = "Língua Portuguesa"
	defaultK         = 3
)

type options struct {
	question string
	filter   domain.Filter
	k        int
	fetchK   int
	model    string
	index    string
	version  bool
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var o options
	fs := flag.NewFlagSet("lessonplan", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.question, "q", defaultQuestion, "lesson request in free text")
	fs.StringVar(&o.filter.Year, "ano", defaultYear, "school year filter (empty disables)")
	fs.StringVar(&o.filter.Stage, "etapa", defaultStage, "education stage filter (empty disables)")
	fs.StringVar(&o.filter.Component, "componente", defaultComponent, "curriculum component filter (empty disables)")
	fs.IntVar(&o.k, "k", defaultK, "documents to retrieve")
	fs.IntVar(&o.fetchK, "fetch-k", config.DefaultFetchK, "candidates scanned before filtering (local index)")
	fs.StringVar(&o.model, "model", "", "chat model (default from config)")
	fs.StringVar(&o.index, "index", "", "index path or FT index name (default from config)")
	fs.BoolVar(&o.version, "version", false, "print version and exit")
	if err := fs.Parse(args); err != nil {
		return options{}, err //nolint:wrapcheck // flag already printed usage
	}
	if o.k <= 0 {
		return options{}, fmt.Errorf("-k must be positive, got %d", o.k)
	}
	if o.fetchK < o.k {
		return options{}, fmt.Errorf("-fetch-k (%d) must be >= -k (%d)", o.fetchK, o.k)
	}
	return o, nil
}

func run(args []string, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintln(stderr, err)
		return 2
	}
	if opts.version {
		fmt.Fprintln(stdout, version.String())
		return 0
	}

	env := config.GetEnv()
	cfg, err := config.Load(env)
	if err != nil {
		fmt.Fprintf(stderr, "failed to load config: %v\n", err)
		return 1
	}
	cfg.Index.FetchK = opts.fetchK
	if opts.index != "" {
		if cfg.Index.Remote() {
			cfg.Index.Name = opts.index
		} else {
			cfg.Index.Path = opts.index
		}
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		fmt.Fprintf(stderr, "failed to create logger: %v\n", err)
		return 1
	}
	defer func() { _ = logger.Sync() }()

	metrics.RegisterUpstreamMetrics()
	metrics.RegisterRAGMetrics()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	store, err := bootstrap.OpenStore(ctx, cfg.Database)
	if err != nil {
		logger.Error("Failed to open database", zap.Error(err))
		return 1
	}
	if store != nil {
		defer store.Close()
	}

	embedder := bootstrap.BuildEmbedder(&cfg, store, logger)
	handle := bootstrap.LoadIndex(ctx, cfg.Index, store, nil, embedder, logger)
	if !handle.Loaded() {
		logger.Error("Index unavailable", zap.String("index", handle.Name()), zap.Error(handle.Err()))
		return 1
	}

	chat := openaiTransport.NewChatClient(&openaiTransport.Config{
		APIKey:  cfg.Chat.APIKey,
		BaseURL: cfg.Chat.BaseURL,
		Model:   cfg.Chat.Model,
		Timeout: time.Duration(cfg.Chat.TimeoutSec) * time.Second,
	})
	pipeline := rag.New(
		retrieval.New(handle, opts.k, logger),
		generation.New(chat, cfg.Chat.Model, logger),
		grounding.NewVerifier(logger),
		rag.Offline,
		logger,
		rag.WithAvailability(handle),
	)

	res, err := pipeline.LessonPlan(ctx, rag.LessonPlanRequest{
		Question: opts.question,
		Filter:   opts.filter,
		TopK:     opts.k,
		Model:    opts.model,
		OnHits:   func(hits []domain.SimilarityResult) { logHits(logger, hits) },
	})
	if err != nil {
		logger.Error("Lesson plan failed", zap.Error(err))
		return 1
	}

	fmt.Fprintln(stdout, res.Text)
	return 0
}

func logHits(logger *zap.Logger, hits []domain.SimilarityResult) {
	for i, h := range hits {
		md := h.Document.Metadata
		logger.Info(fmt.Sprintf("[%d] score=%.4f codigo=%s ano=%s etapa=%s componente=%s",
			i+1, h.Score, md.Code, md.Year, md.Stage, md.Component))
	}
}
