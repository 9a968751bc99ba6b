package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/supportai/triage-pipeline/internal/capability"
	"github.com/supportai/triage-pipeline/internal/capability/gemini"
	"github.com/supportai/triage-pipeline/internal/capability/memstore"
	"github.com/supportai/triage-pipeline/internal/capability/pgvector"
	"github.com/supportai/triage-pipeline/internal/config"
	"github.com/supportai/triage-pipeline/internal/escalate"
	"github.com/supportai/triage-pipeline/internal/kb"
	"github.com/supportai/triage-pipeline/internal/pipeline"
	"github.com/supportai/triage-pipeline/internal/runner"
	"github.com/supportai/triage-pipeline/internal/tickio"
	"github.com/supportai/triage-pipeline/internal/util"
)

func main() {
	ctx := context.Background()

	if len(os.Args) < 2 {
		usage(os.Stderr)
		os.Exit(2)
	}

	switch os.Args[1] {
	case "help", "-h", "--help":
		usage(os.Stdout)
		return
	case "run":
		os.Exit(runBatch(ctx, os.Args[2:]))
	case "index":
		os.Exit(runIndex(ctx, os.Args[2:]))
	default:
		_, _ = fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", os.Args[1])
		usage(os.Stderr)
		os.Exit(2)
	}
}

func runBatch(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	configPath := fs.String("config", "config.yaml", "Config file path (YAML, optional)")
	inputPath := fs.String("input", "", "Input CSV file path (columns: ticket_id, message, ...)")
	outputPath := fs.String("output", "", "Output JSONL file path (default stdout)")
	escalatorKind := fs.String("escalator", "log", "Escalation sink: log or kafka")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *inputPath == "" {
		_, _ = fmt.Fprintln(os.Stderr, "run requires --input")
		return 2
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fail("config error", err)
	}

	gem, err := gemini.New(ctx, gemini.Config{
		APIKey:         cfg.Gemini.APIKey,
		Model:          cfg.Gemini.Model,
		EmbeddingModel: cfg.Gemini.EmbeddingModel,
		BaseURL:        cfg.Gemini.BaseURL,
	})
	if err != nil {
		return fail("gemini config error", err)
	}

	var searcher capability.VectorSearcher
	switch cfg.Store.Backend {
	case "memory":
		store := memstore.New()
		// The in-memory store starts empty; index the corpus up front.
		corpus, err := kb.LoadCorpusFile(cfg.KB.CorpusPath)
		if err != nil {
			return fail("load corpus", err)
		}
		n, err := kb.Index(ctx, corpus, gem, store, kb.IndexOptions{
			ChunkSize: cfg.KB.ChunkSize,
			Overlap:   cfg.KB.Overlap,
		})
		if err != nil {
			return fail("index corpus", err)
		}
		log.Printf("indexed %d chunks from %s", n, cfg.KB.CorpusPath)
		searcher = store
	case "pgvector":
		store, err := pgvector.NewFromConnString(ctx, cfg.Store.ConnString, cfg.Store.Table)
		if err != nil {
			return fail("pgvector connect", err)
		}
		defer store.Close()
		searcher = store
	default:
		_, _ = fmt.Fprintf(os.Stderr, "unknown store backend %q\n", cfg.Store.Backend)
		return 2
	}

	var escalator capability.Escalator
	switch *escalatorKind {
	case "kafka":
		pub := escalate.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer func() { _ = pub.Close() }()
		escalator = pub
	case "log":
		escalator = escalate.NewLogSink(log.Default())
	default:
		_, _ = fmt.Fprintf(os.Stderr, "unknown escalator %q\n", *escalatorKind)
		return 2
	}

	in, err := os.Open(*inputPath)
	if err != nil {
		return fail("open input", err)
	}
	defer func() { _ = in.Close() }()
	tickets, err := tickio.ReadTicketsCSV(in)
	if err != nil {
		return fail("read input", err)
	}

	out := os.Stdout
	if *outputPath != "" {
		f, err := os.Create(*outputPath)
		if err != nil {
			return fail("create output", err)
		}
		defer func() { _ = f.Close() }()
		out = f
	}

	p := pipeline.New(pipeline.Capabilities{
		Classifier: gem,
		Generator:  gem,
		Embedder:   gem,
		Searcher:   searcher,
		Reranker:   gem,
		Escalator:  escalator,
	}, pipeline.Options{
		SearchTopK: cfg.Pipeline.SearchTopK,
		RerankTopK: cfg.Pipeline.RerankTopK,
		Retry: capability.RetryOptions{
			MaxAttempts:    cfg.Pipeline.MaxAttempts,
			RequestTimeout: cfg.Pipeline.RequestTimeout,
		},
		Logger: log.Default(),
	})

	results, err := runner.ProcessAll(ctx, tickets, p, runner.Options{
		Workers:      cfg.Pipeline.Workers,
		RateLimitRPS: cfg.Pipeline.RateLimitRPS,
	})
	if err != nil {
		return fail("run failed", err)
	}

	w := tickio.NewResultWriter(out)
	var escalated, failed int
	for _, r := range results {
		if err := w.WriteResult(r.TicketID, r.Result, r.Err); err != nil {
			return fail("write output", err)
		}
		if r.Err != nil {
			failed++
		} else if r.Result.Decision == pipeline.DecisionEscalate {
			escalated++
		}
	}
	log.Printf("processed %d tickets: %d escalated, %d failed", len(results), escalated, failed)
	return 0
}

func runIndex(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("index", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	configPath := fs.String("config", "config.yaml", "Config file path (YAML, optional)")
	corpusPath := fs.String("corpus", "", "Knowledge-base corpus YAML (default from config)")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fail("config error", err)
	}
	if *corpusPath == "" {
		*corpusPath = cfg.KB.CorpusPath
	}
	if cfg.Store.ConnString == "" {
		_, _ = fmt.Fprintln(os.Stderr, "index requires a pgvector conn_string (store.conn_string or DATABASE_URL)")
		return 2
	}

	gem, err := gemini.New(ctx, gemini.Config{
		APIKey:         cfg.Gemini.APIKey,
		Model:          cfg.Gemini.Model,
		EmbeddingModel: cfg.Gemini.EmbeddingModel,
		BaseURL:        cfg.Gemini.BaseURL,
	})
	if err != nil {
		return fail("gemini config error", err)
	}

	store, err := pgvector.NewFromConnString(ctx, cfg.Store.ConnString, cfg.Store.Table)
	if err != nil {
		return fail("pgvector connect", err)
	}
	defer store.Close()
	if err := store.EnsureSchema(ctx, cfg.Store.Dims); err != nil {
		return fail("ensure schema", err)
	}

	corpus, err := kb.LoadCorpusFile(*corpusPath)
	if err != nil {
		return fail("load corpus", err)
	}
	n, err := kb.Index(ctx, corpus, gem, store, kb.IndexOptions{
		ChunkSize: cfg.KB.ChunkSize,
		Overlap:   cfg.KB.Overlap,
	})
	if err != nil {
		return fail("index corpus", err)
	}
	log.Printf("indexed %d chunks from %s into %s", n, *corpusPath, cfg.Store.Table)
	return 0
}

func fail(what string, err error) int {
	_, _ = fmt.Fprintf(os.Stderr, "%s: %s\n", what, util.RedactSecrets(err.Error()))
	return 1
}

func usage(w *os.File) {
	_, _ = fmt.Fprintf(w, `triage: support-ticket triage and response pipeline

Usage:
  triage <command> [flags]

Commands:
  run    Process a CSV of tickets and emit JSONL results
  index  Chunk, embed and upsert the knowledge-base corpus into pgvector

Examples:
  triage run --input tickets.csv --output results.jsonl
  triage index --corpus kb.yaml

Environment:
  GEMINI_API_KEY    Gemini API key (required)
  GEMINI_MODEL      Gemini model name
  DATABASE_URL      Postgres conn string for the pgvector backend
  KAFKA_BROKERS     Comma-separated broker list for --escalator kafka
  WORKERS           Concurrent ticket workers

`)
}
