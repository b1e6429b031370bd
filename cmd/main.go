package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"

	"github.com/xhad/tenders/internal/models"
	"github.com/xhad/tenders/internal/types"
	cfgPkg "github.com/xhad/tenders/pkg/config"
	"github.com/xhad/tenders/pkg/extractor"
	"github.com/xhad/tenders/pkg/llm"
	"github.com/xhad/tenders/pkg/logger"
	"github.com/xhad/tenders/pkg/output"
	"github.com/xhad/tenders/pkg/pipeline"
	"github.com/xhad/tenders/pkg/source"
	"github.com/xhad/tenders/pkg/store"
	"github.com/xhad/tenders/pkg/summary"
	"github.com/xhad/tenders/server"
)

type Options struct {
	ConfigPath string
	Inputs     []string
	Serve      bool
}

func main() {
	opts, config, err := parseFlags()
	if err != nil {
		color.Red("%v", err)
		os.Exit(2)
	}

	if errs := config.Validate(); len(errs) > 0 {
		for _, e := range errs {
			color.Red("config: %s", e.Error())
		}
		os.Exit(2)
	}

	if err := run(opts, config); err != nil {
		color.Red("\n✗ %v", err)
		os.Exit(1)
	}
}

func parseFlags() (Options, *cfgPkg.Config, error) {
	var (
		opts      Options
		input     string
		outPath   string
		xlsxPath  string
		workers   int
		ollamaURL string
		model     string
		dbURL     string
		noSummary bool
		listen    string
	)

	flag.StringVar(&opts.ConfigPath, "config", "", "Path to config file")
	flag.StringVar(&input, "input", "ten.pdf", "Tender documents to process (comma separated paths or URLs)")
	flag.StringVar(&outPath, "output", "", "JSON output path (default tender_summary.json)")
	flag.StringVar(&xlsxPath, "xlsx", "", "Also write an XLSX report to this path")
	flag.IntVar(&workers, "workers", 0, "Documents processed in parallel")
	flag.StringVar(&ollamaURL, "ollama-url", "", "Ollama server URL")
	flag.StringVar(&model, "model", "", "Summarization model")
	flag.StringVar(&dbURL, "db-url", "", "PostgreSQL connection string")
	flag.BoolVar(&noSummary, "no-summary", false, "Skip LLM summarization")
	flag.StringVar(&listen, "listen", "", "Serve the websocket API on this address instead of processing -input")
	flag.Parse()

	config, err := cfgPkg.LoadConfig(opts.ConfigPath)
	if err != nil {
		return opts, nil, err
	}

	// Flags given on the command line win over the config file
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "output":
			config.Output.Path = outPath
		case "xlsx":
			config.Output.XLSX = xlsxPath
		case "workers":
			config.Output.Workers = workers
		case "ollama-url":
			config.LLM.BaseURL = ollamaURL
		case "model":
			config.LLM.Model = model
		case "db-url":
			config.Database.URL = dbURL
		case "no-summary":
			enabled := !noSummary
			config.Summary.Enabled = &enabled
		case "listen":
			if listen != "" {
				config.Server.Addr = listen
			}
			opts.Serve = true
		}
	})

	for _, in := range strings.Split(input, ",") {
		if in = strings.TrimSpace(in); in != "" {
			opts.Inputs = append(opts.Inputs, in)
		}
	}
	if len(opts.Inputs) == 0 && !opts.Serve {
		return opts, nil, errors.New("no input documents given")
	}

	return opts, config, nil
}

func getProgressBar(total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription(color.BlueString(description)),
		progressbar.OptionSetItsString("docs"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionSetRenderBlankState(true),
	)
}

func run(opts Options, config *cfgPkg.Config) error {
	log, err := logger.New(logger.Config{Level: config.Log.Level, Format: config.Log.Format})
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Page progress only makes sense when a single document is extracted
	srcConfig := source.SourceConfig{
		Pdftotext: config.Source.Pdftotext,
		Timeout:   time.Duration(config.Source.TimeoutSec) * time.Second,
		UserAgent: config.Source.UserAgent,
		RateLimit: config.Source.RateLimit,
		Logger:    log,
	}
	if len(opts.Inputs) == 1 && !opts.Serve {
		srcConfig.Progress = os.Stderr
	}
	src := source.NewWithConfig(srcConfig)

	ext := extractor.New(extractor.Config{
		DescriptionTokens: config.Extract.DescriptionTokens,
		PreferMonthFirst:  config.Extract.PreferMonthFirst,
		Logger:            log,
	})

	var summarizer types.Summarizer
	if config.SummaryEnabled() {
		s, err := llm.NewSummarizer(llm.SummarizerConfig{
			Model:       config.LLM.Model,
			Temperature: config.LLM.Temperature,
			MinLength:   config.Summary.MinLength,
			MaxLength:   config.Summary.MaxLength,
			RateLimit:   config.Summary.RateLimit,
			BaseURL:     config.LLM.BaseURL,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize summarizer: %w", err)
		}
		defer s.Close()
		summarizer = s
	} else {
		color.Yellow("Summarization disabled")
	}
	builder := summary.NewBuilder(summarizer, summary.Config{
		ChunkSize: config.Summary.ChunkSize,
		MaxChunks: config.Summary.MaxChunks,
	}, log)

	var tenderStore *store.TenderStore
	if config.Database.URL != "" {
		tenderStore, err = openStore(ctx, config, log)
		if err != nil {
			return err
		}
		defer tenderStore.Close()
	}

	pcfg := pipeline.PipelineConfig{
		Source:    src,
		Extractor: ext,
		Summary:   builder,
		Logger:    log,
	}
	if tenderStore != nil {
		pcfg.Store = tenderStore
	}

	if opts.Serve {
		return serve(ctx, config, pcfg, tenderStore, log)
	}
	return processDocuments(ctx, opts.Inputs, config, pcfg)
}

func openStore(ctx context.Context, config *cfgPkg.Config, log *zap.Logger) (*store.TenderStore, error) {
	embedder, err := llm.NewEmbedderWithConfig(llm.EmbedderConfig{
		Model:   config.LLM.EmbedModel,
		BaseURL: config.LLM.BaseURL,
	})
	if err != nil {
		return nil, err
	}

	ts, err := store.NewWithConfig(ctx, store.TenderStoreConfig{
		ConnString: config.Database.URL,
		TableName:  config.Database.TableName,
		VectorDim:  config.Database.VectorDim,
		Embedder:   embedder,
		Logger:     log,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tender store: %w", err)
	}
	color.Green("✓ Connected to database (table %s)", config.Database.TableName)
	return ts, nil
}

func serve(ctx context.Context, config *cfgPkg.Config, pcfg pipeline.PipelineConfig, ts *store.TenderStore, log *zap.Logger) error {
	p, err := pipeline.NewWithConfig(pcfg)
	if err != nil {
		return err
	}

	scfg := server.Config{
		Processor:       p,
		Logger:          log,
		AllowLocalFiles: config.Server.AllowLocalFiles,
	}
	if ts != nil {
		scfg.Searcher = ts
	}
	srv, err := server.NewWSServer(scfg)
	if err != nil {
		return err
	}

	color.Cyan("Serving websocket API on %s (ctrl-c to stop)", config.Server.Addr)
	return srv.ListenAndServe(ctx, config.Server.Addr)
}

func processDocuments(ctx context.Context, inputs []string, config *cfgPkg.Config, pcfg pipeline.PipelineConfig) error {
	if len(inputs) > 1 {
		color.Blue("\nProcessing %d tender documents\n", len(inputs))
		bar := getProgressBar(len(inputs), "📄 Extracting tenders...")
		pcfg.OnDone = func(pipeline.Result) { _ = bar.Add(1) }
		defer bar.Finish()
	}

	p, err := pipeline.NewWithConfig(pcfg)
	if err != nil {
		return err
	}

	results, err := p.ProcessAll(ctx, inputs, config.Output.Workers)
	if err != nil {
		return fmt.Errorf("interrupted: %w", err)
	}

	fmt.Println()
	records := make([]models.ExtractedRecord, 0, len(results))
	for _, res := range results {
		if res.Err != nil {
			color.Red("✗ %s: %v", res.Source, res.Err)
			continue
		}
		color.Green("✓ %s: %d/%d fields (%s)", res.Source, res.Found(), len(res.Outcomes), res.Duration.Round(time.Millisecond))
		printMissing(res)
		records = append(records, res.Record)
	}

	if len(records) == 0 {
		return errors.New("no document could be processed")
	}

	writer, err := output.NewJSONWriter()
	if err != nil {
		return err
	}
	if len(inputs) == 1 {
		err = writer.WriteRecord(config.Output.Path, records[0])
	} else {
		err = writer.WriteRecords(config.Output.Path, records)
	}
	if err != nil {
		return err
	}
	color.Green("\nJSON summary saved to %s", config.Output.Path)

	if config.Output.XLSX != "" {
		if err := output.WriteReport(config.Output.XLSX, results); err != nil {
			return err
		}
		color.Green("XLSX report saved to %s", config.Output.XLSX)
	}

	if failed := pipeline.Failed(results); len(failed) > 0 {
		color.Yellow("%d of %d documents failed", len(failed), len(results))
	}
	return nil
}

func printMissing(res pipeline.Result) {
	for _, name := range models.FieldNames {
		o, ok := res.Outcomes[name]
		if !ok || o.Status == models.StatusFound {
			continue
		}
		if o.Status == models.StatusFailed {
			color.Yellow("    %s: failed (%s)", name, o.Reason)
		} else {
			color.White("    %s: %s", name, o.Reason)
		}
	}
}
