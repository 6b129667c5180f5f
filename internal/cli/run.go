package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/ppiankov/punctuate/internal/manifest"
	"github.com/ppiankov/punctuate/internal/model"
	"github.com/ppiankov/punctuate/internal/pipeline"
)

var (
	inputManifest  string
	inputText      string
	outputManifest string
	outputText     string
	runTimeout     time.Duration
	noCache        bool
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Restore punctuation and capitalization of a manifest or text file",
	Long: `Run reads queries from a JSON-lines manifest or a plain text file (one
query per line), restores punctuation and capitalization through the
configured oracle and writes the results in the same shape.

Manifest records use their "pred_text" field when the first record has
one, "text" otherwise; the output manifest replaces that field. Use "-"
for stdin or stdout.

Example:
  punctuate run -t asr.txt -T restored.txt
  punctuate run -m manifest.json -M out/manifest.json --provider openai --model gpt-4o-mini
  punctuate run -t - -T - -L 128 -s 16 -g 32 < asr.txt`,
	Args: cobra.NoArgs,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)

	flags := runCmd.Flags()

	// Input/output flags
	flags.StringVarP(&inputManifest, "input-manifest", "m", "", "JSON-lines manifest to read queries from")
	flags.StringVarP(&inputText, "input-text", "t", "", "text file with one query per line")
	flags.StringVarP(&outputManifest, "output-manifest", "M", "", "path of the output manifest (requires --input-manifest)")
	flags.StringVarP(&outputText, "output-text", "T", "", "path of the output text file")
	runCmd.MarkFlagsMutuallyExclusive("input-manifest", "input-text")
	runCmd.MarkFlagsOneRequired("input-manifest", "input-text")
	runCmd.MarkFlagsMutuallyExclusive("output-manifest", "output-text")
	runCmd.MarkFlagsOneRequired("output-manifest", "output-text")

	// Segmentation flags
	flags.IntP("max-seq-length", "L", 0, "words per window (default from config: 64)")
	flags.IntP("step", "s", 0, "offset between consecutive windows (default from config: 8)")
	flags.IntP("margin", "g", 0, "edge words per window whose labels are ignored (default from config: 16)")
	flags.IntP("batch-size", "b", 0, "windows per oracle request (default from config: 128)")

	// Oracle flags
	flags.String("provider", "", "oracle provider (remote, openai, anthropic, ollama, gemini, neutral)")
	flags.String("model", "", "oracle model name")
	flags.String("base-url", "", "oracle base URL")
	flags.String("capitalization-labels", "", "capitalization tags, neutral tag first (default from config: OuU)")
	flags.StringSlice("transforms", nil, "casing transform per capitalization tag (keep, title, upper, lower)")
	flags.Bool("add-source-num-words", false, "tell the oracle how many words each window has")
	flags.Int("workers", 0, "concurrent oracle batches")
	flags.String("http-proxy", "", "HTTP proxy URL (overrides HTTP_PROXY env var)")
	flags.String("https-proxy", "", "HTTPS proxy URL (overrides HTTPS_PROXY env var)")

	flags.BoolVar(&noCache, "no-cache", false, "disable the label cache")
	flags.DurationVar(&runTimeout, "timeout", 0, "overall timeout (0 means none)")

	bindFlags(runCmd, map[string]string{
		"max-seq-length":        "segmentation.max_seq_length",
		"step":                  "segmentation.step",
		"margin":                "segmentation.margin",
		"batch-size":            "batch.size",
		"provider":              "oracle.provider",
		"model":                 "oracle.model",
		"base-url":              "oracle.base_url",
		"capitalization-labels": "labels.capitalization",
		"transforms":            "labels.transforms",
		"add-source-num-words":  "oracle.add_source_num_words",
		"workers":               "concurrency.workers",
		"http-proxy":            "oracle.http_proxy",
		"https-proxy":           "oracle.https_proxy",
	})
}

// bindFlags binds command flags to config keys. Unset flags never
// override the config file or environment.
func bindFlags(cmd *cobra.Command, keys map[string]string) {
	for flag, key := range keys {
		_ = viper.BindPFlag(key, cmd.Flags().Lookup(flag))
	}
}

func runRun(cmd *cobra.Command, args []string) error {
	if outputManifest != "" && inputManifest == "" {
		return fmt.Errorf("--output-manifest requires --input-manifest")
	}

	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}
	if noCache {
		cfg.Cache.Enabled = false
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if runTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, runTimeout)
		defer cancel()
	}

	stderr := cmd.ErrOrStderr()
	fmt.Fprintf(stderr, "\n")
	fmt.Fprintf(stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(stderr, "  Punctuate\n")
	fmt.Fprintf(stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(stderr, "\n")
	fmt.Fprintf(stderr, "  Input:        %s\n", firstNonEmpty(inputManifest, inputText))
	fmt.Fprintf(stderr, "  Output:       %s\n", firstNonEmpty(outputManifest, outputText))
	fmt.Fprintf(stderr, "  Oracle:       %s %s\n", cfg.Oracle.Provider, cfg.Oracle.Model)
	fmt.Fprintf(stderr, "  Windows:      %d words, step %d, margin %d\n",
		cfg.Segmentation.MaxSeqLength, cfg.Segmentation.Step, cfg.Segmentation.Margin)
	fmt.Fprintf(stderr, "  Batch size:   %d\n", cfg.Batch.Size)
	fmt.Fprintf(stderr, "\n")

	texts, m, err := readInput()
	if err != nil {
		return err
	}
	fmt.Fprintf(stderr, "✓ Loaded %d texts\n", len(texts))

	o, err := pipeline.NewOracle(ctx, cfg, logger)
	if err != nil {
		return err
	}
	p, err := pipeline.New(cfg, o, logger)
	if err != nil {
		return err
	}

	start := time.Now()
	results, err := p.Punctuate(ctx, texts)
	if err != nil {
		return fmt.Errorf("punctuate: %w", err)
	}

	if err := writeOutput(m, pipeline.Texts(results)); err != nil {
		return err
	}

	failed := report(stderr, results)
	logger.Debug("run complete",
		zap.Int("texts", len(results)),
		zap.Int("failed", failed),
		zap.Duration("elapsed", time.Since(start)))

	fmt.Fprintf(stderr, "\n")
	fmt.Fprintf(stderr, "  Total:     %d texts\n", len(results))
	fmt.Fprintf(stderr, "  Success:   %d\n", len(results)-failed)
	fmt.Fprintf(stderr, "  Failures:  %d\n", failed)
	fmt.Fprintf(stderr, "  Elapsed:   %v\n", time.Since(start).Round(time.Millisecond))
	fmt.Fprintf(stderr, "\n")

	if failed > 0 {
		return fmt.Errorf("%d of %d texts failed", failed, len(results))
	}
	return nil
}

func readInput() ([]string, *manifest.Manifest, error) {
	path := firstNonEmpty(inputManifest, inputText)
	r, err := manifest.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = r.Close() }()

	if inputText != "" {
		texts, err := manifest.ReadLines(r)
		return texts, nil, err
	}

	m, err := manifest.Read(r)
	if err != nil {
		return nil, nil, err
	}
	texts, err := m.Texts()
	if err != nil {
		return nil, nil, err
	}
	return texts, m, nil
}

func writeOutput(m *manifest.Manifest, texts []string) (err error) {
	w, err := manifest.Create(firstNonEmpty(outputManifest, outputText))
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := w.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close output: %w", closeErr)
		}
	}()

	if outputManifest != "" {
		return m.Write(w, texts)
	}
	return manifest.WriteLines(w, texts)
}

// report prints one line per failed text and returns the failure count
func report(w io.Writer, results []model.Result) int {
	failed := 0
	for _, r := range results {
		if r.Error != nil {
			failed++
			fmt.Fprintf(w, "✗ text %d: %v\n", r.Index, r.Error)
		}
	}
	return failed
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
