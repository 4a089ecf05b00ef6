package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/fatih/color"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/mitanuriel/agentSecOps-Guardian/internal/alert"
	"github.com/mitanuriel/agentSecOps-Guardian/internal/baseline"
	"github.com/mitanuriel/agentSecOps-Guardian/internal/config"
	"github.com/mitanuriel/agentSecOps-Guardian/internal/mistral"
	"github.com/mitanuriel/agentSecOps-Guardian/internal/output"
	"github.com/mitanuriel/agentSecOps-Guardian/internal/prompts"
	"github.com/mitanuriel/agentSecOps-Guardian/internal/report"
	"github.com/mitanuriel/agentSecOps-Guardian/internal/scanner"
	"github.com/mitanuriel/agentSecOps-Guardian/internal/server"
	"github.com/mitanuriel/agentSecOps-Guardian/internal/textfile"
)

const watchDebounce = 500 * time.Millisecond

var (
	version = "dev" // Set by ldflags

	configPath       string
	outputFile       string
	outputType       string
	lowercase        bool
	stripSpaces      bool
	removeWhitespace bool
	lineMode         bool
	useMistral       bool
	mistralKey       string
	analysisType     string
	noPatterns       bool
	failOnFindings   bool
	watchMode        bool
	verbose          bool
	baselinePath     string
	webhookURL       string
	webhookSecret    string

	baselineOut string

	serveHost string
	servePort int
	serveRate float64
)

var errMissingKey = errors.New("Mistral AI analysis requested but no API key provided")

// For testing purposes
var (
	exitWith       = func(code int) { os.Exit(code) }
	mistralBaseURL = ""
	watchDone      chan struct{}
)

// finish reports the outcome of a command and exits with the matching code.
func finish(err error, total int) {
	if err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "❌ Error: %v\n", err)
		if errors.Is(err, errMissingKey) {
			fmt.Fprintln(os.Stderr, "   Set MISTRAL_API_KEY environment variable or use --mistral-key option.")
		}
		exitWith(1)
		return
	}
	if failOnFindings && total > 0 {
		exitWith(3)
		return
	}
	exitWith(0)
}

func status(format string, a ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
}

func displayPath(path string) string {
	if path == "" || path == "-" {
		return "stdin"
	}
	return path
}

var rootCmd = &cobra.Command{
	Use:           "secure",
	Short:         "AI-Powered Security Analysis Tool",
	Long:          `secure analyzes text files for leaked credentials, sensitive data and insecure code patterns, optionally enriched with Mistral AI analysis, and produces a Markdown security report.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var scanCmd = &cobra.Command{
	Use:   "scan [file]",
	Short: "Analyze a text file for security issues",
	Long:  `Analyze a text file for leaked passwords, API keys, sensitive data and insecure code patterns. With no file argument (or "-") the input is read from stdin.`,
	Args:  cobra.MaximumNArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		if analysisType != "" {
			if _, err := prompts.Get(analysisType); err != nil {
				return err
			}
		}

		switch output.Format(outputType) {
		case output.FormatConsole, output.FormatJSON, output.FormatMarkdown:
		default:
			return fmt.Errorf("unsupported output format: %s", outputType)
		}

		if watchMode && (len(args) == 0 || args[0] == "-") {
			return fmt.Errorf("--watch requires a file path")
		}

		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		inputPath := ""
		if len(args) > 0 {
			inputPath = args[0]
		}

		if watchMode {
			finish(watchAndScan(inputPath), 0)
			return nil
		}

		total, err := runScan(inputPath)
		finish(err, total)
		return nil
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the post-generation HTTP service",
	Long:  `Run an HTTP service exposing a health endpoint and a rate-limited Mistral-backed social media post generator.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		fileCfg, err := config.Load(configPath)
		if err != nil {
			finish(err, 0)
			return nil
		}
		cfg := config.Merge(fileCfg, map[string]interface{}{
			"host":       serveHost,
			"port":       servePort,
			"rate-limit": serveRate,
		})

		srv := server.New(server.Options{
			Host:        cfg.Host,
			Port:        cfg.Port,
			RateLimit:   cfg.RateLimit,
			UpstreamURL: mistralBaseURL,
		})
		status("🚀 Serving on http://%s", srv.Addr())
		finish(srv.Run(cmd.Context()), 0)
		return nil
	},
}

var keycheckCmd = &cobra.Command{
	Use:   "keycheck",
	Short: "Validate the configured Mistral API key",
	RunE: func(cmd *cobra.Command, args []string) error {
		fileCfg, err := config.Load(configPath)
		if err != nil {
			finish(err, 0)
			return nil
		}
		cfg := config.Merge(fileCfg, map[string]interface{}{"mistral-key": mistralKey})

		if cfg.APIKey == "" {
			color.New(color.FgRed).Fprintln(os.Stderr, "❌ Error: No API key provided.")
			fmt.Fprintln(os.Stderr, "   Set MISTRAL_API_KEY environment variable or use --mistral-key option.")
			exitWith(1)
			return nil
		}

		client, err := mistral.NewClient(mistral.ClientOptions{APIKey: cfg.APIKey, BaseURL: mistralBaseURL})
		if err != nil {
			finish(err, 0)
			return nil
		}

		status("Testing API key...")
		err = client.ValidateKey(cmd.Context())

		var apiErr *mistral.APIError
		switch {
		case err == nil:
			fmt.Println("✅ SUCCESS! Your API key is valid and working!")
			exitWith(0)
		case errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized:
			color.New(color.FgRed).Fprintln(os.Stderr, "❌ AUTHENTICATION FAILED")
			fmt.Fprintf(os.Stderr, "Error: %s\n", apiErr.Message)
			fmt.Fprintln(os.Stderr, "Verify your key at: https://console.mistral.ai/")
			exitWith(1)
		case errors.As(err, &apiErr):
			fmt.Fprintf(os.Stderr, "⚠️  Unexpected response: %d\n", apiErr.StatusCode)
			fmt.Fprintf(os.Stderr, "Details: %s\n", apiErr.Message)
			exitWith(1)
		default:
			color.New(color.FgRed).Fprintf(os.Stderr, "❌ Network error: %v\n", err)
			exitWith(1)
		}
		return nil
	},
}

var baselineCmd = &cobra.Command{
	Use:   "baseline [file]",
	Short: "Record current findings as accepted",
	Long:  `Scan the input and write a baseline file suppressing every current finding. Later scans run with --baseline report only findings introduced since.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		inputPath := ""
		if len(args) > 0 {
			inputPath = args[0]
		}
		finish(runBaseline(inputPath), 0)
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("secure version %s\n", version)
	},
}

// runScan executes one full analysis pass and returns the total finding
// count for the exit-code decision.
func runScan(inputPath string) (int, error) {
	fileCfg, err := config.Load(configPath)
	if err != nil {
		return 0, err
	}
	cfg := config.Merge(fileCfg, map[string]interface{}{
		"output":         outputFile,
		"analysis-type":  analysisType,
		"mistral-key":    mistralKey,
		"webhook-url":    webhookURL,
		"webhook-secret": webhookSecret,
	})

	if verbose {
		status("📖 Reading and parsing: %s", displayPath(inputPath))
	}
	content, err := textfile.Read(inputPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, fmt.Errorf("File not found: %s", inputPath)
		}
		return 0, err
	}
	parsed := textfile.Transform(content, textfile.Options{
		Lowercase:      lowercase,
		Strip:          stripSpaces,
		CollapseSpaces: removeWhitespace,
		Lines:          lineMode,
	})

	// Empty result shape so skipped pattern analysis still reports zeros
	res := scanner.Scan("")
	if !noPatterns {
		if verbose {
			status("🔍 Performing pattern-based security analysis...")
		}
		res = scanner.Scan(parsed)
	} else if verbose {
		status("⚠️  Skipping pattern-based security analysis as requested")
	}

	if baselinePath != "" {
		b, err := baseline.Load(baselinePath)
		if err != nil {
			return 0, err
		}
		before := res.Findings.Total()
		res.Findings = b.Filter(res.Findings)
		if verbose {
			status("🧾 Baseline applied: %d findings suppressed", before-res.Findings.Total())
		}
	}

	var analysis *mistral.Analysis
	if useMistral {
		if verbose {
			status("🤖 Performing Mistral AI analysis...")
		}
		if cfg.APIKey == "" {
			return 0, errMissingKey
		}

		client, err := mistral.NewClient(mistral.ClientOptions{
			APIKey:  cfg.APIKey,
			BaseURL: mistralBaseURL,
			Model:   cfg.Model,
		})
		if err != nil {
			return 0, err
		}

		var findings *scanner.Result
		if !noPatterns {
			findings = &res
		}
		a, err := client.Analyze(context.Background(), parsed, cfg.AnalysisType, findings)
		if err != nil {
			status("⚠️  Mistral AI analysis error: %v", err)
		} else {
			analysis = &a
			if verbose {
				status("✅ Mistral AI analysis completed successfully")
			}
		}
	}

	if verbose {
		status("📊 Generating report: %s", cfg.Output)
	}
	in := report.Input{Metadata: res.Metadata, Pattern: &res.Findings, Analysis: analysis}
	if err := report.Write(in, cfg.Output); err != nil {
		return 0, err
	}

	if err := output.Write(res, analysis, output.Format(outputType), os.Stdout); err != nil {
		return 0, err
	}

	if verbose {
		status("✅ Security analysis complete. Report saved to: %s", cfg.Output)
	} else {
		status("📋 Report generated: %s", cfg.Output)
	}

	if cfg.WebhookURL != "" {
		if verbose {
			status("🔔 Sending webhook notification to %s", cfg.WebhookURL)
		}
		wh := alert.NewWebhook(cfg.WebhookURL, cfg.WebhookSecret)
		if err := wh.Send(alert.NewPayload(displayPath(inputPath), res)); err != nil {
			status("⚠️  Webhook notification error: %v", err)
		} else if verbose {
			status("✅ Webhook notification delivered")
		}
	}

	return res.Findings.Total(), nil
}

// runBaseline scans the input and records every finding as accepted.
func runBaseline(inputPath string) error {
	content, err := textfile.Read(inputPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("File not found: %s", inputPath)
		}
		return err
	}
	parsed := textfile.Transform(content, textfile.Options{
		Lowercase:      lowercase,
		Strip:          stripSpaces,
		CollapseSpaces: removeWhitespace,
		Lines:          lineMode,
	})
	res := scanner.Scan(parsed)

	path := baselineOut
	if path == "" {
		path = baseline.DefaultFileName
	}
	b := baseline.FromResult(res)
	if err := b.Save(path); err != nil {
		return err
	}

	status("✅ Baseline saved to: %s (%d findings)", path, len(b.Entries))
	return nil
}

// watchAndScan re-runs the scan whenever the input file is written. The
// parent directory is watched because editors typically replace the file.
func watchAndScan(inputPath string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(inputPath)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	if _, err := runScan(inputPath); err != nil {
		return err
	}
	status("👀 Watching %s for changes...", inputPath)

	target, err := filepath.Abs(inputPath)
	if err != nil {
		return err
	}

	debounce := time.NewTimer(watchDebounce)
	debounce.Stop()
	pending := false

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			evPath, err := filepath.Abs(event.Name)
			if err != nil || evPath != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			debounce.Reset(watchDebounce)
			pending = true
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			status("⚠️  Watch error: %v", err)
		case <-debounce.C:
			if !pending {
				continue
			}
			pending = false
			if _, err := runScan(inputPath); err != nil {
				return err
			}
			status("👀 Watching %s for changes...", inputPath)
		case <-watchDone:
			return nil
		}
	}
}

func init() {
	configPath = config.DefaultPath()

	// Scan command flags
	scanCmd.Flags().StringVarP(&configPath, "config", "c", configPath, "path to configuration file")
	scanCmd.Flags().StringVarP(&outputFile, "output", "o", "", "output report file path (default report.md)")
	scanCmd.Flags().StringVarP(&outputType, "type", "t", "console", "stdout format (console, json, markdown)")
	scanCmd.Flags().BoolVarP(&lowercase, "lowercase", "l", false, "convert text to lowercase before analysis")
	scanCmd.Flags().BoolVarP(&stripSpaces, "strip", "s", false, "strip leading/trailing whitespace")
	scanCmd.Flags().BoolVarP(&removeWhitespace, "remove-whitespace", "w", false, "remove extra whitespace between words")
	scanCmd.Flags().BoolVar(&lineMode, "lines", false, "process line by line (removes empty lines)")
	scanCmd.Flags().BoolVar(&useMistral, "mistral", false, "enable Mistral AI analysis for advanced threat detection")
	scanCmd.Flags().StringVar(&mistralKey, "mistral-key", "", "Mistral API key (overrides MISTRAL_API_KEY environment variable)")
	scanCmd.Flags().StringVar(&analysisType, "analysis-type", "", "type of Mistral AI analysis to perform (default security_analysis)")
	scanCmd.Flags().BoolVar(&noPatterns, "no-patterns", false, "skip pattern-based security analysis")
	scanCmd.Flags().BoolVar(&failOnFindings, "fail-on-findings", false, "exit with code 3 when findings are reported")
	scanCmd.Flags().BoolVar(&watchMode, "watch", false, "re-run the analysis when the input file changes")
	scanCmd.Flags().StringVar(&baselinePath, "baseline", "", "baseline file of accepted findings to suppress")
	scanCmd.Flags().StringVar(&webhookURL, "webhook-url", "", "endpoint to notify with signed scan results")
	scanCmd.Flags().StringVar(&webhookSecret, "webhook-secret", "", "shared secret for signing webhook payloads")
	scanCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")

	// Baseline command flags
	baselineCmd.Flags().StringVarP(&baselineOut, "output", "o", "", "baseline file path (default .guardian_baseline.json)")
	baselineCmd.Flags().BoolVarP(&lowercase, "lowercase", "l", false, "convert text to lowercase before analysis")
	baselineCmd.Flags().BoolVarP(&stripSpaces, "strip", "s", false, "strip leading/trailing whitespace")
	baselineCmd.Flags().BoolVarP(&removeWhitespace, "remove-whitespace", "w", false, "remove extra whitespace between words")
	baselineCmd.Flags().BoolVar(&lineMode, "lines", false, "process line by line (removes empty lines)")

	// Serve command flags
	serveCmd.Flags().StringVarP(&configPath, "config", "c", configPath, "path to configuration file")
	serveCmd.Flags().StringVar(&serveHost, "host", "", "bind host (default 127.0.0.1)")
	serveCmd.Flags().IntVar(&servePort, "port", 0, "bind port (default 8000)")
	serveCmd.Flags().Float64Var(&serveRate, "rate-limit", 0, "generate-post requests per second (default 1)")

	// Keycheck command flags
	keycheckCmd.Flags().StringVarP(&configPath, "config", "c", configPath, "path to configuration file")
	keycheckCmd.Flags().StringVar(&mistralKey, "mistral-key", "", "Mistral API key (overrides MISTRAL_API_KEY environment variable)")

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(baselineCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(keycheckCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "❌ Error: %v\n", err)
		exitWith(1)
	}
}
