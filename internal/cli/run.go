package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/reedharmon/pubpulse/internal/cms"
	"github.com/reedharmon/pubpulse/internal/config"
	"github.com/reedharmon/pubpulse/internal/engine"
	"github.com/reedharmon/pubpulse/internal/output"
	"github.com/reedharmon/pubpulse/internal/status"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a publish-latency probe against a CMS",
	Long: `Drive synthetic create, update and delete operations through a CMS
authoring API and poll the delivery surface until each mutation becomes
visible, measuring publish latency per operation.

Config file mode:
  pubpulse run --config probe.yaml

Quick CLI mode:
  pubpulse run --root-url https://www.example.com \
    --operator-url https://cms.example.com \
    --limit 20 --interval 1s

Update a fixed pool of existing nodes:
  pubpulse run --config probe.yaml --node-pool nodes.yaml

Flags override the corresponding config file fields.`,
	Run: func(cmd *cobra.Command, args []string) {
		runProbe(cmd, args)
	},
}

// runProbe wires the configuration, the CMS adapters and the engine, then
// drives one probe run to completion.
func runProbe(cmd *cobra.Command, args []string) {
	configFile, _ := cmd.Flags().GetString("config")
	rootURL, _ := cmd.Flags().GetString("root-url")
	operatorURL, _ := cmd.Flags().GetString("operator-url")
	outputPath, _ := cmd.Flags().GetString("output")
	quiet, _ := cmd.Flags().GetBool("quiet")
	noColor, _ := cmd.Flags().GetBool("no-color")

	var cfg *config.Config
	var err error

	if configFile != "" {
		// Load config from file
		cfg, err = config.LoadConfig(configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
	} else if rootURL != "" || operatorURL != "" {
		// Build config from CLI flags
		cfg = &config.Config{}
	} else {
		fmt.Println("Error: either --config or --root-url and --operator-url are required")
		cmd.Help()
		return
	}

	if err := applyFlagOverrides(cmd.Flags(), cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error building config: %v\n", err)
		os.Exit(1)
	}
	cfg.ApplyDefaults()

	console := output.NewConsole(output.ConsoleConfig{
		Name:    cfg.Name,
		Quiet:   quiet,
		NoColor: noColor,
	})

	if err := cfg.Validate(); err != nil {
		var verrs *config.ValidationErrors
		if errors.As(err, &verrs) {
			console.PrintValidationErrors(verrs)
		} else {
			console.PrintError(err)
		}
		os.Exit(1)
	}

	logger := config.NewLogger(os.Stderr, cfg.LogLevel)

	clientCfg := cms.DefaultClientConfig()
	clientCfg.Timeout = cfg.Operator.Timeout.Std()
	clientCfg.InsecureSkipVerify = cfg.Operator.InsecureSkipVerify
	httpClient := cms.NewHTTPClient(clientCfg)

	operator := cms.NewOperator(cms.OperatorConfig{
		BaseURL: cfg.Operator.BaseURL,
		Client:  httpClient,
		Headers: cfg.Operator.Headers,
	})
	checker := cms.NewChecker(cms.CheckerConfig{
		Client:  httpClient,
		Headers: cfg.Operator.Headers,
	})

	eng, err := engine.New(engine.Config{
		RootURL:         cfg.RootURL,
		Interval:        cfg.Interval.Std(),
		OperationsLimit: cfg.OperationsLimit,
		CheckBackoff:    cfg.CheckBackoff.Std(),
		MaxChecks:       cfg.MaxChecks,
		NodePool:        seedNodes(cfg.NodePool),
	}, operator, checker, engine.WithLogger(logger))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating engine: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// A signal stops the scheduler so partial results still get reported.
	// Workers are released when the deferred cancel runs.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			eng.Stop()
		case <-ctx.Done():
		}
	}()

	if cfg.StatusAddr != "" {
		srv := status.NewServer(cfg.StatusAddr, eng, logger)
		serveErr := srv.Start()
		go func() {
			for err := range serveErr {
				logger.Error("status server failed", "error", err)
			}
		}()
		go srv.Watch(ctx, time.Second)
		defer func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			srv.Shutdown(shutdownCtx)
		}()
	}

	// Run the engine in a goroutine and render progress until it returns
	var result *engine.Result
	var runErr error
	runDone := make(chan struct{})
	go func() {
		defer close(runDone)
		result, runErr = eng.Run(ctx)
	}()

	updateTicker := time.NewTicker(time.Second)
	defer updateTicker.Stop()

progressLoop:
	for {
		select {
		case <-runDone:
			break progressLoop
		case <-updateTicker.C:
			console.Progress(eng.Snapshot())
		}
	}

	if runErr != nil && !errors.Is(runErr, engine.ErrStopped) {
		console.PrintError(runErr)
		// Continue to output partial results even on error
	}

	console.PrintSummary(result)

	if outputPath != "" {
		if err := output.WriteReport(outputPath, result); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing report: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Results written to: %s\n", outputPath)
	}

	// Exit with error code on an aborted run or failed operations
	if runErr != nil {
		os.Exit(1)
	}
	if result != nil && result.Summary != nil && result.Summary.Failed > 0 {
		os.Exit(1)
	}
}

// applyFlagOverrides layers explicitly set CLI flags over the config.
func applyFlagOverrides(flags *pflag.FlagSet, cfg *config.Config) error {
	if flags.Changed("root-url") {
		cfg.RootURL, _ = flags.GetString("root-url")
	}
	if flags.Changed("operator-url") {
		cfg.Operator.BaseURL, _ = flags.GetString("operator-url")
	}
	if flags.Changed("name") {
		cfg.Name, _ = flags.GetString("name")
	}
	if flags.Changed("limit") {
		cfg.OperationsLimit, _ = flags.GetInt("limit")
	}
	if flags.Changed("max-checks") {
		cfg.MaxChecks, _ = flags.GetInt("max-checks")
	}
	if flags.Changed("log-level") {
		cfg.LogLevel, _ = flags.GetString("log-level")
	}
	if flags.Changed("status-addr") {
		cfg.StatusAddr, _ = flags.GetString("status-addr")
	}
	if flags.Changed("insecure") {
		cfg.Operator.InsecureSkipVerify, _ = flags.GetBool("insecure")
	}

	if err := overrideDuration(flags, "interval", &cfg.Interval); err != nil {
		return err
	}
	if err := overrideDuration(flags, "check-backoff", &cfg.CheckBackoff); err != nil {
		return err
	}
	if err := overrideDuration(flags, "timeout", &cfg.Operator.Timeout); err != nil {
		return err
	}

	if headers, _ := flags.GetStringArray("header"); len(headers) > 0 {
		if cfg.Operator.Headers == nil {
			cfg.Operator.Headers = make(map[string]string, len(headers))
		}
		for _, header := range headers {
			parts := strings.SplitN(header, ":", 2)
			if len(parts) != 2 {
				return fmt.Errorf("invalid header %q, expected 'Name: Value'", header)
			}
			cfg.Operator.Headers[strings.TrimSpace(parts[0])] = strings.TrimSpace(parts[1])
		}
	}

	if poolFile, _ := flags.GetString("node-pool"); poolFile != "" {
		pool, err := config.LoadNodePool(poolFile)
		if err != nil {
			return fmt.Errorf("loading node pool: %w", err)
		}
		cfg.NodePool = pool
	}

	return nil
}

// overrideDuration parses a duration flag into dst when explicitly set.
// Accepts Go duration strings and bare second counts.
func overrideDuration(flags *pflag.FlagSet, name string, dst *config.Duration) error {
	if !flags.Changed(name) {
		return nil
	}
	raw, _ := flags.GetString(name)
	d, err := config.ParseDurationString(raw)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", name, err)
	}
	*dst = config.Duration(d)
	return nil
}

// seedNodes converts configured pool entries into registry seeds. Seeded
// nodes are live published content on the CMS.
func seedNodes(pool []config.PoolNode) []engine.Node {
	nodes := make([]engine.Node, 0, len(pool))
	for _, p := range pool {
		nodes = append(nodes, engine.Node{
			ID:          p.ID,
			PagePath:    p.PagePath,
			Selector:    p.Selector,
			Value:       p.Value,
			Context:     p.Context,
			ExistsOnCMS: true,
			Published:   true,
		})
	}
	return nodes
}

func init() {
	// Probe flags
	runCmd.Flags().String("root-url", "", "Delivery-surface base URL checked for published content")
	runCmd.Flags().String("operator-url", "", "CMS authoring API base URL")
	runCmd.Flags().String("name", "", "Run name used in the summary and report")
	runCmd.Flags().String("interval", "", "Scheduler tick interval, e.g. 1s or 500ms (bare numbers mean seconds)")
	runCmd.Flags().IntP("limit", "n", 0, "Total operations to spawn for the run")
	runCmd.Flags().String("check-backoff", "", "Wait between delivery checks for one operation")
	runCmd.Flags().Int("max-checks", 0, "Delivery checks per operation before it fails (0 = unbounded)")
	runCmd.Flags().String("node-pool", "", "File with existing nodes to update instead of create/delete churn")

	// CMS flags
	runCmd.Flags().StringArrayP("header", "H", []string{}, "Header sent with every request, 'Name: Value' (can be used multiple times)")
	runCmd.Flags().String("timeout", "", "HTTP request timeout")
	runCmd.Flags().Bool("insecure", false, "Skip TLS certificate verification")

	// Observability flags
	runCmd.Flags().String("status-addr", "", "Serve status and metrics endpoints on this address, e.g. :8611")
	runCmd.Flags().String("log-level", "", "Log level: debug, info, warn or error")

	// Basic flags
	runCmd.Flags().StringP("config", "c", "", "Configuration file (YAML or JSON)")
	runCmd.Flags().StringP("output", "o", "", "Write the run report as JSON to this file")
	runCmd.Flags().BoolP("quiet", "q", false, "Disable live progress output, show only final summary")
	runCmd.Flags().Bool("no-color", false, "Disable colored output")
}
