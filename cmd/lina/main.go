package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"lina/internal/config"
	"lina/internal/logging"
	"lina/internal/service"
	"lina/internal/watch"
)

var (
	// Global flags
	verbose    bool
	configPath string
	apiKey     string
	sessionID  string

	// Search flags
	topK          int
	onlyAnomalies bool

	logger *zap.Logger
	cfg    *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "lina",
	Short: "LINA - LLM-driven network infrastructure assistant",
	Long: `LINA routes natural-language requests to specialized handlers:
log analysis over a vector log store, network design, remote server
management over SSH, and general chat. Session history carries context
across turns.

Run without arguments to start an interactive session.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zapConfig := zap.NewProductionConfig()
		if verbose {
			zapConfig.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zapConfig.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		if err := logging.Initialize("."); err != nil {
			return fmt.Errorf("failed to initialize debug logging: %w", err)
		}

		cfg, err = config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if apiKey != "" {
			cfg.LLM.APIKey = apiKey
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.CloseAll()
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInteractive()
	},
}

var queryCmd = &cobra.Command{
	Use:   "query [text]",
	Short: "Run a single query through the router",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := service.New(cfg)
		if err != nil {
			return err
		}
		defer svc.Close()

		ctx, cancel := signalContext()
		defer cancel()

		result, err := svc.Invoke(ctx, sessionID, strings.Join(args, " "))
		if err != nil {
			return err
		}
		if result.Terminated {
			logger.Info("Session terminated", zap.String("session", result.State.ID))
			return nil
		}
		fmt.Println(result.Output)
		logger.Info("Query handled",
			zap.String("session", result.State.ID),
			zap.String("decision", string(result.Decision)))
		return nil
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP surface (/health, /query)",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := service.New(cfg)
		if err != nil {
			return err
		}
		defer svc.Close()

		ctx, cancel := signalContext()
		defer cancel()

		if cfg.Watch.Enabled {
			watcher, err := watch.New(svc.Pipeline())
			if err != nil {
				return fmt.Errorf("failed to create watcher: %w", err)
			}
			defer watcher.Stop()
			go func() {
				if err := watcher.Run(ctx, cfg.Watch.Directory); err != nil && ctx.Err() == nil {
					logger.Warn("Watcher stopped", zap.Error(err))
				}
			}()
		}

		logger.Info("Serving", zap.String("addr", cfg.Server.Addr))
		return svc.Serve(ctx, cfg.Server.Addr)
	},
}

var ingestCmd = &cobra.Command{
	Use:   "ingest [file...]",
	Short: "Normalize, embed, and store log files",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := service.New(cfg)
		if err != nil {
			return err
		}
		defer svc.Close()

		ctx, cancel := signalContext()
		defer cancel()

		total := 0
		for _, path := range args {
			inserted, err := svc.IngestFile(ctx, path)
			total += inserted
			if err != nil {
				return fmt.Errorf("ingest %s failed after %d records: %w", path, total, err)
			}
			logger.Info("Ingested file", zap.String("path", path), zap.Int("records", inserted))
		}
		fmt.Printf("Inserted %d records\n", total)
		return nil
	},
}

var searchCmd = &cobra.Command{
	Use:   "search [text]",
	Short: "Search stored logs by similarity",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := service.New(cfg)
		if err != nil {
			return err
		}
		defer svc.Close()

		ctx, cancel := signalContext()
		defer cancel()

		hits, err := svc.SearchLogs(ctx, strings.Join(args, " "), topK, onlyAnomalies)
		if err != nil {
			return err
		}
		if len(hits) == 0 {
			fmt.Println("No matching records.")
			return nil
		}
		for _, hit := range hits {
			fmt.Printf("%2d. (%.4f) [%s] [%s] [%s] %s\n",
				hit.Rank, hit.Distance, hit.Timestamp, hit.Source, hit.Severity, hit.Message)
		}
		return nil
	},
}

var sessionCmd = &cobra.Command{
	Use:   "session [id]",
	Short: "Show a session's turn history",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := service.New(cfg)
		if err != nil {
			return err
		}
		defer svc.Close()

		state, err := svc.Session(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if len(state.Turns) == 0 {
			fmt.Printf("Session %s has no history.\n", args[0])
			return nil
		}
		for _, turn := range state.Turns {
			fmt.Printf("%s: %s\n", turn.Role, turn.Content)
		}
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show log store status",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := service.New(cfg)
		if err != nil {
			return err
		}
		defer svc.Close()

		if !svc.StoreAvailable() {
			fmt.Println("Log store: unavailable")
			return nil
		}
		count, err := svc.StoreCount()
		if err != nil {
			return err
		}
		fmt.Printf("Log store: available, %d records\n", count)
		return nil
	},
}

// runInteractive reads queries from stdin until the router returns the
// exit sentinel.
func runInteractive() error {
	svc, err := service.New(cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	ctx, cancel := signalContext()
	defer cancel()

	id := sessionID
	if id == "" {
		id = uuid.NewString()
	}
	fmt.Printf("LINA ready (session %s). Say \"bye\" to leave.\n", id)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		query := strings.TrimSpace(scanner.Text())
		if query == "" {
			continue
		}

		result, err := svc.Invoke(ctx, id, query)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			if ctx.Err() != nil {
				return ctx.Err()
			}
			continue
		}
		if result.Terminated {
			fmt.Println("Goodbye.")
			return nil
		}
		fmt.Println(result.Output)
	}
}

// signalContext cancels on SIGINT/SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()
	return ctx, cancel
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath, "Config file path")
	rootCmd.PersistentFlags().StringVar(&apiKey, "api-key", "", "Gemini API key (or set GEMINI_API_KEY env)")
	rootCmd.PersistentFlags().StringVarP(&sessionID, "session", "s", "", "Session id (default: new session)")

	searchCmd.Flags().IntVar(&topK, "top-k", 10, "Maximum results")
	searchCmd.Flags().BoolVar(&onlyAnomalies, "anomalies", false, "Restrict candidates to anomalies")

	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(sessionCmd)
	rootCmd.AddCommand(statusCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
