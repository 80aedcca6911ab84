package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/TobiSchelling/StockFeed/internal/api"
	"github.com/TobiSchelling/StockFeed/internal/config"
	"github.com/TobiSchelling/StockFeed/internal/server"
	"github.com/TobiSchelling/StockFeed/internal/symbols"
)

var version = "dev"

var (
	verbose    bool
	configPath string
	cfg        *config.Config
	cfgFile    string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "stockfeed",
	Short:   "Financial news and stock history from the terminal",
	Long:    "StockFeed reads scored market news and price history from the StockFeed backend, in the terminal or as a local dashboard.",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "init" || cmd.Name() == "version" {
			setLogFlags(verbose)
			return nil
		}

		path, err := config.ResolveConfigPath(configPath)
		if err != nil {
			return err
		}
		cfg, err = config.Load(path)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		cfgFile = path
		setLogFlags(verbose || strings.EqualFold(cfg.Logging.Level, "DEBUG"))
		return nil
	},
}

func setLogFlags(debug bool) {
	if debug {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	} else {
		log.SetFlags(log.LstdFlags)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(articlesCmd)
	rootCmd.AddCommand(articleCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(stockCmd)
	rootCmd.AddCommand(symbolsCmd)
	rootCmd.AddCommand(serveCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("stockfeed", version)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration in ~/.config/stockfeed/",
	RunE: func(cmd *cobra.Command, args []string) error {
		target := filepath.Join(config.ConfigDir(), "config.yaml")
		if _, err := os.Stat(target); err == nil {
			fmt.Printf("Config already exists: %s\n", target)
			return nil
		}

		if err := os.MkdirAll(config.ConfigDir(), 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}

		if err := os.WriteFile(target, config.DefaultConfigYAML, 0o644); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		fmt.Printf("Created config: %s\n", target)
		fmt.Printf("Edit it to point at your backend, or set %s.\n", config.BaseURLEnv)
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show configuration and backend reachability",
	RunE: func(cmd *cobra.Command, args []string) error {
		baseURL, source := cfg.ResolveBaseURL()

		fmt.Println("Configuration:")
		if cfgFile != "" {
			fmt.Printf("  File: %s\n", cfgFile)
		} else {
			fmt.Println("  File: none (built-in defaults)")
		}
		fmt.Printf("  Backend: %s (%s)\n", baseURL, source)
		if t := cfg.Timeout(); t > 0 {
			fmt.Printf("  Timeout: %s\n", t)
		} else {
			fmt.Println("  Timeout: none")
		}
		fmt.Printf("  Debounce: %s\n", cfg.Debounce())
		fmt.Printf("  Symbol cache: %d queries\n", cfg.Symbols.CacheSize)

		fmt.Println("\nBackend:")
		client := newClient()
		ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
		defer cancel()

		start := time.Now()
		var probeErr error
		ok := client.Get(ctx, symbols.SearchPath("AAPL"), nil, func(err error) { probeErr = err })
		if ok {
			fmt.Printf("  Reachable (%s)\n", time.Since(start).Round(time.Millisecond))
			return nil
		}
		fmt.Printf("  Unreachable: %v\n", probeErr)
		var se *api.StatusError
		if errors.As(probeErr, &se) {
			fmt.Printf("  Server answered with HTTP %d\n", se.Code)
		}
		return nil
	},
}

var (
	servePort        int
	articlePagesFlag bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the local web dashboard",
	RunE: func(cmd *cobra.Command, args []string) error {
		if servePort != 0 {
			cfg.Server.Port = servePort
		}
		fmt.Printf("Starting dashboard at http://localhost:%d\n", cfg.Server.Port)
		fmt.Println("Press Ctrl+C to stop")
		return server.Serve(cfg, newClient())
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port to run server on (default from config)")
	serveCmd.Flags().BoolVar(&articlePagesFlag, "article-pages", false, "Enable /articles/{slug} detail pages")
	serveCmd.PreRun = func(cmd *cobra.Command, args []string) {
		if cmd.Flags().Changed("article-pages") {
			cfg.Server.ArticlePages = articlePagesFlag
		}
	}
}

func newClient() *api.Client {
	baseURL, source := cfg.ResolveBaseURL()
	if verbose {
		log.Printf("Using backend %s (%s)", baseURL, source)
	}
	return api.NewClient(baseURL, cfg.Timeout())
}

// logError is the error handler for commands that keep going after a failed
// request.
func logError(err error) {
	if errors.Is(err, context.Canceled) {
		return
	}
	log.Printf("Request failed: %v", err)
}
