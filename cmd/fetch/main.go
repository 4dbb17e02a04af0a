// Command fetch pulls historical bars and a real-time quote for one or
// more symbols from a chosen provider and prints them as JSON.
package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"stockfetch/internal/config"
	"stockfetch/internal/httpx"
	"stockfetch/internal/registry"
	"stockfetch/internal/source"
)

type symbolReport struct {
	Symbol     string       `json:"symbol"`
	Historical []source.Bar `json:"historical"`
	Realtime   source.Quote `json:"realtime"`
}

func main() {
	// Optional .env for API keys, same resolution as the server.
	_ = godotenv.Load()

	var (
		apiName     string
		symbolsCSV  string
		startDate   string
		endDate     string
		granularity string
		configPath  string
	)

	root := &cobra.Command{
		Use:          "fetch",
		Short:        "Fetch stock data from a configured provider",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if apiName == "" {
				apiName = os.Getenv("API_NAME")
			}
			if apiName == "" {
				apiName = "yahoo_finance"
			}
			if endDate == "" {
				endDate = time.Now().Format(source.DateLayout)
			}
			if startDate == "" {
				startDate = time.Now().AddDate(-1, 0, 0).Format(source.DateLayout)
			}

			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			opts := []registry.Option{
				registry.WithHTTPClient(httpx.New(time.Duration(cfg.Server.RequestTimeoutSec) * time.Second)),
			}
			for name, u := range cfg.BaseURLs() {
				opts = append(opts, registry.WithBaseURL(name, u))
			}
			reg := registry.New(opts...)

			src, err := reg.Get(apiName)
			if err != nil {
				return err
			}
			slog.Info("using provider", "name", src.Name())

			symbols := splitCSV(symbolsCSV)
			if len(symbols) == 0 {
				return fmt.Errorf("no symbols given")
			}

			reports := make([]symbolReport, len(symbols))
			g, ctx := errgroup.WithContext(cmd.Context())
			for i, sym := range symbols {
				g.Go(func() error {
					bars, err := src.GetHistoricalData(ctx, sym, startDate, endDate, granularity)
					if err != nil {
						return fmt.Errorf("%s: historical: %w", sym, err)
					}
					quote, err := src.GetRealtimeData(ctx, sym)
					if err != nil {
						return fmt.Errorf("%s: realtime: %w", sym, err)
					}
					reports[i] = symbolReport{Symbol: sym, Historical: bars, Realtime: quote}
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(reports)
		},
	}

	root.Flags().StringVar(&apiName, "api", "", "provider name (env API_NAME), e.g. alpha_vantage")
	root.Flags().StringVar(&symbolsCSV, "symbols", "AAPL", "comma-separated ticker symbols")
	root.Flags().StringVar(&startDate, "start", "", "start date YYYY-MM-DD (default: one year ago)")
	root.Flags().StringVar(&endDate, "end", "", "end date YYYY-MM-DD (default: today)")
	root.Flags().StringVar(&granularity, "granularity", "1d", "bar granularity, e.g. 1m, 5m, 1d")
	root.Flags().StringVar(&configPath, "config", os.Getenv("CONFIG_FILE"), "path to config.json or config.yaml")

	providers := &cobra.Command{
		Use:   "providers",
		Short: "List the available provider names",
		Run: func(cmd *cobra.Command, args []string) {
			reg := registry.New()
			for _, n := range reg.Names() {
				if d, ok := reg.Lookup(n); ok && d.RequiresAPIKey {
					fmt.Printf("%s (requires %s_API_KEY)\n", n, strings.ToUpper(n))
					continue
				}
				fmt.Println(n)
			}
		},
	}
	root.AddCommand(providers)

	if err := root.Execute(); err != nil {
		slog.Error("fetch failed", "error", err)
		os.Exit(1)
	}
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
