package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/TobiSchelling/StockFeed/internal/stock"
	"github.com/TobiSchelling/StockFeed/internal/symbols"
)

var stockPeriod string

var stockCmd = &cobra.Command{
	Use:   "stock <symbol>",
	Short: "Show price history for a symbol",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		period, err := stock.ParsePeriod(cfg.Stock.Period)
		if err != nil {
			period = stock.DefaultPeriod
		}
		if cmd.Flags().Changed("period") {
			if period, err = stock.ParsePeriod(stockPeriod); err != nil {
				return err
			}
		}
		ctrl := stock.NewController(cmd.Context(), stock.NewFetcher(newClient()), strings.ToUpper(args[0]), period, logError)
		defer ctrl.Close()
		if !showView(ctrl.Load()) {
			return fmt.Errorf("no history for %s", strings.ToUpper(args[0]))
		}
		return nil
	},
}

func showView(v stock.View) bool {
	if v.Failed {
		fmt.Println("Error fetching stock data")
		return false
	}
	printHistory(os.Stdout, v.Symbol, v.Period, v.History)
	return true
}

func init() {
	var labels []string
	for _, p := range stock.Periods() {
		labels = append(labels, string(p.Value))
	}
	stockCmd.Flags().StringVarP(&stockPeriod, "period", "p", string(stock.DefaultPeriod),
		"History period: "+strings.Join(labels, ", "))
}

var symbolsCmd = &cobra.Command{
	Use:   "symbols [query]",
	Short: "Search ticker symbols; without a query, search interactively",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := newClient()
		searcher := symbols.NewSearcher(client, cfg.Symbols.CacheSize)
		if len(args) == 1 {
			printSymbols(os.Stdout, searcher.Search(cmd.Context(), args[0], logError), args[0])
			return nil
		}

		fmt.Println("Type a symbol or company name; enter a result number to open it,")
		fmt.Println("\"period <p>\" to change the history period of the open symbol, or quit.")
		var (
			panel   symbols.Panel
			results []symbols.Symbol
			ctrl    *stock.Controller
		)
		defer func() {
			if ctrl != nil {
				ctrl.Close()
			}
		}()
		scanner := bufio.NewScanner(os.Stdin)
		fmt.Print("> ")
		for scanner.Scan() {
			line := scanner.Text()
			switch {
			case strings.TrimSpace(line) == "quit":
				panel.Blur(false)
				return nil
			case panel.Open() && isIndex(line, len(results)):
				n, _ := strconv.Atoi(strings.TrimSpace(line))
				sym := results[n-1]
				fmt.Printf("Opening %s\n", panel.Select(sym))
				if ctrl == nil {
					ctrl = stock.NewController(cmd.Context(), stock.NewFetcher(client), sym.Symbol, "", logError)
					showView(ctrl.Load())
				} else {
					showView(ctrl.SetSymbol(sym.Symbol))
				}
			case ctrl != nil && strings.HasPrefix(strings.TrimSpace(line), "period "):
				p, err := stock.ParsePeriod(strings.TrimPrefix(strings.TrimSpace(line), "period "))
				if err != nil {
					fmt.Println(err)
					break
				}
				showView(ctrl.SetPeriod(p))
			default:
				panel.Focus()
				panel.SetQuery(line)
				cached := searcher.Has(line)
				results = searcher.Search(cmd.Context(), line, logError)
				printSymbols(os.Stdout, results, line)
				if cached && verbose {
					fmt.Println("(cached)")
				}
			}
			fmt.Print("> ")
		}
		return scanner.Err()
	},
}

func isIndex(s string, n int) bool {
	i, err := strconv.Atoi(strings.TrimSpace(s))
	return err == nil && i >= 1 && i <= n
}
