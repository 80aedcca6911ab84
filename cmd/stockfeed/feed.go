package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/TobiSchelling/StockFeed/internal/feed"
	"github.com/TobiSchelling/StockFeed/internal/reader"
)

var (
	filterSearch    string
	filterRange     string
	filterSentiment string
	filterSector    string
	filterTickers   bool
	filterSymbol    string
	listSectors     bool
	fullText        bool
)

// filtersFromFlags builds the feed filters, starting from the configured
// default time range.
func filtersFromFlags(cmd *cobra.Command) (feed.Filters, error) {
	f := feed.DefaultFilters()
	if tr, err := feed.ParseTimeRange(cfg.Feed.TimeRange); err == nil {
		f.TimeRange = tr
	}
	f.Search = filterSearch
	f.OnlyWithTickers = filterTickers

	if cmd.Flags().Changed("range") {
		tr, err := feed.ParseTimeRange(filterRange)
		if err != nil {
			return f, err
		}
		f.TimeRange = tr
	}
	if cmd.Flags().Changed("sentiment") {
		s, err := feed.ParseSentiment(filterSentiment)
		if err != nil {
			return f, err
		}
		f.Sentiment = s
	}
	if s := strings.TrimSpace(filterSector); s != "" {
		f.Sector = s
	}
	return f, nil
}

var articlesCmd = &cobra.Command{
	Use:   "articles",
	Short: "List recent articles",
	RunE: func(cmd *cobra.Command, args []string) error {
		filters, err := filtersFromFlags(cmd)
		if err != nil {
			return err
		}

		fetcher := feed.NewFetcher(newClient())
		symbol := strings.ToUpper(strings.TrimSpace(filterSymbol))
		articles := fetcher.Articles(cmd.Context(), filters, symbol, logError)

		if listSectors {
			for _, s := range feed.SectorOptions(articles) {
				fmt.Println(s)
			}
			return nil
		}
		printArticles(os.Stdout, articles)
		fmt.Printf("%d articles\n", len(articles))
		return nil
	},
}

func addFilterFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&filterSearch, "search", "s", "", "Free-text search")
	cmd.Flags().StringVarP(&filterRange, "range", "r", "24h", "Time range: 1h, 4h, 24h or 7d")
	cmd.Flags().StringVar(&filterSentiment, "sentiment", "all", "Sentiment: all, positive, neutral or negative")
	cmd.Flags().StringVar(&filterSector, "sector", "", "Restrict to one sector")
	cmd.Flags().BoolVar(&filterTickers, "only-with-tickers", false, "Only articles mentioning tickers")
	cmd.Flags().StringVar(&filterSymbol, "symbol", "", "Only articles about this ticker")
}

func init() {
	addFilterFlags(articlesCmd)
	articlesCmd.Flags().BoolVar(&listSectors, "sectors", false, "List the sectors present in the results instead")

	addFilterFlags(watchCmd)

	articleCmd.Flags().BoolVar(&fullText, "full", false, "Print the full text, fetching the source page when needed")
}

var articleCmd = &cobra.Command{
	Use:   "article <slug>",
	Short: "Show one article",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fetcher := feed.NewFetcher(newClient())
		a := fetcher.Article(cmd.Context(), args[0], logError)
		if !a.Found() {
			printArticle(os.Stdout, a, "")
			return nil
		}

		var text string
		if fullText {
			if content := a.Content; content != nil && strings.TrimSpace(*content) != "" {
				text = reader.PlainText(*content)
			} else {
				page, err := reader.NewExtractor(cfg.Timeout()).Extract(cmd.Context(), a.URL)
				if err != nil {
					return fmt.Errorf("reading source page: %w", err)
				}
				text = page.Text
			}
		}
		printArticle(os.Stdout, a, text)
		return nil
	},
}

const watchHelp = `Commands:
  search <text>        set the search text (empty clears it)
  range <1h|4h|24h|7d> set the time range
  sentiment <value>    all, positive, neutral or negative
  sector <name|all>    restrict to a sector
  tickers <on|off>     only articles with tickers
  symbol <ticker>      scope to a symbol (empty clears it)
  sectors              list sector options for the current results
  show                 print the current results again
  quit                 exit`

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Edit filters interactively; the feed refreshes after each pause in typing",
	RunE: func(cmd *cobra.Command, args []string) error {
		filters, err := filtersFromFlags(cmd)
		if err != nil {
			return err
		}

		ctrl := feed.NewController(cmd.Context(), feed.NewFetcher(newClient()), feed.ControllerOptions{
			Symbol:   strings.ToUpper(strings.TrimSpace(filterSymbol)),
			Filters:  &filters,
			Debounce: cfg.Debounce(),
			OnError:  logError,
			OnUpdate: func(s feed.Snapshot) {
				fmt.Printf("\n== %s ==\n", s.Filters)
				printArticles(os.Stdout, s.Articles)
				fmt.Print("> ")
			},
		})
		defer ctrl.Close()

		fmt.Println(watchHelp)
		ctrl.Load()

		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			verb, arg, _ := strings.Cut(strings.TrimSpace(scanner.Text()), " ")
			arg = strings.TrimSpace(arg)

			switch strings.ToLower(verb) {
			case "":
			case "quit", "q", "exit":
				return nil
			case "help", "?":
				fmt.Println(watchHelp)
			case "show":
				fmt.Printf("== %s ==\n", ctrl.Filters())
				printArticles(os.Stdout, ctrl.Articles())
			case "sectors":
				fmt.Println(strings.Join(ctrl.SectorOptions(), ", "))
			case "search":
				ctrl.Update(func(f *feed.Filters) { f.Search = arg })
			case "range":
				tr, err := feed.ParseTimeRange(arg)
				if err != nil {
					fmt.Println(err)
					break
				}
				ctrl.Update(func(f *feed.Filters) { f.TimeRange = tr })
			case "sentiment":
				s, err := feed.ParseSentiment(arg)
				if err != nil {
					fmt.Println(err)
					break
				}
				ctrl.Update(func(f *feed.Filters) { f.Sentiment = s })
			case "sector":
				if arg == "" {
					arg = feed.SectorAll
				}
				ctrl.Update(func(f *feed.Filters) { f.Sector = arg })
			case "tickers":
				on := arg == "on" || arg == "true" || arg == "yes"
				ctrl.Update(func(f *feed.Filters) { f.OnlyWithTickers = on })
			case "symbol":
				ctrl.SetSymbol(strings.ToUpper(arg))
			default:
				fmt.Printf("Unknown command %q; type help\n", verb)
			}
		}
		return scanner.Err()
	},
}
