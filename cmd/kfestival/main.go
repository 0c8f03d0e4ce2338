package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/olekukonko/tablewriter"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	kfestival "github.com/a01094554781-oss/kfestival"
	"github.com/a01094554781-oss/kfestival/internal/errors"
	"github.com/a01094554781-oss/kfestival/internal/i18n"
	"github.com/a01094554781-oss/kfestival/internal/logging"
	"github.com/a01094554781-oss/kfestival/internal/monitoring"
	"github.com/a01094554781-oss/kfestival/internal/query"
	"github.com/a01094554781-oss/kfestival/internal/version"
)

type options struct {
	data     string
	config   string
	lang     string
	months   string
	regions  string
	category string
	search   string
	season   string
	top      int
	limit    int
	export   string
	format   string
	serve    bool
	version  bool
}

func customUsage() {
	fmt.Fprintf(os.Stderr, "Korea festival guide (version %s)\n\n", version.Version)
	fmt.Fprintf(os.Stderr, "Usage: kfestival [options]\n\n")
	fmt.Fprintf(os.Stderr, "Without -serve, prints the filtered view as tables.\n\n")
	fmt.Fprintf(os.Stderr, "Options:\n")
	flag.PrintDefaults()
}

func parseFlags(fs *flag.FlagSet, args []string) (options, error) {
	var o options
	fs.StringVar(&o.data, "data", "", "festival CSV file (overrides config)")
	fs.StringVar(&o.config, "config", "", "config file (default: search kfestival.yaml)")
	fs.StringVar(&o.lang, "lang", "", "display language, KO or EN")
	fs.StringVar(&o.months, "month", "", "comma separated start months, e.g. 4,5")
	fs.StringVar(&o.regions, "region", "", "comma separated regions")
	fs.StringVar(&o.category, "category", "", "comma separated categories")
	fs.StringVar(&o.search, "q", "", "name search")
	fs.StringVar(&o.season, "season", "", "seasonal picks: spring, summer, autumn or winter")
	fs.IntVar(&o.top, "top", 0, "number of top festivals by foreign visitors")
	fs.IntVar(&o.limit, "limit", 0, "maximum number of listed festivals")
	fs.StringVar(&o.export, "export", "", "write the filtered view to this file")
	fs.StringVar(&o.format, "format", "csv", "export format: csv or parquet")
	fs.BoolVar(&o.serve, "serve", false, "run the HTTP API")
	fs.BoolVar(&o.version, "v", false, "print version and exit")
	err := fs.Parse(args)
	return o, err
}

func main() {
	//nolint:reassign // customizing the usage message
	flag.Usage = customUsage
	opts, err := parseFlags(flag.CommandLine, os.Args[1:])
	if err != nil {
		os.Exit(2)
	}
	if opts.version {
		fmt.Print(version.Info().String())
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts, os.Stdout); err != nil {
		logging.Error().Err(err).Msg("kfestival failed")
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options, out io.Writer) error {
	cfg, err := kfestival.LoadConfig(opts.config)
	if err != nil {
		return err
	}
	if opts.data != "" {
		cfg.Data.Path = opts.data
	}
	if opts.lang != "" {
		cfg.Query.Language = strings.ToUpper(opts.lang)
	}
	logging.Init(cfg.LoggerConfig())
	monitoring.EnableGlobalMonitoring()
	defer logSummary()

	guide, err := kfestival.Open(ctx, cfg)
	if err != nil {
		return err
	}
	if opts.serve {
		return guide.Serve(ctx)
	}

	state, err := buildState(opts, guide.Config().Language())
	if err != nil {
		return err
	}
	if opts.season != "" {
		return printSeason(out, guide, state, opts.season)
	}

	records, err := guide.Filter(state)
	if err != nil {
		return err
	}
	if opts.export != "" {
		if err := exportFile(guide, opts.export, opts.format, records); err != nil {
			return err
		}
		logging.Info().Str("path", opts.export).Int("rows", len(records)).Msg("exported")
	}
	printView(out, guide, state.Language, records, opts.top, opts.limit)
	return nil
}

func logSummary() {
	summary := monitoring.GetGlobalSummary()
	logging.Debug().
		Int("operations", summary.TotalOperations).
		Int("failures", summary.Failures).
		Dur("total", summary.TotalDuration).
		Interface("counts", summary.OperationCounts).
		Msg("operation summary")
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func buildState(opts options, lang kfestival.Language) (kfestival.FilterState, error) {
	var months []int
	for _, m := range splitList(opts.months) {
		n, err := strconv.Atoi(m)
		if err != nil {
			return kfestival.FilterState{}, errors.NewInvalidFilterError("month", fmt.Sprintf("%q is not a number", m))
		}
		months = append(months, n)
	}
	state := kfestival.FilterState{
		Months:     months,
		Regions:    splitList(opts.regions),
		Categories: splitList(opts.category),
		Search:     opts.search,
		Language:   lang,
	}
	return state, state.Validate()
}

func exportFile(guide *kfestival.Guide, path, format string, records []kfestival.Record) (err error) {
	f, err := os.Create(path) //nolint:gosec // user-supplied output path
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return guide.Export(f, format, records)
}

func printer(lang kfestival.Language) *message.Printer {
	if lang == kfestival.EN {
		return message.NewPrinter(language.English)
	}
	return message.NewPrinter(language.Korean)
}

func printView(out io.Writer, guide *kfestival.Guide, lang kfestival.Language, records []kfestival.Record, top, limit int) {
	p := printer(lang)
	text := func(key string) string { return i18n.Text(lang, key) }

	if len(records) == 0 {
		fmt.Fprintln(out, text("no_results"))
		return
	}

	kpi := guide.Summary(records)
	summary := tablewriter.NewWriter(out)
	summary.SetHeader([]string{text("kpi_total"), text("kpi_visitors"), text("kpi_foreigner")})
	foreign := p.Sprintf("%.0f", kpi.ForeignVisitors)
	if !guide.Dataset().ForeignVisitorsAvailable() {
		foreign = text("kpi_foreigner_missing")
	}
	summary.Append([]string{p.Sprintf("%d", kpi.Count), p.Sprintf("%.0f", kpi.Visitors), foreign})
	summary.Render()

	if guide.Dataset().ForeignVisitorsAvailable() {
		fmt.Fprintf(out, "\n%s\n", text("chart_top"))
		renderRecords(out, p, lang, guide.Top(records, top))
	} else {
		logging.Warn().Msg("foreign visitor column is missing; top list skipped")
	}

	cards := guide.Cards(records, lang, limit)
	fmt.Fprintf(out, "\n%s\n", text("list_header"))
	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{text("col_name"), text("col_loc"), text("col_type"), text("col_date"), text("col_visitors")})
	for _, c := range cards.Cards {
		table.Append([]string{c.Name, c.Region, c.Category, strconv.Itoa(c.StartMonth), p.Sprintf("%.0f", c.Visitors)})
	}
	table.Render()
	if cards.Truncated {
		fmt.Fprintf(out, "(%d/%d)\n", len(cards.Cards), cards.Total)
	}
}

func printSeason(out io.Writer, guide *kfestival.Guide, state kfestival.FilterState, name string) error {
	season, err := query.ParseSeason(name)
	if err != nil {
		return err
	}
	rec, err := guide.Recommend(state, season)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, i18n.Season(state.Language, season))
	if len(rec.All) == 0 {
		fmt.Fprintln(out, i18n.Text(state.Language, "no_results"))
		return nil
	}
	renderRecords(out, printer(state.Language), state.Language, rec.Picks)
	return nil
}

func renderRecords(out io.Writer, p *message.Printer, lang kfestival.Language, records []kfestival.Record) {
	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{
		i18n.Text(lang, "col_name"),
		i18n.Text(lang, "col_loc"),
		i18n.Text(lang, "col_date"),
		i18n.Text(lang, "col_for"),
	})
	for _, r := range records {
		table.Append([]string{lang.Name(r), lang.Region(r), strconv.Itoa(r.StartMonth), p.Sprintf("%.0f", r.ForeignVisitors)})
	}
	table.Render()
}
