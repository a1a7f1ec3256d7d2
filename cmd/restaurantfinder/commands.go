package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"restaurantfinder/internal"
	"restaurantfinder/internal/build"
	"restaurantfinder/internal/feeds"
	"restaurantfinder/internal/geocode"
	"restaurantfinder/internal/pipeline"
	"restaurantfinder/internal/query"
)

// newRootCommand returns the command tree and a func releasing whatever the
// executed command opened.
func newRootCommand() (*cobra.Command, func()) {
	var a *app

	root := &cobra.Command{
		Use:           "restaurantfinder",
		Short:         "Build and query the Michelin and James Beard restaurant dataset",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			a, err = newApp()
			return err
		},
	}

	deps := func() *app { return a }
	root.AddCommand(
		newFetchCommand(deps, internal.SourceMichelin),
		newFetchCommand(deps, internal.SourceJamesBeard),
		newGeocodeCommand(deps),
		newMergeCommand(deps),
		newBuildCommand(deps),
		newQueryCommand(deps),
		newExportCommand(deps),
	)
	return root, func() { a.Close() }
}

func newFetchCommand(deps func() *app, source internal.Source) *cobra.Command {
	var input, format, out string

	cmd := &cobra.Command{
		Use:   "fetch:" + string(source),
		Short: fmt.Sprintf("Fetch the %s feed and write its records as JSON", source),
		Example: fmt.Sprintf(`  restaurantfinder fetch:%[1]s
  restaurantfinder fetch:%[1]s --input saved.html --format html`, source),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := deps()
			location := input
			if location == "" {
				location = a.cfg.FeedURL(string(source))
			}
			if err := a.cfg.Require("--input", location); err != nil {
				return err
			}
			if out == "" {
				out = filepath.Join(a.cfg.DataDir, string(source)+"-restaurants.json")
			}

			fetcher := feeds.NewFetchService(a.db, a.cfg.RawFeedDir, a.logger)
			fetched, err := fetcher.FetchAndStore(cmd.Context(), feeds.Open(source, location, format, a.cfg, a.logger))
			if err != nil {
				return err
			}
			proc := pipeline.NewProcessingService(a.db, a.tables, a.logger, a.metrics)
			res, err := proc.AdaptFeed(fetched.Feed)
			if err != nil {
				return err
			}
			if err := pipeline.WriteJSON(out, res.Records); err != nil {
				return err
			}
			fmt.Printf("%s: %d records written to %s\n", source, len(res.Records), out)
			return nil
		},
	}

	cmd.Flags().StringVar(&input, "input", "", "Feed URL or local file (default: configured feed URL)")
	cmd.Flags().StringVar(&format, "format", "", "Input format csv|html|xlsx (default: from extension)")
	cmd.Flags().StringVar(&out, "out", "", "Output JSON path")
	return cmd
}

func newGeocodeCommand(deps func() *app) *cobra.Command {
	var input, output string

	cmd := &cobra.Command{
		Use:   "geocode",
		Short: "Fill missing coordinates in a JSON record file",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := deps()
			if err := a.cfg.Require("--input", input); err != nil {
				return err
			}
			if output == "" {
				output = strings.Replace(input, ".json", "-geocoded.json", 1)
			}

			records, err := pipeline.ReadRecordsJSON(input)
			if err != nil {
				return err
			}
			g := geocode.New(a.tables, geocode.NewClient(a.cfg), a.cfg,
				geocode.WithCache(a.db),
				geocode.WithLogger(a.logger),
				geocode.WithMetrics(a.metrics),
			)
			out, sum, err := g.GeocodeAll(cmd.Context(), records)
			if err != nil {
				return err
			}
			if err := pipeline.WriteJSON(output, out); err != nil {
				return err
			}
			fmt.Printf("%d of %d records needed coordinates (%d API calls), saved to %s\n", sum.NeededLookup, sum.Total, sum.APICalls, output)
			return nil
		},
	}

	cmd.Flags().StringVar(&input, "input", "", "Record JSON file")
	cmd.Flags().StringVar(&output, "output", "", "Output path (default: <input>-geocoded.json)")
	return cmd
}

func newMergeCommand(deps func() *app) *cobra.Command {
	var michelinPath, jamesBeardPath, out string

	cmd := &cobra.Command{
		Use:   "merge",
		Short: "Merge per-source record files into the final dataset",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := deps()
			start := time.Now()
			if michelinPath == "" {
				michelinPath = filepath.Join(a.cfg.DataDir, "michelin-restaurants.json")
			}
			if jamesBeardPath == "" {
				jamesBeardPath = filepath.Join(a.cfg.DataDir, "james-beard-restaurants.json")
			}
			if out == "" {
				out = a.cfg.OutputPath
			}

			michelin, err := readOptionalRecords(a.logger, internal.SourceMichelin, michelinPath)
			if err != nil {
				return err
			}
			jamesBeard, err := readOptionalRecords(a.logger, internal.SourceJamesBeard, jamesBeardPath)
			if err != nil {
				return err
			}

			proc := pipeline.NewProcessingService(a.db, a.tables, a.logger, a.metrics)
			built := proc.Build(michelin, jamesBeard)
			if err := pipeline.WriteJSON(out, built.Restaurants); err != nil {
				return err
			}
			timings := map[string]float64{"totalMs": float64(time.Since(start).Milliseconds())}
			if err := proc.Persist(uuid.NewString(), built, timings); err != nil {
				return err
			}

			st := built.Stats
			fmt.Printf("merged %d restaurants (michelin only %d, james beard only %d, both %d, with coordinates %d) into %s\n",
				st.Total, st.MichelinOnly, st.JamesBeardOnly, st.Both, st.WithCoordinates, out)
			return nil
		},
	}

	cmd.Flags().StringVar(&michelinPath, "michelin", "", "Michelin record JSON")
	cmd.Flags().StringVar(&jamesBeardPath, "james-beard", "", "James Beard record JSON")
	cmd.Flags().StringVar(&out, "out", "", "Final dataset path (default: OUTPUT_PATH)")
	return cmd
}

func readOptionalRecords(logger *zap.Logger, source internal.Source, path string) ([]internal.Record, error) {
	records, err := pipeline.ReadRecordsJSON(path)
	if errors.Is(err, os.ErrNotExist) {
		logger.Warn("source file missing, skipping", zap.String("source", string(source)), zap.String("path", path))
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	logger.Info("loaded records", zap.String("source", string(source)), zap.Int("count", len(records)))
	return records, nil
}

func newBuildCommand(deps func() *app) *cobra.Command {
	var opts build.Options
	var geocodeFlag bool

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Fetch both feeds and rebuild the dataset end to end",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := deps()
			if cmd.Flags().Changed("geocode") {
				opts.Geocode = &geocodeFlag
			}
			res, err := build.NewService(a.db, a.cfg, a.tables, a.logger, a.metrics).Run(cmd.Context(), opts)
			if err != nil {
				return err
			}
			fmt.Printf("build %s: %d restaurants written to %s\n", res.TraceID, res.Stats.Total, res.Output)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.MichelinLocation, "michelin", "", "Michelin feed URL or file")
	cmd.Flags().StringVar(&opts.JamesBeardLocation, "james-beard", "", "James Beard feed URL or file")
	cmd.Flags().StringVar(&opts.Format, "format", "", "Feed format csv|html|xlsx")
	cmd.Flags().BoolVar(&geocodeFlag, "geocode", false, "Geocode James Beard records (default: GEOCODE_ENABLED)")
	cmd.Flags().BoolVar(&opts.Offline, "offline", false, "Rebuild from the last stored feed snapshots")
	return cmd
}

func newQueryCommand(deps func() *app) *cobra.Command {
	var req query.Request
	var sortKey string

	cmd := &cobra.Command{
		Use:   "query",
		Short: "Filter, sort and page through the stored dataset",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := deps()
			key, err := query.ParseSortKey(sortKey)
			if err != nil {
				return err
			}
			req.Sort = key
			if req.PageSize == 0 {
				req.PageSize = a.cfg.PageSize
			}

			records, err := a.db.ListRestaurants()
			if err != nil {
				return err
			}
			res := query.Run(records, req)

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tCITY\tSTATE\tAWARDS")
			for _, r := range res.Items {
				types := make([]string, 0, len(r.Awards))
				for _, aw := range r.Awards {
					types = append(types, aw.Type)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.Name, r.City, r.State, strings.Join(types, ", "))
			}
			if err := w.Flush(); err != nil {
				return err
			}

			p := res.Page
			fmt.Printf("\nshowing %d-%d of %d (page %d/%d, pages %v)\n", p.From, p.To, p.Count, p.Number, p.Total, p.Window(5))
			fmt.Printf("%d michelin, %d james beard, %d with coordinates\n", res.Facets.Michelin, res.Facets.JamesBeard, res.Facets.WithCoordinates)
			return nil
		},
	}

	cmd.Flags().StringVar(&req.Filter.Search, "search", "", "Name or chef substring")
	cmd.Flags().StringVar(&req.Filter.State, "state", "", "Two-letter state code")
	cmd.Flags().StringVar(&req.Filter.City, "city", "", "Exact city name")
	cmd.Flags().StringVar(&req.Filter.AwardType, "award", "", "Award type, e.g. 1-star or james-beard-winner")
	cmd.Flags().StringVar(&sortKey, "sort", "name", "name|city|state|awards")
	cmd.Flags().IntVar(&req.Page, "page", 1, "Page number")
	cmd.Flags().IntVar(&req.PageSize, "page-size", 0, "Page size (default: PAGE_SIZE)")
	return cmd
}

func newExportCommand(deps func() *app) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export:xlsx",
		Short: "Export the stored dataset to a spreadsheet",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := deps()
			if err := a.cfg.Require("--out", out); err != nil {
				return err
			}
			records, err := a.db.ListRestaurants()
			if err != nil {
				return err
			}
			if len(records) == 0 {
				return errors.New("no stored restaurants, run build or merge first")
			}
			if err := pipeline.ExportRestaurantsToXLSX(records, out); err != nil {
				return err
			}
			fmt.Printf("exported %d restaurants to %s\n", len(records), out)
			return nil
		},
	}

	cmd.Flags().StringVar(&out, "out", "", "Output xlsx path")
	return cmd
}
