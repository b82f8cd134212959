package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jward/atlas"
	"github.com/jward/atlas/internal/config"
	"github.com/jward/atlas/internal/snapshot"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "atlas",
	Short:         "Structural analysis of heterogeneous source trees",
	Long:          "Atlas parses source files with tree-sitter and produces a unified project model: modules, symbols, typed dependency edges, and a criticality ranking.",
	SilenceErrors: true,
	SilenceUsage:  true,
	// No Run — prints help by default.
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(languagesCmd)
}

var (
	flagConfig     string
	flagOut        string
	flagFormat     string
	flagLanguages  string
	flagWorkers    int
	flagSnapshotDB string
	flagVerbose    bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [path]",
	Short: "Analyze a project tree and emit its model",
	Long:  "Parses all supported source files under the given path (default: current directory), resolves imports, ranks symbols by criticality, and writes the model as JSON.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVar(&flagConfig, "config", "", "path to a YAML configuration file")
	analyzeCmd.Flags().StringVarP(&flagOut, "out", "o", "", "write the model to this file instead of stdout")
	analyzeCmd.Flags().StringVar(&flagFormat, "format", "json", "output format: json|summary")
	analyzeCmd.Flags().StringVar(&flagLanguages, "languages", "", "comma-separated language filter (e.g. python,java)")
	analyzeCmd.Flags().IntVar(&flagWorkers, "workers", 0, "worker pool size (default: number of CPUs)")
	analyzeCmd.Flags().StringVar(&flagSnapshotDB, "snapshot-db", "", "snapshot cache database path")
	analyzeCmd.Flags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	if flagFormat != "json" && flagFormat != "summary" {
		return fmt.Errorf("unknown format %q (want json or summary)", flagFormat)
	}

	root := "."
	if len(args) > 0 {
		root = args[0]
	}

	cfg := &config.Config{}
	if flagConfig != "" {
		loaded, err := config.Load(flagConfig)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	opts, cleanup, err := buildOptions(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	engine, err := atlas.New(opts...)
	if err != nil {
		return err
	}

	doc, err := engine.AnalyzeDocument(context.Background(), root)
	if err != nil {
		return err
	}

	out := os.Stdout
	if flagOut != "" {
		f, err := os.Create(flagOut)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	switch flagFormat {
	case "summary":
		formatSummary(out, doc)
	default:
		data, err := doc.Encode()
		if err != nil {
			return err
		}
		if _, err := out.Write(data); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
	}

	reportDiagnostics(os.Stderr, doc)
	return nil
}

// buildOptions merges flag values over the configuration file; flags win.
// The returned cleanup closes the snapshot store, if one was opened.
func buildOptions(cfg *config.Config) ([]atlas.Option, func(), error) {
	logLevel := slog.LevelWarn
	if flagVerbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))

	opts := []atlas.Option{atlas.WithLogger(logger)}

	langs := cfg.Languages
	if flagLanguages != "" {
		langs = nil
		for _, l := range strings.Split(flagLanguages, ",") {
			if l = strings.TrimSpace(l); l != "" {
				langs = append(langs, l)
			}
		}
	}
	if len(langs) > 0 {
		opts = append(opts, atlas.WithLanguages(langs...))
	}

	workers := cfg.Workers
	if flagWorkers > 0 {
		workers = flagWorkers
	}
	if workers > 0 {
		opts = append(opts, atlas.WithWorkers(workers))
	}

	if len(cfg.Include) > 0 {
		opts = append(opts, atlas.WithIncludes(cfg.Include...))
	}
	if len(cfg.Exclude) > 0 {
		opts = append(opts, atlas.WithExcludes(cfg.Exclude...))
	}
	if len(cfg.SourceRoots) > 0 {
		opts = append(opts, atlas.WithSourceRoots(cfg.SourceRoots...))
	}
	if len(cfg.PathAliases) > 0 {
		opts = append(opts, atlas.WithPathAliases(cfg.PathAliases))
	}

	cleanup := func() {}
	dbPath := cfg.SnapshotDB
	if flagSnapshotDB != "" {
		dbPath = flagSnapshotDB
	}
	if dbPath != "" {
		store, err := snapshot.Open(dbPath)
		if err != nil {
			return nil, nil, err
		}
		opts = append(opts, atlas.WithSnapshots(store))
		cleanup = func() { store.Close() }
	}
	return opts, cleanup, nil
}

var languagesCmd = &cobra.Command{
	Use:   "languages",
	Short: "List supported languages",
	Run: func(cmd *cobra.Command, args []string) {
		for _, l := range atlas.Languages() {
			fmt.Fprintln(cmd.OutOrStdout(), l)
		}
	},
}
