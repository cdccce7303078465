package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/MrJamesThe3rd/liquidaciones/internal/config"
	"github.com/MrJamesThe3rd/liquidaciones/internal/export"
	"github.com/MrJamesThe3rd/liquidaciones/internal/importer"
	"github.com/MrJamesThe3rd/liquidaciones/internal/importer/cabal"
	"github.com/MrJamesThe3rd/liquidaciones/internal/importer/nacion"
	"github.com/MrJamesThe3rd/liquidaciones/internal/settlement"
	"github.com/MrJamesThe3rd/liquidaciones/internal/settlement/store"
)

var version = "0.1.0"

// session wires the services one CLI invocation works with.
type session struct {
	imports     *importer.Service
	settlements *settlement.Service
	exports     *export.Service
}

func main() {
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "liquidar",
		Short: "Convierte liquidaciones CABAL y Banco Nación en planillas",
		Long: `liquidar reads plain-text settlement reports exported from the CABAL
and Banco Nación portals and writes one workbook per report.

Example:
  liquidar process agosto.txt septiembre.txt --out planillas
  liquidar totalize *.txt --out Totalizador.xlsx`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().String("format", "auto", "report format: cabal, nacion or auto")
	rootCmd.PersistentFlags().String("policy", "", "fee policy: exclusive or absence (overrides PARSER_FEE_POLICY)")
	rootCmd.PersistentFlags().String("grammar", "", "YAML grammar override (overrides PARSER_GRAMMAR_FILE)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "log skipped lines")

	rootCmd.AddCommand(processCmd())
	rootCmd.AddCommand(totalizeCmd())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func processCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "process [files...]",
		Short: "Write one workbook per report",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, _ := cmd.Flags().GetString("out")
			withCSV, _ := cmd.Flags().GetBool("csv")

			s, cfg, err := newSession(cmd)
			if err != nil {
				return err
			}

			if out == "" {
				out = cfg.Export.Dir
			}

			ctx := cmd.Context()
			failed := s.load(ctx, cmd, args)

			items, err := s.exports.ExportAll(ctx, out)
			if err != nil {
				return fmt.Errorf("exporting workbooks: %w", err)
			}

			if withCSV {
				if err := s.writeDetails(ctx, items); err != nil {
					return err
				}
			}

			fmt.Fprint(cmd.OutOrStdout(), s.exports.GenerateSummary(items))

			if failed > 0 {
				return fmt.Errorf("%d of %d reports could not be processed", failed, len(args))
			}

			return nil
		},
	}

	cmd.Flags().StringP("out", "o", "", "output directory (default EXPORT_DIR)")
	cmd.Flags().Bool("csv", false, "also write a CSV dump of the CABAL detail rows")

	return cmd
}

func totalizeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "totalize [files...]",
		Short: "Sum several reports into a single totalizer workbook",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, _ := cmd.Flags().GetString("out")

			s, _, err := newSession(cmd)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			failed := s.load(ctx, cmd, args)

			if err := s.exports.WriteTotalizerFile(ctx, out); err != nil {
				return fmt.Errorf("writing totalizer: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Totalizador: %s (%d reportes)\n", out, len(args)-failed)

			if failed > 0 {
				return fmt.Errorf("%d of %d reports could not be processed", failed, len(args))
			}

			return nil
		},
	}

	cmd.Flags().StringP("out", "o", "Totalizador.xlsx", "output workbook")

	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Display the application version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "liquidar %s (%s)\n", version, runtime.Version())
		},
	}
}

func newSession(cmd *cobra.Command) (*session, *config.Config, error) {
	policy, _ := cmd.Flags().GetString("policy")
	grammar, _ := cmd.Flags().GetString("grammar")
	verbose, _ := cmd.Flags().GetBool("verbose")

	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}

	if policy != "" {
		cfg.Parser.FeePolicy = policy
	}

	if grammar != "" {
		cfg.Parser.GrammarFile = grammar
	}

	rules, err := cfg.Rules()
	if err != nil {
		return nil, nil, err
	}

	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}

	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	settlements := settlement.NewService(store.New(), settlement.WithKeepPartial(cfg.Session.KeepPartial))

	return &session{
		imports: importer.NewService(
			importer.WithCabal(cabal.New(cabal.WithRules(rules), cabal.WithLogger(logger))),
			importer.WithNacion(nacion.New(nacion.WithLogger(logger))),
		),
		settlements: settlements,
		exports:     export.NewService(settlements),
	}, cfg, nil
}

// load imports every file into the session and reports one line per
// failure. It returns the number of files that did not yield a valid entry.
func (s *session) load(ctx context.Context, cmd *cobra.Command, files []string) int {
	formatFlag, _ := cmd.Flags().GetString("format")

	format, err := importer.ParseFormat(formatFlag)
	if err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), err)
		return len(files)
	}

	failed := 0

	for _, path := range files {
		if err := s.loadFile(ctx, format, path); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", filepath.Base(path), err)
			failed++
		}
	}

	return failed
}

func (s *session) loadFile(ctx context.Context, format importer.Format, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening report: %w", err)
	}
	defer f.Close()

	doc, err := s.imports.Import(format, f)
	if err != nil && !errors.Is(err, settlement.ErrUnidentified) {
		return err
	}

	if _, err := s.settlements.Record(ctx, filepath.Base(path), doc); err != nil {
		if errors.Is(err, settlement.ErrUnidentified) {
			return errors.New("no se pudo identificar la liquidación")
		}

		return err
	}

	return nil
}

func (s *session) writeDetails(ctx context.Context, items []export.Item) error {
	for _, item := range items {
		if item.Entry.Document.Cabal == nil {
			continue
		}

		path := item.FilePath[:len(item.FilePath)-len(filepath.Ext(item.FilePath))] + ".csv"

		if err := s.exports.WriteDetailCSVFile(ctx, item.Entry.ID, path); err != nil {
			return fmt.Errorf("writing csv: %w", err)
		}
	}

	return nil
}
