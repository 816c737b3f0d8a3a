package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/brgilsonsp/corrida-familia-piba-front/internal/export"
	"github.com/brgilsonsp/corrida-familia-piba-front/internal/model"
	"github.com/brgilsonsp/corrida-familia-piba-front/internal/timing"
)

var (
	exportFormat string
	exportOutput string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the classification (csv to stdout by default)",
	Args:  cobra.NoArgs,
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportFormat, "format", export.FormatCSV, "Output format: csv, json, table")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Write to this file instead of stdout")
}

func runExport(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	if !validFormat(exportFormat) {
		exit(1, fmt.Errorf("unknown format %q: want one of %v", exportFormat, export.Formats))
	}

	st := openStore(ctx)
	defer st.Close()

	entries, err := timing.New(st).ComputeRanking(ctx)
	if err != nil {
		exit(2, err)
	}

	if err := writeExport(exportOutput, exportFormat, entries); err != nil {
		exit(2, err)
	}
	if exportOutput != "" && exportOutput != "-" {
		fmt.Fprintf(os.Stderr, "Exported %d runners to %s\n", len(entries), exportOutput)
	}
	return nil
}

// writeExport writes the classification to path, or to stdout when path is
// empty or "-". Files are replaced atomically.
func writeExport(path, format string, entries []model.RankingEntry) error {
	if path == "" || path == "-" {
		return export.Write(os.Stdout, format, entries)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating export directory: %w", err)
		}
	}

	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("creating export file: %w", err)
	}
	if err := export.Write(f, format, entries); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("writing export file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("renaming export file: %w", err)
	}
	return nil
}
