// Package export renders a ranking as CSV, JSON or a plain-text table.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/brgilsonsp/corrida-familia-piba-front/internal/model"
)

// Supported formats.
const (
	FormatCSV   = "csv"
	FormatJSON  = "json"
	FormatTable = "table"
)

// Formats lists every supported format name.
var Formats = []string{FormatCSV, FormatJSON, FormatTable}

// NA is written in place of an absent time.
const NA = "N/A"

var csvHeader = []string{"Posição", "Número", "Tempo Atrasado", "Tempo Final"}

// Write renders entries in the named format.
func Write(w io.Writer, format string, entries []model.RankingEntry) error {
	switch format {
	case FormatCSV:
		return WriteCSV(w, entries)
	case FormatJSON:
		return WriteJSON(w, entries)
	case FormatTable:
		return WriteTable(w, entries)
	}
	return fmt.Errorf("unknown format %q: want one of %v", format, Formats)
}

// WriteCSV writes the classification sheet with one row per entry.
func WriteCSV(w io.Writer, entries []model.RankingEntry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, e := range entries {
		row := []string{
			strconv.Itoa(e.Position),
			strconv.Itoa(e.Bib),
			orNA(e.DelayedStart),
			orNA(e.Finish),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteJSON writes entries as an indented JSON array.
func WriteJSON(w io.Writer, entries []model.RankingEntry) error {
	if entries == nil {
		entries = []model.RankingEntry{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(entries)
}

// WriteTable writes an aligned table for the terminal.
func WriteTable(w io.Writer, entries []model.RankingEntry) error {
	if len(entries) == 0 {
		_, err := fmt.Fprintln(w, "No runners recorded.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "POS\tBIB\tDELAYED START\tFINISH\tMONITOR")
	for _, e := range entries {
		fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%s\n", e.Position, e.Bib, orNA(e.DelayedStart), orNA(e.Finish), e.Monitor)
	}
	return tw.Flush()
}

func orNA(s *string) string {
	if s == nil || *s == "" {
		return NA
	}
	return *s
}
