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

var classificationHeader = []string{"Posição", "Número", "Nome", "Idade", "Sexo", "Tempo"}

// WriteClassification renders the official classification in the named format.
func WriteClassification(w io.Writer, format string, entries []model.ClassificationEntry) error {
	switch format {
	case FormatCSV:
		return WriteClassificationCSV(w, entries)
	case FormatJSON:
		if entries == nil {
			entries = []model.ClassificationEntry{}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	case FormatTable:
		return writeClassificationTable(w, entries)
	}
	return fmt.Errorf("unknown format %q: want one of %v", format, Formats)
}

// WriteClassificationCSV writes the results sheet handed out after the race.
func WriteClassificationCSV(w io.Writer, entries []model.ClassificationEntry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(classificationHeader); err != nil {
		return err
	}
	for _, e := range entries {
		row := []string{
			strconv.Itoa(e.Position),
			strconv.Itoa(e.Bib),
			e.Name,
			e.Age.String(),
			e.Sex,
			e.Time,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeClassificationTable(w io.Writer, entries []model.ClassificationEntry) error {
	if len(entries) == 0 {
		_, err := fmt.Fprintln(w, "No athletes match the filter.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "POS\tBIB\tNAME\tAGE\tSEX\tTIME")
	for _, e := range entries {
		fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%s\t%s\n", e.Position, e.Bib, e.Name, e.Age, e.Sex, e.Time)
	}
	return tw.Flush()
}
