package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/brgilsonsp/corrida-familia-piba-front/internal/export"
	"github.com/brgilsonsp/corrida-familia-piba-front/internal/model"
	"github.com/brgilsonsp/corrida-familia-piba-front/internal/raceapi"
	"github.com/brgilsonsp/corrida-familia-piba-front/internal/timing"
)

var (
	rankingBib      int
	rankingFormat   string
	rankingRemote   bool
	rankingSegments bool
	rankingSex      string
	rankingAgeRange string
	rankingCategory string
	rankingName     string
)

var rankingCmd = &cobra.Command{
	Use:     "ranking",
	Aliases: []string{"classificacao"},
	Short:   "Show the classification ordered by finish time",
	Long: `Show the classification computed from the local records.

With --remote the official classification is fetched from the results API
instead and can be filtered by sex, age range, category, name or bib.
--segments lists the filter values the API accepts.`,
	Args:    cobra.NoArgs,
	RunE:    runRanking,
}

func init() {
	rankingCmd.Flags().IntVar(&rankingBib, "bib", 0, "Show only this bib number")
	rankingCmd.Flags().StringVar(&rankingFormat, "format", export.FormatTable, "Output format: table, csv, json")
	rankingCmd.Flags().BoolVar(&rankingRemote, "remote", false, "Fetch the official classification from the results API")
	rankingCmd.Flags().BoolVar(&rankingSegments, "segments", false, "List the sex, age range and category filters known to the results API")
	rankingCmd.Flags().StringVar(&rankingSex, "sexo", "", "Remote filter: sex")
	rankingCmd.Flags().StringVar(&rankingAgeRange, "faixa-etaria", "", "Remote filter: age range")
	rankingCmd.Flags().StringVar(&rankingCategory, "modalidade", "", "Remote filter: category")
	rankingCmd.Flags().StringVar(&rankingName, "nome", "", "Remote filter: athlete name")
}

func runRanking(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	if !validFormat(rankingFormat) {
		exit(1, fmt.Errorf("unknown format %q: want one of %v", rankingFormat, export.Formats))
	}

	if rankingSegments {
		seg, err := requireAPI().Segmentation(ctx)
		if err != nil {
			exit(2, err)
		}
		printSegments(os.Stdout, seg)
		return nil
	}
	if rankingRemote {
		if cmd.Flags().Changed("bib") && rankingBib <= 0 {
			exit(1, timing.ErrInvalidBib)
		}
		entries, err := requireAPI().Classification(ctx, remoteFilter())
		if err != nil {
			exit(2, err)
		}
		if err := export.WriteClassification(os.Stdout, rankingFormat, entries); err != nil {
			exit(2, err)
		}
		return nil
	}

	st := openStore(ctx)
	defer st.Close()
	rc := timing.New(st)

	var entries []model.RankingEntry
	if cmd.Flags().Changed("bib") {
		if rankingBib <= 0 {
			exit(1, timing.ErrInvalidBib)
		}
		entry, found, err := rc.RankingFor(ctx, rankingBib)
		if err != nil {
			exit(2, err)
		}
		if !found {
			exit(1, fmt.Errorf("Corredor %d não encontrado", rankingBib))
		}
		entries = []model.RankingEntry{entry}
	} else {
		var err error
		entries, err = rc.ComputeRanking(ctx)
		if err != nil {
			exit(2, err)
		}
	}

	if err := export.Write(os.Stdout, rankingFormat, entries); err != nil {
		exit(2, err)
	}
	return nil
}

func validFormat(f string) bool {
	for _, known := range export.Formats {
		if f == known {
			return true
		}
	}
	return false
}

func remoteFilter() raceapi.Filter {
	return raceapi.Filter{
		Sex:      rankingSex,
		AgeRange: rankingAgeRange,
		Category: rankingCategory,
		Name:     strings.TrimSpace(rankingName),
		Bib:      rankingBib,
	}
}

func printSegments(w io.Writer, seg model.Segments) {
	fmt.Fprintf(w, "Sexo: %s\n", strings.Join(seg.Sex, ", "))
	fmt.Fprintf(w, "Faixa etária: %s\n", strings.Join(seg.AgeRange, ", "))
	fmt.Fprintf(w, "Modalidade: %s\n", strings.Join(seg.Category, ", "))
}
