// Package upload sends locally recorded starts and finishes to the results API.
package upload

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/brgilsonsp/corrida-familia-piba-front/internal/model"
	"github.com/brgilsonsp/corrida-familia-piba-front/internal/raceapi"
)

// Kind selects which recorded time is uploaded.
type Kind string

const (
	KindStarts   Kind = "starts"
	KindFinishes Kind = "finishes"
)

// ParseKind accepts the English names and the race-office ones
// (largadas, chegadas).
func ParseKind(s string) (Kind, error) {
	switch s {
	case "starts", "largadas":
		return KindStarts, nil
	case "finishes", "chegadas":
		return KindFinishes, nil
	}
	return "", fmt.Errorf("unknown upload kind %q: want starts or finishes", s)
}

// Lister returns the records to upload.
type Lister interface {
	List(ctx context.Context) ([]model.RunnerRecord, error)
}

// Poster is the part of the results API used for uploads.
type Poster interface {
	PostStart(ctx context.Context, t raceapi.Timing) error
	PostFinish(ctx context.Context, t raceapi.Timing) error
}

// Result holds counters for an upload run.
type Result struct {
	Sent    int
	Skipped int
	Errors  int
}

// Options configures an upload run.
type Options struct {
	DryRun bool
	// Out receives one progress line per record. Defaults to stdout.
	Out io.Writer
}

// Upload posts every record that has the selected time. Records without it
// are skipped. A failed post is counted and the run continues.
func Upload(ctx context.Context, lister Lister, poster Poster, kind Kind, opts Options) (Result, error) {
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}

	recs, err := lister.List(ctx)
	if err != nil {
		return Result{}, err
	}

	var result Result
	for _, rec := range recs {
		hora := rec.Finish
		post := poster.PostFinish
		if kind == KindStarts {
			hora = rec.DelayedStart
			post = poster.PostStart
		}
		if hora == nil {
			result.Skipped++
			continue
		}

		if !opts.DryRun {
			t := raceapi.Timing{Bib: rec.Bib, Time: *hora, Monitor: rec.Monitor}
			if err := post(ctx, t); err != nil {
				fmt.Fprintf(out, "  ! Error sending %d: %v\n", rec.Bib, err)
				result.Errors++
				continue
			}
		}
		fmt.Fprintf(out, "  ✓ Sent:     %d %s (%s)\n", rec.Bib, *hora, rec.Monitor)
		result.Sent++
	}
	return result, nil
}
