package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/brgilsonsp/corrida-familia-piba-front/internal/export"
	"github.com/brgilsonsp/corrida-familia-piba-front/internal/model"
	"github.com/brgilsonsp/corrida-familia-piba-front/internal/storage"
	"github.com/brgilsonsp/corrida-familia-piba-front/internal/timing"
)

var runnersClearYes bool

var runnersCmd = &cobra.Command{
	Use:     "runners",
	Aliases: []string{"corredores"},
	Short:   "Inspect and maintain the stored runner records",
}

var runnersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List records in the order they were created",
	Args:  cobra.NoArgs,
	RunE:  runRunnersList,
}

var runnersDeleteCmd = &cobra.Command{
	Use:   "delete <bib>",
	Short: "Remove the record of one bib",
	Args:  cobra.ExactArgs(1),
	RunE:  runRunnersDelete,
}

var runnersClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every record (requires --yes)",
	Args:  cobra.NoArgs,
	RunE:  runRunnersClear,
}

var runnersBackupCmd = &cobra.Command{
	Use:   "backup <file>",
	Short: "Write all records to a JSON snapshot",
	Args:  cobra.ExactArgs(1),
	RunE:  runRunnersBackup,
}

var runnersRestoreCmd = &cobra.Command{
	Use:   "restore <file>",
	Short: "Load records from a JSON snapshot, skipping bibs already stored",
	Args:  cobra.ExactArgs(1),
	RunE:  runRunnersRestore,
}

func init() {
	runnersClearCmd.Flags().BoolVar(&runnersClearYes, "yes", false, "Confirm removing every record")

	runnersCmd.AddCommand(runnersListCmd)
	runnersCmd.AddCommand(runnersDeleteCmd)
	runnersCmd.AddCommand(runnersClearCmd)
	runnersCmd.AddCommand(runnersBackupCmd)
	runnersCmd.AddCommand(runnersRestoreCmd)
}

func runRunnersList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	st := openStore(ctx)
	defer st.Close()

	recs, err := st.List(ctx)
	if err != nil {
		exit(2, err)
	}
	if err := printRecords(os.Stdout, recs); err != nil {
		exit(2, err)
	}
	return nil
}

func printRecords(w io.Writer, recs []model.RunnerRecord) error {
	if len(recs) == 0 {
		_, err := fmt.Fprintln(w, "No runners recorded.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "BIB\tSTATE\tDELAYED START\tFINISH\tMONITOR")
	for _, r := range recs {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", r.Bib, r.State(), orNA(r.DelayedStart), orNA(r.Finish), r.Monitor)
	}
	return tw.Flush()
}

func orNA(s *string) string {
	if s == nil {
		return export.NA
	}
	return *s
}

func runRunnersDelete(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	bib, err := timing.ParseBib(args[0])
	if err != nil {
		exit(1, err)
	}

	st := openStore(ctx)
	defer st.Close()
	rc, cleanup := newReconciler(st, nil)
	defer cleanup()

	o := rc.Delete(ctx, bib, cfg.Monitor)
	fmt.Println(o.Message())
	if !o.OK() {
		cleanup()
		st.Close()
		os.Exit(outcomeCode(o))
	}
	return nil
}

func runRunnersClear(cmd *cobra.Command, args []string) error {
	if !runnersClearYes {
		exit(1, errors.New("refusing to remove every record without --yes"))
	}
	ctx := context.Background()

	st := openStore(ctx)
	defer st.Close()
	rc, cleanup := newReconciler(st, nil)
	defer cleanup()

	if err := rc.Clear(ctx, cfg.Monitor); err != nil {
		exit(2, err)
	}
	fmt.Println("All runner records removed.")
	return nil
}

func runRunnersBackup(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	st := openStore(ctx)
	defer st.Close()

	snap, err := st.Backup(ctx, time.Now())
	if err != nil {
		exit(2, err)
	}
	if err := storage.SaveSnapshot(args[0], snap); err != nil {
		exit(2, err)
	}
	fmt.Printf("Saved %d runners to %s\n", len(snap.Runners), args[0])
	return nil
}

func runRunnersRestore(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	snap, err := storage.LoadSnapshot(args[0])
	if err != nil {
		exit(2, err)
	}

	st := openStore(ctx)
	defer st.Close()

	inserted, skipped, err := st.Restore(ctx, snap)
	if err != nil {
		exit(2, err)
	}
	fmt.Printf("Restored %d runners (%d skipped)\n", inserted, skipped)
	return nil
}
