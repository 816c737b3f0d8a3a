package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/brgilsonsp/corrida-familia-piba-front/internal/upload"
)

var syncDryRun bool

var syncCmd = &cobra.Command{
	Use:       "sync <starts|finishes>",
	Short:     "Send recorded delayed starts or finishes to the results API",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"starts", "finishes", "largadas", "chegadas"},
	RunE:      runSync,
}

func init() {
	syncCmd.Flags().BoolVar(&syncDryRun, "dry-run", false, "Show what would be sent without calling the API")
}

func runSync(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	kind, err := upload.ParseKind(args[0])
	if err != nil {
		exit(1, err)
	}
	api := requireAPI()

	st := openStore(ctx)
	defer st.Close()

	if syncDryRun {
		fmt.Println("Dry run: nothing is sent.")
	}
	result, err := upload.Upload(ctx, st, api, kind, upload.Options{DryRun: syncDryRun, Out: os.Stdout})
	if err != nil {
		exit(2, err)
	}

	fmt.Printf("\nSent: %d  Skipped: %d  Errors: %d\n", result.Sent, result.Skipped, result.Errors)
	if result.Errors > 0 {
		os.Exit(2)
	}
	return nil
}
