package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/raphaelgruber/recipebox/internal/client"
	"github.com/raphaelgruber/recipebox/internal/models"
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show server statistics",
	Long: `Show server runtime statistics: database, GraphQL and password hashing
timings since the last restart.

Examples:
  recipebox stats`,
	Args: cobra.NoArgs,
	RunE: runStats,
}

var metadataCmd = &cobra.Command{
	Use:   "metadata",
	Short: "List categories, difficulty levels, labels and units",
	Long: `List the reference data the composer accepts. Use the keys with
"recipebox compose set".

Examples:
  recipebox metadata`,
	Args: cobra.NoArgs,
	RunE: runMetadata,
}

func runStats(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	stats, err := gqlClient.GetServerStats(ctx)
	if err != nil {
		return fmt.Errorf("get server stats: %w", err)
	}
	printServerStats(cmd.OutOrStdout(), stats)
	return nil
}

func runMetadata(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	md, err := gqlClient.FetchMetadata(ctx)
	if err != nil {
		return fmt.Errorf("fetch metadata: %w", err)
	}

	out := cmd.OutOrStdout()
	titles := map[models.OptionKind]string{
		models.KindCategory: "Categories",
		models.KindLevel:    "Difficulty levels",
		models.KindLabel:    "Labels",
		models.KindUnit:     "Units",
	}
	for i, kind := range models.AllKinds {
		if i > 0 {
			fmt.Fprintln(out)
		}
		opts := md.Options(kind)
		fmt.Fprintf(out, "%s (%d):\n", titles[kind], len(opts))
		for _, o := range opts {
			fmt.Fprintf(out, "  %-16s %s\n", o.Key, o.Label)
		}
	}
	return nil
}

// printServerStats displays server runtime statistics.
func printServerStats(out io.Writer, stats *client.ServerStats) {
	fmt.Fprintf(out, "Server Statistics (in-memory, since restart)\n")
	fmt.Fprintf(out, "═══════════════════════════════════════════════\n")
	fmt.Fprintf(out, "Uptime: %.1f seconds\n", stats.UptimeSeconds)

	if stats.GraphQL != nil {
		fmt.Fprintf(out, "\nGraphQL:\n")
		printOpStats(out, stats.GraphQL)
	}

	if stats.DBQuery != nil {
		fmt.Fprintf(out, "\nDB Query:\n")
		printOpStats(out, stats.DBQuery)
	}

	if stats.DBTx != nil {
		fmt.Fprintf(out, "\nDB Transaction:\n")
		printOpStats(out, stats.DBTx)
	}

	if stats.PasswordHash != nil {
		fmt.Fprintf(out, "\nPassword Hash:\n")
		printOpStats(out, stats.PasswordHash)
	}
}

// printOpStats displays timing statistics for an operation.
func printOpStats(out io.Writer, op *client.OperationStats) {
	fmt.Fprintf(out, "  Calls: %d, Errors: %d, Total: %dms\n", op.Count, op.Errors, op.TotalTimeMs)
	fmt.Fprintf(out, "  Time: avg %.1fms, min %dms, max %dms\n",
		op.AvgTimeMs, op.MinTimeMs, op.MaxTimeMs)
}
