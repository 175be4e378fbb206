package cmd

import (
	"context"
	"fmt"
	"io"
	"slices"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sarchlab/metasim/datarecording"
	"github.com/sarchlab/metasim/stats"
	"github.com/sarchlab/metasim/tracing"
)

var showCmd = &cobra.Command{
	Use:   "show DATABASE",
	Short: "Show the results recorded by a simulation.",
	Long: "Show the execution information and the statistic summaries " +
		"stored in the DATABASE file written by a simulation, and the " +
		"event counts when they were recorded.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		withRuns, _ := cmd.Flags().GetBool("runs")

		reader, err := datarecording.NewReader(args[0])
		if err != nil {
			return err
		}
		defer reader.Close()

		return show(cmd.Context(), cmd.OutOrStdout(), reader, withRuns)
	},
}

func init() {
	rootCmd.AddCommand(showCmd)
	showCmd.Flags().Bool("runs", false, "Also show the value of every run.")
}

func show(
	ctx context.Context,
	w io.Writer,
	reader datarecording.DataReader,
	withRuns bool,
) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	var info []datarecording.ExecInfo
	_, err := reader.Query(ctx, datarecording.ExecTable,
		datarecording.QueryParams{}, &info)
	if err != nil {
		return err
	}

	for _, i := range info {
		fmt.Fprintf(tw, "%s:\t%s\n", i.Property, i.Value)
	}
	fmt.Fprintln(tw)

	var summaries []stats.SummaryEntry
	_, err = reader.Query(ctx, stats.SummaryTable,
		datarecording.QueryParams{}, &summaries)
	if err != nil {
		return err
	}

	fmt.Fprintln(tw, "STATISTIC\tRUNS\tMEAN\tSTDDEV\tCONFIDENCE\tLOW\tHIGH")
	for _, s := range summaries {
		fmt.Fprintf(tw, "%s\t%d\t%.4f\t%.4f\t%.2f\t%.4f\t%.4f\n",
			s.Name, s.Runs, s.Mean, s.StdDev, s.Confidence, s.Low, s.High)
	}

	if err := showCounts(ctx, tw, reader); err != nil {
		return err
	}

	if withRuns {
		var runs []stats.RunEntry
		_, err = reader.Query(ctx, stats.RunTable,
			datarecording.QueryParams{OrderBy: "Statistic, Run"}, &runs)
		if err != nil {
			return err
		}

		fmt.Fprintln(tw)
		fmt.Fprintln(tw, "STATISTIC\tRUN\tVALUE")
		for _, r := range runs {
			fmt.Fprintf(tw, "%s\t%d\t%.4f\n", r.Statistic, r.Run, r.Value)
		}
	}

	return tw.Flush()
}

func showCounts(
	ctx context.Context,
	w io.Writer,
	reader datarecording.DataReader,
) error {
	tables, err := reader.ListTables(ctx)
	if err != nil {
		return err
	}

	if !slices.Contains(tables, tracing.CountTable) {
		return nil
	}

	var counts []tracing.CountEntry
	_, err = reader.Query(ctx, tracing.CountTable,
		datarecording.QueryParams{OrderBy: "Event"}, &counts)
	if err != nil {
		return err
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "EVENT\tCOUNT")
	for _, c := range counts {
		fmt.Fprintf(w, "%s\t%d\n", c.Event, c.Count)
	}

	return nil
}
