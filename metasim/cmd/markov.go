package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/sarchlab/metasim/examples/markov"
	"github.com/sarchlab/metasim/sim"
	"github.com/sarchlab/metasim/simulation"
	"github.com/sarchlab/metasim/stats"
)

var markovCmd = &cobra.Command{
	Use:   "markov EXPERIMENT",
	Short: "Run a Markov-chain experiment.",
	Long: "Run the Markov chain described in the EXPERIMENT file and report " +
		"the mean sojourn time of every state and the number of jumps.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		exp, err := LoadExperiment(args[0])
		if err != nil {
			return err
		}

		s, err := resolveSettings(cmd.Flags(), exp)
		if err != nil {
			return err
		}

		summaries, err := runExperiment(s, exp.Chain)
		if err != nil {
			return err
		}

		return printSummaries(cmd.OutOrStdout(), summaries)
	},
}

func init() {
	rootCmd.AddCommand(markovCmd)
	addRunFlags(markovCmd.Flags())
}

// runExperiment builds a simulation of the chain, runs it, and returns the
// summaries of its statistics. The jump count comes first.
func runExperiment(s Settings, cfg markov.Config) ([]stats.Summary, error) {
	simul := s.builder().Build()

	chain, err := markov.MakeBuilder().
		WithEngine(simul.GetEngine()).
		WithGenerator(simul.Generator()).
		Build(cfg)
	if err != nil {
		terminate(simul)
		return nil, err
	}

	sts := append([]*stats.Stat{chain.JumpCount()}, chain.SojournStats()...)
	for _, st := range sts {
		simul.RegisterStat(st.WithConfidence(s.Confidence))
	}

	for _, state := range chain.States() {
		simul.Trace(state.JumpEvent())
	}

	if err := simul.Run(sim.VTimeInTick(s.Length), s.Runs); err != nil {
		terminate(simul)
		return nil, err
	}

	if err := simul.Terminate(); err != nil {
		return nil, errors.Wrap(err, "terminate")
	}

	summaries := make([]stats.Summary, 0, len(sts))
	for _, st := range sts {
		summaries = append(summaries, st.Summary())
	}

	return summaries, nil
}

func terminate(simul *simulation.Simulation) {
	if err := simul.Terminate(); err != nil {
		logger.WithError(err).Warn("cannot terminate simulation")
	}
}

func printSummaries(w io.Writer, summaries []stats.Summary) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintln(tw, "STATISTIC\tRUNS\tMEAN\tSTDDEV\tLOW\tHIGH")
	for _, s := range summaries {
		fmt.Fprintf(tw, "%s\t%d\t%.4f\t%.4f\t%.4f\t%.4f\n",
			s.Name, s.Runs, s.Mean, s.StdDev, s.Low, s.High)
	}

	return tw.Flush()
}
