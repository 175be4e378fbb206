package cmd

import (
	"fmt"
	"io"
	"runtime"
	"sort"
	"strconv"
	"sync"
	"text/tabwriter"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/sarchlab/metasim/examples/markov"
	"github.com/sarchlab/metasim/randomvar"
	"github.com/sarchlab/metasim/stats"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep EXPERIMENT",
	Short: "Run a Markov-chain experiment once per seed.",
	Long: "Run the Markov chain described in the EXPERIMENT file with every " +
		"seed given by --seeds. The simulations are independent and run " +
		"concurrently. Each one writes its own output files, suffixed with " +
		"the seed.",
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

		if s.Monitor {
			return errors.New("sweep cannot be monitored")
		}

		seeds, _ := cmd.Flags().GetInt64Slice("seeds")
		parallel, _ := cmd.Flags().GetInt("parallel")

		results, err := sweep(s, exp.Chain, seeds, parallel)
		if err != nil {
			return err
		}

		return printSweep(cmd.OutOrStdout(), results)
	},
}

func init() {
	rootCmd.AddCommand(sweepCmd)
	addRunFlags(sweepCmd.Flags())
	sweepCmd.Flags().Int64Slice("seeds", []int64{1, 2, 3, 4},
		"Seeds to run the experiment with.")
	sweepCmd.Flags().Int("parallel", runtime.NumCPU(),
		"Maximum number of simulations running at the same time.")
}

type sweepResult struct {
	seed      int64
	summaries []stats.Summary
}

// sweep runs the experiment once per seed with at most parallel simulations
// at a time. The results are sorted by seed.
func sweep(
	s Settings,
	cfg markov.Config,
	seeds []int64,
	parallel int,
) ([]sweepResult, error) {
	if len(seeds) == 0 {
		return nil, errors.New("no seed to sweep")
	}

	for _, seed := range seeds {
		if err := randomvar.CheckSeed(seed); err != nil {
			return nil, err
		}
	}

	var (
		g       errgroup.Group
		mu      sync.Mutex
		results []sweepResult
	)

	if parallel > 0 {
		g.SetLimit(parallel)
	}

	for _, seed := range seeds {
		run := s
		run.Seed = seed
		if s.Output != "" {
			run.Output = s.Output + "_seed" + strconv.FormatInt(seed, 10)
		}

		g.Go(func() error {
			summaries, err := runExperiment(run, cfg)
			if err != nil {
				return errors.Wrapf(err, "seed %d", seed)
			}

			mu.Lock()
			results = append(results, sweepResult{
				seed:      seed,
				summaries: summaries,
			})
			mu.Unlock()

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].seed < results[j].seed
	})

	return results, nil
}

func printSweep(w io.Writer, results []sweepResult) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintln(tw, "SEED\tSTATISTIC\tRUNS\tMEAN\tLOW\tHIGH")
	for _, r := range results {
		for _, s := range r.summaries {
			fmt.Fprintf(tw, "%d\t%s\t%d\t%.4f\t%.4f\t%.4f\n",
				r.seed, s.Name, s.Runs, s.Mean, s.Low, s.High)
		}
	}

	return tw.Flush()
}
