package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/sarchlab/metasim/randomvar"
)

var sampleCmd = &cobra.Command{
	Use:   "sample VARIABLE",
	Short: "Print samples of a random variable.",
	Long: "Print samples of a random variable described like \"exp(20)\" " +
		"or \"unif(1, 5)\", one per line.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, _ := cmd.Flags().GetInt("count")
		seed, _ := cmd.Flags().GetInt64("seed")

		return sample(cmd.OutOrStdout(), args[0], n, seed)
	},
}

func init() {
	rootCmd.AddCommand(sampleCmd)
	sampleCmd.Flags().IntP("count", "n", 10, "Number of samples.")
	sampleCmd.Flags().Int64("seed", 1,
		"Seed of the random number generator.")
}

func sample(w io.Writer, desc string, n int, seed int64) error {
	if err := randomvar.CheckSeed(seed); err != nil {
		return err
	}

	v, err := randomvar.Parse(desc,
		randomvar.WithGenerator(randomvar.NewGenerator(seed)))
	if err != nil {
		return err
	}

	for i := 0; i < n; i++ {
		if _, err := fmt.Fprintln(w, v.Get()); err != nil {
			return err
		}
	}

	return nil
}
