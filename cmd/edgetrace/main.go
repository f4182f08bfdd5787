// edgetrace loads a vote log from CSV, scans it with a windowed
// agreement node, and writes the resulting edge stream as CSV — a
// stable dump format for comparing voting behaviour between nodes and
// runs.
package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/slatewise/agreement/consensus/windowed"
	"github.com/slatewise/agreement/consensus/windowed/model"
)

func timeFromMillis(ms int64) time.Time {
	return time.UnixMilli(ms)
}

// fixedSet is the CLI's validator registry, built from the weights
// file or derived from the vote log itself.
type fixedSet struct {
	weights map[uint32]uint64
	quorum  uint64
}

func (f fixedSet) Weight(validator uint32) uint64 {
	return f.weights[validator]
}

func (f fixedSet) Quorum() uint64 {
	return f.quorum
}

func main() {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	var (
		votesPath   string
		weightsPath string
		outputPath  string
		window      time.Duration
		quorum      uint64
	)

	cmd := &cobra.Command{
		Use:   "edgetrace",
		Short: "dump the edge stream of a vote log",
		RunE: func(cmd *cobra.Command, args []string) error {
			votesPath = viper.GetString("votes")
			weightsPath = viper.GetString("weights")
			outputPath = viper.GetString("output")
			window = viper.GetDuration("window")
			quorum = viper.GetUint64("quorum")

			events, err := loadVotes(votesPath)
			if err != nil {
				return fmt.Errorf("could not load votes: %w", err)
			}
			log.Info().Int("events", len(events)).Str("votes", votesPath).Msg("vote log loaded")

			weights := make(map[uint32]uint64)
			if weightsPath != "" {
				weights, err = loadWeights(weightsPath)
				if err != nil {
					return fmt.Errorf("could not load weights: %w", err)
				}
			} else {
				for _, ev := range events {
					weights[ev.Validator] = 1
				}
			}
			if quorum == 0 {
				var total uint64
				for _, w := range weights {
					total += w
				}
				quorum = model.QuorumThreshold(total)
			}
			validators := fixedSet{weights: weights, quorum: quorum}

			node, err := windowed.New[float64, uint32, uint64](window, 0)
			if err != nil {
				return fmt.Errorf("could not create agreement node: %w", err)
			}
			for _, ev := range events {
				node.Insert(ev.Object, ev.Time, ev.Validator)
			}

			var out io.Writer = os.Stdout
			if outputPath != "" && outputPath != "-" {
				f, err := os.Create(outputPath)
				if err != nil {
					return fmt.Errorf("could not create output file: %w", err)
				}
				defer f.Close()
				out = f
			}
			if err := node.DumpEdges(out, validators, time.UnixMilli(0)); err != nil {
				return fmt.Errorf("could not dump edges: %w", err)
			}
			log.Info().Uint64("quorum", quorum).Dur("window", window).Msg("edge dump complete")
			return nil
		},
	}

	cmd.Flags().String("votes", "", "path to the vote log CSV (time_ms,validator,object)")
	cmd.Flags().String("weights", "", "path to a validator weights CSV (validator,weight); uniform weight 1 when omitted")
	cmd.Flags().String("output", "-", "path of the edge CSV to write, - for stdout")
	cmd.Flags().Duration("window", 50*time.Millisecond, "voting window W")
	cmd.Flags().Uint64("quorum", 0, "quorum threshold; byzantine threshold of the total weight when 0")
	_ = cmd.MarkFlagRequired("votes")

	viper.SetEnvPrefix("edgetrace")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		log.Fatal().Err(err).Msg("could not bind flags")
	}

	if err := cmd.Execute(); err != nil {
		log.Fatal().Err(err).Msg("edgetrace failed")
	}
}
