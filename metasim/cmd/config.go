package cmd

import (
	"os"
	"strconv"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/sarchlab/metasim/examples/markov"
	"github.com/sarchlab/metasim/randomvar"
	"github.com/sarchlab/metasim/simulation"
	"github.com/sarchlab/metasim/stats"
)

// Environment variables that provide defaults for the flags.
const (
	envSeed        = "METASIM_SEED"
	envRuns        = "METASIM_RUNS"
	envLength      = "METASIM_LENGTH"
	envMonitorPort = "METASIM_MONITOR_PORT"
	envOutput      = "METASIM_OUTPUT"
	envLogLevel    = "METASIM_LOG_LEVEL"
)

// Settings controls one simulation run. The value of a setting comes from,
// by increasing precedence, the defaults, the environment, the experiment
// file, and the command-line flags.
type Settings struct {
	Seed        int64
	Runs        int
	Length      int64
	Confidence  float64
	Monitor     bool
	MonitorPort int
	Output      string
	Trace       simulation.TraceFormat
	XLSX        bool
	LogEvents   bool
	CountEvents bool
}

func defaultSettings() Settings {
	return Settings{
		Seed:       1,
		Runs:       1,
		Length:     100000,
		Confidence: stats.DefaultConfidence,
	}
}

// Experiment is the content of an experiment file.
type Experiment struct {
	Seed       *int64        `yaml:"seed"`
	Runs       *int          `yaml:"runs"`
	Length     *int64        `yaml:"length"`
	Confidence *float64      `yaml:"confidence"`
	Chain      markov.Config `yaml:"chain"`
}

// LoadExperiment reads an experiment file. Unknown keys are rejected.
func LoadExperiment(path string) (*Experiment, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "experiment %s", path)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)

	exp := &Experiment{}
	if err := dec.Decode(exp); err != nil {
		return nil, errors.Wrapf(err, "experiment %s", path)
	}

	return exp, nil
}

func (s *Settings) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(envSeed); ok {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return errors.Wrapf(err, "%s", envSeed)
		}
		s.Seed = seed
	}

	if v, ok := lookup(envRuns); ok {
		runs, err := strconv.Atoi(v)
		if err != nil {
			return errors.Wrapf(err, "%s", envRuns)
		}
		s.Runs = runs
	}

	if v, ok := lookup(envLength); ok {
		length, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return errors.Wrapf(err, "%s", envLength)
		}
		s.Length = length
	}

	if v, ok := lookup(envMonitorPort); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return errors.Wrapf(err, "%s", envMonitorPort)
		}
		s.MonitorPort = port
		s.Monitor = true
	}

	if v, ok := lookup(envOutput); ok {
		s.Output = v
	}

	return nil
}

func (s *Settings) applyExperiment(exp *Experiment) {
	if exp.Seed != nil {
		s.Seed = *exp.Seed
	}

	if exp.Runs != nil {
		s.Runs = *exp.Runs
	}

	if exp.Length != nil {
		s.Length = *exp.Length
	}

	if exp.Confidence != nil {
		s.Confidence = *exp.Confidence
	}
}

func addRunFlags(flags *pflag.FlagSet) {
	flags.Int64("seed", 1, "Seed of the random number generator.")
	flags.Int("runs", 1,
		"Runs selector: the number of replicas, or -1 to continue "+
			"the previous batch.")
	flags.Int64("length", 100000, "Length of every replica, in ticks.")
	flags.Float64("confidence", stats.DefaultConfidence,
		"Confidence level of the reported intervals.")
	flags.Bool("monitor", false, "Serve the web monitor during the run.")
	flags.Int("monitor-port", 0,
		"Port of the web monitor. Implies --monitor.")
	flags.StringP("output", "o", "",
		"Base name of the output files. Generated when empty.")
	flags.String("trace", "", "Trace the events into csv, json, or sqlite.")
	flags.Bool("xlsx", false, "Also write the statistics into a spreadsheet.")
	flags.Bool("log-events", false,
		"Log every triggered event at the debug level.")
	flags.Bool("count-events", false,
		"Record how many times every event has been triggered.")
}

func (s *Settings) applyFlags(flags *pflag.FlagSet) error {
	var err error

	if flags.Changed("seed") {
		s.Seed, err = flags.GetInt64("seed")
	}

	if err == nil && flags.Changed("runs") {
		s.Runs, err = flags.GetInt("runs")
	}

	if err == nil && flags.Changed("length") {
		s.Length, err = flags.GetInt64("length")
	}

	if err == nil && flags.Changed("confidence") {
		s.Confidence, err = flags.GetFloat64("confidence")
	}

	if err == nil && flags.Changed("monitor") {
		s.Monitor, err = flags.GetBool("monitor")
	}

	if err == nil && flags.Changed("monitor-port") {
		s.MonitorPort, err = flags.GetInt("monitor-port")
		s.Monitor = true
	}

	if err == nil && flags.Changed("output") {
		s.Output, err = flags.GetString("output")
	}

	if err == nil && flags.Changed("trace") {
		var format string
		format, err = flags.GetString("trace")
		s.Trace = simulation.TraceFormat(format)
	}

	if err == nil && flags.Changed("xlsx") {
		s.XLSX, err = flags.GetBool("xlsx")
	}

	if err == nil && flags.Changed("log-events") {
		s.LogEvents, err = flags.GetBool("log-events")
	}

	if err == nil && flags.Changed("count-events") {
		s.CountEvents, err = flags.GetBool("count-events")
	}

	return errors.Wrap(err, "flags")
}

func (s Settings) validate() error {
	if err := randomvar.CheckSeed(s.Seed); err != nil {
		return err
	}

	if s.Length < 0 {
		return errors.Errorf("length %d is negative", s.Length)
	}

	if s.Confidence <= 0 || s.Confidence >= 1 {
		return errors.Errorf("confidence %g is not in (0, 1)", s.Confidence)
	}

	switch s.Trace {
	case simulation.TraceNone, simulation.TraceCSV,
		simulation.TraceJSON, simulation.TraceSQLite:
	default:
		return errors.Errorf("unknown trace format %q", s.Trace)
	}

	return nil
}

// resolveSettings merges the sources of the settings of a command.
func resolveSettings(flags *pflag.FlagSet, exp *Experiment) (Settings, error) {
	s := defaultSettings()

	if err := s.applyEnv(os.LookupEnv); err != nil {
		return s, err
	}

	if exp != nil {
		s.applyExperiment(exp)
	}

	if err := s.applyFlags(flags); err != nil {
		return s, err
	}

	return s, s.validate()
}

func (s Settings) builder() simulation.Builder {
	b := simulation.MakeBuilder().
		WithLogger(logger).
		WithSeed(s.Seed).
		WithOutputFileName(s.Output).
		WithTracing(s.Trace)

	if s.XLSX {
		b = b.WithXLSXReport()
	}

	if s.LogEvents {
		b = b.WithEventLogging()
	}

	if s.CountEvents {
		b = b.WithEventCounting()
	}

	if !s.Monitor {
		return b.WithoutMonitoring()
	}

	return b.WithMonitorPort(s.MonitorPort)
}
