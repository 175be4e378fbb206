package simulation

import (
	"io"
	"path/filepath"
	"strconv"

	"github.com/rs/xid"
	"github.com/sirupsen/logrus"

	"github.com/sarchlab/metasim/datarecording"
	"github.com/sarchlab/metasim/monitoring"
	"github.com/sarchlab/metasim/randomvar"
	"github.com/sarchlab/metasim/sim"
	"github.com/sarchlab/metasim/stats"
	"github.com/sarchlab/metasim/tracing"
)

// TraceFormat selects where the event traces go.
type TraceFormat string

// Supported trace formats.
const (
	TraceNone   TraceFormat = ""
	TraceCSV    TraceFormat = "csv"
	TraceJSON   TraceFormat = "json"
	TraceSQLite TraceFormat = "sqlite"
)

// Builder can be used to build a simulation.
type Builder struct {
	monitorOn      bool
	monitorPort    int
	openBrowser    bool
	outputFileName string
	seed           int64
	traceFormat    TraceFormat
	xlsxReport     bool
	logEvents      bool
	countEvents    bool
	logger         *logrus.Logger
}

// MakeBuilder creates a new builder.
func MakeBuilder() Builder {
	return Builder{
		monitorOn: true,
		seed:      1,
		logger:    logrus.StandardLogger(),
	}
}

// WithoutMonitoring sets the simulation to not use monitoring.
func (b Builder) WithoutMonitoring() Builder {
	b.monitorOn = false
	return b
}

// WithMonitorPort sets the port number for the monitoring server.
func (b Builder) WithMonitorPort(port int) Builder {
	b.monitorPort = port
	return b
}

// WithBrowser opens the monitor in a web browser when the simulation starts.
func (b Builder) WithBrowser() Builder {
	b.openBrowser = true
	return b
}

// WithOutputFileName sets the custom output file name for the data recorder.
// The other output files share the same base name.
func (b Builder) WithOutputFileName(filename string) Builder {
	b.outputFileName = filename
	return b
}

// WithSeed sets the seed of the generator of the simulation.
func (b Builder) WithSeed(seed int64) Builder {
	b.seed = seed
	return b
}

// WithTracing records every traced event in the given format.
func (b Builder) WithTracing(format TraceFormat) Builder {
	b.traceFormat = format
	return b
}

// WithXLSXReport also writes the statistics into a spreadsheet.
func (b Builder) WithXLSXReport() Builder {
	b.xlsxReport = true
	return b
}

// WithEventLogging writes a debug line for every triggered event.
func (b Builder) WithEventLogging() Builder {
	b.logEvents = true
	return b
}

// WithEventCounting counts the triggers of every traced event and stores the
// counts in the data recorder when the simulation terminates.
func (b Builder) WithEventCounting() Builder {
	b.countEvents = true
	return b
}

// WithLogger sets the logger used by the engine and the reporters.
func (b Builder) WithLogger(logger *logrus.Logger) Builder {
	b.logger = logger
	return b
}

func (b Builder) parametersMustBeValid() {
	if !b.monitorOn && b.monitorPort != 0 {
		panic("monitor port cannot be set when monitoring is disabled")
	}

	if !b.monitorOn && b.openBrowser {
		panic("browser cannot be opened when monitoring is disabled")
	}

	if err := randomvar.CheckSeed(b.seed); err != nil {
		panic(err)
	}

	switch b.traceFormat {
	case TraceNone, TraceCSV, TraceJSON, TraceSQLite:
	default:
		panic("unknown trace format " + string(b.traceFormat))
	}
}

// Build builds the simulation.
func (b Builder) Build() *Simulation {
	b.parametersMustBeValid()

	s := &Simulation{
		id:        xid.New().String(),
		logger:    b.logger,
		seed:      b.seed,
		generator: randomvar.NewGenerator(b.seed),
	}

	s.outputPath = b.outputFileName
	if s.outputPath == "" {
		s.outputPath = "metasim_sim_" + s.id
	}

	s.engine = sim.NewEngine().WithLogger(b.logger)
	if b.logEvents {
		s.engine.AcceptHook(sim.NewEventLogger(b.logger))
	}
	s.dataRecorder = datarecording.New(s.outputPath)

	s.execRecorder = datarecording.NewExecRecorder(s.dataRecorder)
	s.execRecorder.Start()
	s.execRecorder.Set("Seed", strconv.FormatInt(b.seed, 10))

	s.reporters = []stats.Reporter{
		stats.NewLogReporter(b.logger),
		stats.NewRecorderReporter(s.dataRecorder),
	}

	if b.xlsxReport {
		s.xlsxReporter = stats.NewXLSXReporter()
		s.reporters = append(s.reporters, s.xlsxReporter)
	}

	b.buildTracer(s)

	if b.countEvents {
		s.counter = tracing.NewCountTracer()
		s.closers = append(s.closers, func() error {
			s.counter.Report(s.dataRecorder)
			return nil
		})
	}

	if b.monitorOn {
		b.buildMonitor(s)
	}

	return s
}

func (b Builder) buildTracer(s *Simulation) {
	var writer tracing.TraceWriter

	switch b.traceFormat {
	case TraceNone:
		return
	case TraceCSV:
		writer = tracing.NewCSVTraceWriter(s.outputPath + "_trace")
	case TraceJSON:
		writer = tracing.NewJSONTraceFile(s.outputPath + "_trace")
	case TraceSQLite:
		writer = tracing.NewSQLiteTraceWriter(s.dataRecorder)
	}

	s.tracer = tracing.NewEventTracer(s.engine, writer)
	s.closers = append(s.closers, func() error {
		s.tracer.Terminate()

		if c, ok := writer.(io.Closer); ok {
			return c.Close()
		}

		return nil
	})
}

func (b Builder) buildMonitor(s *Simulation) {
	s.monitor = monitoring.NewMonitor().
		WithLogger(b.logger).
		WithBrowser(b.openBrowser)
	if b.monitorPort > 0 {
		s.monitor.WithPortNumber(b.monitorPort)
	}

	s.monitor.RegisterEngine(s.engine)

	url, err := s.monitor.StartServer()
	if err != nil {
		panic(err)
	}

	s.monitorURL = url
}

// XLSXPath returns the name of the spreadsheet written by a simulation whose
// output files are named after base.
func XLSXPath(base string) string {
	return filepath.Clean(base + ".xlsx")
}
