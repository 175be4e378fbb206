package stats

import (
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"

	"github.com/sarchlab/metasim/datarecording"
)

// LogReporter writes the summaries into a logger.
type LogReporter struct {
	Logger *logrus.Logger
}

// NewLogReporter creates a LogReporter.
func NewLogReporter(logger *logrus.Logger) *LogReporter {
	return &LogReporter{Logger: logger}
}

// Report logs the summary at the info level.
func (r *LogReporter) Report(s Summary, _ []float64) {
	r.Logger.WithFields(logrus.Fields{
		"stat":       s.Name,
		"runs":       s.Runs,
		"mean":       s.Mean,
		"stddev":     s.StdDev,
		"confidence": s.Confidence,
		"low":        s.Low,
		"high":       s.High,
	}).Info("statistic summary")
}

// SummaryTable and RunTable are the tables written by RecorderReporter.
const (
	SummaryTable = "stat_summary"
	RunTable     = "stat_runs"
)

// SummaryEntry is a row of SummaryTable.
type SummaryEntry struct {
	Name       string
	Runs       int
	Mean       float64
	StdDev     float64
	Confidence float64
	Low        float64
	High       float64
}

// RunEntry is a row of RunTable.
type RunEntry struct {
	Statistic string
	Run       int
	Value     float64
}

// RecorderReporter stores the summaries and the per-replica values in a
// DataRecorder.
type RecorderReporter struct {
	lock          sync.Mutex
	recorder      datarecording.DataRecorder
	tablesCreated bool
}

// NewRecorderReporter creates a RecorderReporter.
func NewRecorderReporter(
	recorder datarecording.DataRecorder,
) *RecorderReporter {
	return &RecorderReporter{recorder: recorder}
}

// Report inserts one summary row and one row per replica.
func (r *RecorderReporter) Report(s Summary, runValues []float64) {
	r.lock.Lock()
	defer r.lock.Unlock()

	if !r.tablesCreated {
		r.recorder.CreateTable(SummaryTable, SummaryEntry{})
		r.recorder.CreateTable(RunTable, RunEntry{})
		r.tablesCreated = true
	}

	r.recorder.InsertData(SummaryTable, SummaryEntry(s))

	for i, v := range runValues {
		r.recorder.InsertData(RunTable, RunEntry{
			Statistic: s.Name,
			Run:       i,
			Value:     v,
		})
	}
}

// XLSXReporter collects the results and writes them into a spreadsheet with
// a Summary sheet and a Runs sheet.
type XLSXReporter struct {
	lock      sync.Mutex
	summaries []Summary
	runs      [][]float64
}

// NewXLSXReporter creates an XLSXReporter.
func NewXLSXReporter() *XLSXReporter {
	return &XLSXReporter{}
}

// Report keeps the results until Save is called.
func (r *XLSXReporter) Report(s Summary, runValues []float64) {
	r.lock.Lock()
	defer r.lock.Unlock()

	r.summaries = append(r.summaries, s)
	r.runs = append(r.runs, runValues)
}

// Save writes the collected results into the file at path.
func (r *XLSXReporter) Save(path string) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", "Summary"); err != nil {
		return errors.Wrap(err, "xlsx")
	}

	if _, err := f.NewSheet("Runs"); err != nil {
		return errors.Wrap(err, "xlsx")
	}

	err := setRow(f, "Summary", 1, []interface{}{
		"Name", "Runs", "Mean", "StdDev", "Confidence", "Low", "High",
	})
	if err != nil {
		return err
	}

	err = setRow(f, "Runs", 1, []interface{}{"Statistic", "Run", "Value"})
	if err != nil {
		return err
	}

	runRow := 2
	for i, s := range r.summaries {
		err = setRow(f, "Summary", i+2, []interface{}{
			s.Name, s.Runs, s.Mean, s.StdDev, s.Confidence, s.Low, s.High,
		})
		if err != nil {
			return err
		}

		for run, v := range r.runs[i] {
			err = setRow(f, "Runs", runRow, []interface{}{s.Name, run, v})
			if err != nil {
				return err
			}
			runRow++
		}
	}

	if err := f.SaveAs(path); err != nil {
		return errors.Wrapf(err, "xlsx: save %s", path)
	}

	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return errors.Wrap(err, "xlsx")
	}

	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return errors.Wrapf(err, "xlsx: %s row %d", sheet, row)
	}

	return nil
}
