package tracing

import (
	"fmt"
	"os"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/xid"
	"github.com/tebeka/atexit"
)

// CSVTraceWriter is a trace writer that can store the records into a CSV
// file.
type CSVTraceWriter struct {
	lock sync.Mutex
	path string
	file *os.File

	records    []EventRecord
	bufferSize int
	closed     bool
}

// NewCSVTraceWriter creates a new CSVTraceWriter. The records go to
// path.csv.
func NewCSVTraceWriter(path string) *CSVTraceWriter {
	return &CSVTraceWriter{
		path:       path,
		bufferSize: 1000,
	}
}

// Path returns the name of the CSV file.
func (t *CSVTraceWriter) Path() string {
	return t.path + ".csv"
}

// Init creates the tracing csv file. It panics if the file already exists.
func (t *CSVTraceWriter) Init() {
	if t.path == "" {
		t.path = "metasim_trace_" + xid.New().String()
	}

	filename := t.Path()
	_, err := os.Stat(filename)
	if err == nil {
		panic(errors.Errorf("file %s already exists", filename))
	}

	file, err := os.Create(filename)
	if err != nil {
		panic(err)
	}
	t.file = file

	fmt.Fprintf(file, "Run, Time, Next, Event, ID, Priority\n")

	atexit.Register(func() {
		err := t.Close()
		if err != nil {
			panic(err)
		}
	})
}

// Write buffers a record.
func (t *CSVTraceWriter) Write(r EventRecord) {
	t.lock.Lock()
	defer t.lock.Unlock()

	t.records = append(t.records, r)
	if len(t.records) >= t.bufferSize {
		t.flush()
	}
}

// Flush writes the buffered records to the CSV file.
func (t *CSVTraceWriter) Flush() {
	t.lock.Lock()
	defer t.lock.Unlock()

	t.flush()
}

func (t *CSVTraceWriter) flush() {
	if t.closed {
		return
	}

	for _, r := range t.records {
		fmt.Fprintf(t.file, "%d, %d, %d, %s, %s, %d\n",
			r.Run,
			r.Time,
			r.Next,
			r.Event,
			r.ID,
			r.Priority,
		)
	}

	t.records = nil
}

// Close flushes the records and closes the file.
func (t *CSVTraceWriter) Close() error {
	t.lock.Lock()
	defer t.lock.Unlock()

	if t.closed || t.file == nil {
		return nil
	}

	t.flush()
	t.closed = true

	return t.file.Close()
}
