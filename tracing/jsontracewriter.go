package tracing

import (
	"encoding/json"
	"io"
	"os"
	"sync"

	"github.com/rs/xid"
	"github.com/sirupsen/logrus"
	"github.com/tebeka/atexit"
)

// JSONTraceWriter writes the records as a JSON array.
type JSONTraceWriter struct {
	w           io.Writer
	closer      io.Closer
	lock        sync.Mutex
	firstRecord bool
	finished    bool
}

// NewJSONTraceWriter creates a JSONTraceWriter that writes into w.
func NewJSONTraceWriter(w io.Writer) *JSONTraceWriter {
	return &JSONTraceWriter{
		w:           w,
		firstRecord: true,
	}
}

// NewJSONTraceFile creates a JSONTraceWriter that writes into path.json. If
// path is empty, a unique name is generated. The array is closed when the
// program exits.
func NewJSONTraceFile(path string) *JSONTraceWriter {
	if path == "" {
		path = "metasim_trace_" + xid.New().String()
	}

	filename := path + ".json"
	f, err := os.Create(filename)
	if err != nil {
		panic(err)
	}

	logrus.WithField("file", filename).Info("recording event trace")

	t := NewJSONTraceWriter(f)
	t.closer = f

	atexit.Register(func() {
		if err := t.Close(); err != nil {
			logrus.WithError(err).Error("cannot close event trace")
		}
	})

	return t
}

// Init opens the array.
func (t *JSONTraceWriter) Init() {
	t.mustWrite([]byte("[\n"))
}

// Write appends a record to the array.
func (t *JSONTraceWriter) Write(r EventRecord) {
	t.lock.Lock()
	defer t.lock.Unlock()

	if t.finished {
		return
	}

	if t.firstRecord {
		t.firstRecord = false
	} else {
		t.mustWrite([]byte(",\n"))
	}

	b, err := json.Marshal(r)
	if err != nil {
		panic(err)
	}

	t.mustWrite(b)
}

// Flush does nothing, as records are written immediately.
func (t *JSONTraceWriter) Flush() {}

// Finish closes the array. Records written afterwards are dropped.
func (t *JSONTraceWriter) Finish() {
	t.lock.Lock()
	defer t.lock.Unlock()

	if t.finished {
		return
	}

	t.finished = true
	t.mustWrite([]byte("\n]"))
}

// Close finishes the array and closes the file opened by NewJSONTraceFile.
func (t *JSONTraceWriter) Close() error {
	t.Finish()

	t.lock.Lock()
	defer t.lock.Unlock()

	if t.closer == nil {
		return nil
	}

	err := t.closer.Close()
	t.closer = nil

	return err
}

func (t *JSONTraceWriter) mustWrite(b []byte) {
	_, err := t.w.Write(b)
	if err != nil {
		panic(err)
	}
}
