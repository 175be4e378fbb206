package tracing

import (
	"github.com/sarchlab/metasim/datarecording"
)

// TraceTable is the table that SQLiteTraceWriter writes into.
const TraceTable = "trace"

// SQLiteTraceWriter stores the records in a table of a DataRecorder.
type SQLiteTraceWriter struct {
	recorder datarecording.DataRecorder
}

// NewSQLiteTraceWriter creates a new SQLiteTraceWriter.
func NewSQLiteTraceWriter(
	recorder datarecording.DataRecorder,
) *SQLiteTraceWriter {
	return &SQLiteTraceWriter{recorder: recorder}
}

// Init creates the trace table.
func (t *SQLiteTraceWriter) Init() {
	t.recorder.CreateTable(TraceTable, EventRecord{})
}

// Write inserts a record.
func (t *SQLiteTraceWriter) Write(r EventRecord) {
	t.recorder.InsertData(TraceTable, r)
}

// Flush writes the buffered records into the database.
func (t *SQLiteTraceWriter) Flush() {
	t.recorder.Flush()
}
