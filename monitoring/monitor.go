// Package monitoring turns a running simulation into an HTTP server that can
// be inspected and controlled from the outside.
package monitoring

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"runtime/pprof"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/pprof/profile"
	"github.com/gorilla/mux"
	"github.com/pkg/browser"
	"github.com/pkg/errors"
	"github.com/shirou/gopsutil/process"
	"github.com/sirupsen/logrus"
	"github.com/syifan/goseth"

	"github.com/sarchlab/metasim/sim"
)

// Monitor can turn a simulation into a server and allows external monitoring
// controlling of the simulation.
type Monitor struct {
	engine      *sim.Engine
	logger      *logrus.Logger
	portNumber  int
	openBrowser bool

	server   *http.Server
	listener net.Listener

	// pauseLock serializes the requests that pause or continue the engine.
	pauseLock sync.Mutex

	progressBarsLock sync.Mutex
	progressBars     []*ProgressBar
	runBar           *ProgressBar
}

// NewMonitor creates a new Monitor
func NewMonitor() *Monitor {
	return &Monitor{
		logger: logrus.StandardLogger(),
	}
}

// WithPortNumber sets the port number of the monitor.
func (m *Monitor) WithPortNumber(portNumber int) *Monitor {
	if portNumber != 0 && portNumber < 1000 {
		m.logger.WithField("port", portNumber).
			Warn("port not allowed for the monitoring server, " +
				"using a random port instead")
		portNumber = 0
	}

	m.portNumber = portNumber

	return m
}

// WithBrowser makes StartServer open the monitor in a web browser.
func (m *Monitor) WithBrowser(open bool) *Monitor {
	m.openBrowser = open
	return m
}

// WithLogger sets the logger of the monitor.
func (m *Monitor) WithLogger(logger *logrus.Logger) *Monitor {
	m.logger = logger
	return m
}

// RegisterEngine registers the engine that is used in the simulation. The
// monitor follows the progress of the replicas through an engine hook.
func (m *Monitor) RegisterEngine(e *sim.Engine) {
	m.engine = e
	e.AcceptHook(m)
}

// Func tracks the replicas of the engine in a progress bar.
func (m *Monitor) Func(ctx sim.HookCtx) {
	switch ctx.Pos {
	case sim.HookPosNewRun:
		m.progressBarsLock.Lock()
		bar := m.runBar
		m.progressBarsLock.Unlock()

		if bar == nil || ctx.Item == 0 {
			if bar != nil {
				m.CompleteProgressBar(bar)
			}

			bar = m.CreateProgressBar("Runs", uint64(m.engine.NumRuns()))

			m.progressBarsLock.Lock()
			m.runBar = bar
			m.progressBarsLock.Unlock()
		}

		bar.IncrementInProgress(1)
	case sim.HookPosEndRun:
		m.progressBarsLock.Lock()
		bar := m.runBar
		m.progressBarsLock.Unlock()

		if bar != nil {
			bar.MoveInProgressToFinished(1)
		}
	}
}

// CreateProgressBar creates a new progress bar.
func (m *Monitor) CreateProgressBar(name string, total uint64) *ProgressBar {
	bar := newProgressBar(name, total)

	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	m.progressBars = append(m.progressBars, bar)

	return bar
}

// CompleteProgressBar removes a bar to be shown on the webpage.
func (m *Monitor) CompleteProgressBar(pb *ProgressBar) {
	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	newBars := make([]*ProgressBar, 0, len(m.progressBars))
	for _, b := range m.progressBars {
		if b != pb {
			newBars = append(newBars, b)
		}
	}

	m.progressBars = newBars
}

func (m *Monitor) router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/api/pause", m.pauseEngine)
	r.HandleFunc("/api/continue", m.continueEngine)
	r.HandleFunc("/api/now", m.now)
	r.HandleFunc("/api/runs", m.runs)
	r.HandleFunc("/api/queue", m.listQueue)
	r.HandleFunc("/api/list_entities", m.listEntities)
	r.HandleFunc("/api/entity/{name}", m.listEntityDetails)
	r.HandleFunc("/api/field/{json}", m.listFieldValue)
	r.HandleFunc("/api/progress", m.listProgressBars)
	r.HandleFunc("/api/resource", m.listResources)
	r.HandleFunc("/api/profile", m.collectProfile)

	return r
}

// StartServer starts the monitor as a web server and returns the URL it
// listens on.
func (m *Monitor) StartServer() (string, error) {
	actualPort := ":0"
	if m.portNumber > 1000 {
		actualPort = ":" + strconv.Itoa(m.portNumber)
	}

	listener, err := net.Listen("tcp", actualPort)
	if err != nil {
		return "", errors.Wrap(err, "monitor")
	}

	m.listener = listener
	m.server = &http.Server{
		Handler:           m.router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	url := fmt.Sprintf("http://localhost:%d",
		listener.Addr().(*net.TCPAddr).Port)
	m.logger.WithField("url", url).Info("monitoring simulation")

	go func() {
		err := m.server.Serve(listener)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			m.logger.WithError(err).Error("monitoring server stopped")
		}
	}()

	if m.openBrowser {
		if err := browser.OpenURL(url); err != nil {
			m.logger.WithError(err).Warn("cannot open browser")
		}
	}

	return url, nil
}

// StopServer shuts the web server down.
func (m *Monitor) StopServer(ctx context.Context) error {
	if m.server == nil {
		return nil
	}

	return m.server.Shutdown(ctx)
}

func (m *Monitor) pauseEngine(w http.ResponseWriter, _ *http.Request) {
	m.pauseLock.Lock()
	defer m.pauseLock.Unlock()

	m.engine.Pause()
	w.WriteHeader(http.StatusOK)
}

func (m *Monitor) continueEngine(w http.ResponseWriter, _ *http.Request) {
	m.pauseLock.Lock()
	defer m.pauseLock.Unlock()

	m.engine.Continue()
	w.WriteHeader(http.StatusOK)
}

func (m *Monitor) now(w http.ResponseWriter, _ *http.Request) {
	fmt.Fprintf(w, "{\"now\":%d}", m.engine.CurrentTime())
}

type runsRsp struct {
	NumRuns int  `json:"num_runs"`
	ActRuns int  `json:"act_runs"`
	Ended   bool `json:"ended"`
	Paused  bool `json:"paused"`
}

func (m *Monitor) runs(w http.ResponseWriter, _ *http.Request) {
	m.writeJSON(w, runsRsp{
		NumRuns: m.engine.NumRuns(),
		ActRuns: m.engine.ActRuns(),
		Ended:   m.engine.Ended(),
		Paused:  m.engine.IsPaused(),
	})
}

type queuedEvent struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Time     int64  `json:"time"`
	Priority int    `json:"priority"`
}

type queueRsp struct {
	Length int           `json:"length"`
	Events []queuedEvent `json:"events"`
}

func (m *Monitor) listQueue(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		var err error
		limit, err = strconv.Atoi(s)
		if err != nil || limit < 0 {
			http.Error(w, "invalid limit "+s, http.StatusBadRequest)
			return
		}
	}

	m.pauseLock.Lock()
	defer m.pauseLock.Unlock()

	if !m.engine.IsPaused() {
		m.engine.Pause()
		defer m.engine.Continue()
	}

	events := m.engine.Queue().Snapshot()

	rsp := queueRsp{
		Length: len(events),
		Events: []queuedEvent{},
	}

	if limit > 0 && limit < len(events) {
		events = events[:limit]
	}

	for _, evt := range events {
		rsp.Events = append(rsp.Events, queuedEvent{
			ID:       evt.ID(),
			Name:     evt.Name(),
			Time:     int64(evt.Time()),
			Priority: evt.Priority(),
		})
	}

	m.writeJSON(w, rsp)
}

func (m *Monitor) listEntities(w http.ResponseWriter, _ *http.Request) {
	names := []string{}
	for _, e := range m.engine.Entities() {
		names = append(names, e.Name())
	}

	m.writeJSON(w, names)
}

func (m *Monitor) listEntityDetails(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	entity := m.findEntityOr404(w, name)
	if entity == nil {
		return
	}

	serializer := goseth.NewSerializer()
	serializer.SetRoot(entity)
	serializer.SetMaxDepth(1)

	err := serializer.Serialize(w)
	if err != nil {
		m.writeErr(w, err)
	}
}

type fieldReq struct {
	EntityName string `json:"entity_name,omitempty"`
	FieldName  string `json:"field_name,omitempty"`
}

func (m *Monitor) listFieldValue(w http.ResponseWriter, r *http.Request) {
	jsonString := mux.Vars(r)["json"]
	req := fieldReq{}

	err := json.Unmarshal([]byte(jsonString), &req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	entity := m.findEntityOr404(w, req.EntityName)
	if entity == nil {
		return
	}

	serializer := goseth.NewSerializer()
	serializer.SetRoot(entity)
	serializer.SetMaxDepth(1)

	err = serializer.SetEntryPoint(strings.Split(req.FieldName, "."))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	err = serializer.Serialize(w)
	if err != nil {
		m.writeErr(w, err)
	}
}

func (m *Monitor) findEntityOr404(
	w http.ResponseWriter,
	name string,
) sim.Entity {
	entity, found := m.engine.EntityByName(name)
	if !found {
		http.Error(w, "Entity not found", http.StatusNotFound)
		return nil
	}

	return entity
}

func (m *Monitor) listProgressBars(w http.ResponseWriter, _ *http.Request) {
	m.progressBarsLock.Lock()
	bars := make([]progressBarSnapshot, 0, len(m.progressBars))
	for _, b := range m.progressBars {
		bars = append(bars, b.snapshot())
	}
	m.progressBarsLock.Unlock()

	m.writeJSON(w, bars)
}

type resourceRsp struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemorySize uint64  `json:"memory_size"`
}

func (m *Monitor) listResources(w http.ResponseWriter, _ *http.Request) {
	pid := os.Getpid()
	process, err := process.NewProcess(int32(pid))
	if err != nil {
		m.writeErr(w, err)
		return
	}

	cpuPercent, err := process.CPUPercent()
	if err != nil {
		m.writeErr(w, err)
		return
	}

	memorySize, err := process.MemoryInfo()
	if err != nil {
		m.writeErr(w, err)
		return
	}

	m.writeJSON(w, resourceRsp{
		CPUPercent: cpuPercent,
		MemorySize: memorySize.RSS,
	})
}

func (m *Monitor) collectProfile(w http.ResponseWriter, _ *http.Request) {
	buf := bytes.NewBuffer(nil)

	err := pprof.StartCPUProfile(buf)
	if err != nil {
		m.writeErr(w, err)
		return
	}

	time.Sleep(time.Second)

	pprof.StopCPUProfile()

	prof, err := profile.ParseData(buf.Bytes())
	if err != nil {
		m.writeErr(w, err)
		return
	}

	m.writeJSON(w, prof)
}

func (m *Monitor) writeJSON(w http.ResponseWriter, v any) {
	bytes, err := json.Marshal(v)
	if err != nil {
		m.writeErr(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	_, err = w.Write(bytes)
	if err != nil {
		m.logger.WithError(err).Warn("cannot write response")
	}
}

func (m *Monitor) writeErr(w http.ResponseWriter, err error) {
	m.logger.WithError(err).Error("monitoring request failed")
	http.Error(w, err.Error(), http.StatusInternalServerError)
}
