package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/suyash-sneo/lifeback"
	"github.com/suyash-sneo/lifeback/life"
	"github.com/suyash-sneo/lifeback/playground/session"
)

// Server exposes the session over a JSON API and an SSE event stream.
type Server struct {
	eng      *session.Engine
	mux      *http.ServeMux
	srv      *http.Server
	pollTick time.Duration
}

// New constructs a server bound to an engine.
func New(eng *session.Engine) *Server {
	s := &Server{
		eng:      eng,
		mux:      http.NewServeMux(),
		pollTick: 250 * time.Millisecond,
	}
	s.registerRoutes()
	return s
}

// Handler returns the routed handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start begins serving on the provided address and returns when ctx ends.
func (s *Server) Start(ctx context.Context, listen string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	s.srv = &http.Server{Addr: listen, Handler: s.mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = s.srv.Shutdown(shutdownCtx)
	}()

	err := s.srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/", s.handleIndex)

	s.mux.HandleFunc("/api/v1/snapshot", s.handleSnapshot)
	s.mux.HandleFunc("/api/v1/events", s.handleEvents)
	s.mux.HandleFunc("/api/v1/metrics", s.handleMetrics)

	s.mux.HandleFunc("/api/v1/step", s.handleStep)
	s.mux.HandleFunc("/api/v1/back", s.handleBack)
	s.mux.HandleFunc("/api/v1/run", s.handleRun)
	s.mux.HandleFunc("/api/v1/stop", s.handleStop)
	s.mux.HandleFunc("/api/v1/toggle", s.handleToggle)
	s.mux.HandleFunc("/api/v1/clear", s.handleClear)
	s.mux.HandleFunc("/api/v1/random", s.handleRandom)
	s.mux.HandleFunc("/api/v1/speed", s.handleSpeed)
	s.mux.HandleFunc("/api/v1/command", s.handleCommand)

	s.mux.HandleFunc("/api/v1/patterns", s.handlePatterns)
	s.mux.HandleFunc("/api/v1/patterns/load", s.handlePatternLoad)
	s.mux.HandleFunc("/api/v1/patterns/save", s.handlePatternSave)
	s.mux.HandleFunc("/api/v1/patterns/upload", s.handlePatternUpload)
}

// handleIndex renders the board as plain text so curl shows something useful.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeError(w, http.StatusNotFound, "not_found", "no such route")
		return
	}
	snap := s.eng.Snapshot()
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintf(w, "gen %d  pop %d  depth %d/%d  %s\n",
		snap.Board.Generation, snap.Board.Population, snap.History.Depth, snap.History.Limit, snap.Board.Rule)
	for _, row := range snap.Board.Rows {
		fmt.Fprintln(w, row)
	}
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "bad_request", "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, s.eng.Snapshot())
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "bad_request", "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, s.eng.Metrics())
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "bad_request", "method not allowed")
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "internal_error", "streaming unsupported")
		return
	}
	sinceParam := r.URL.Query().Get("since")
	var since uint64
	if sinceParam != "" {
		val, err := strconv.ParseUint(sinceParam, 10, 64)
		if err != nil {
			s.eng.EmitErrorEvent("invalid since param", map[string]interface{}{"endpoint": "events", "since": sinceParam})
			writeError(w, http.StatusBadRequest, "bad_request", "invalid since param")
			return
		}
		since = val
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	send := func(events []session.Event) {
		for _, ev := range events {
			payload, _ := json.Marshal(ev)
			fmt.Fprintf(w, "id: %d\n", ev.Seq)
			fmt.Fprintf(w, "event: %s\n", ev.Type)
			fmt.Fprintf(w, "data: %s\n\n", payload)
		}
		flusher.Flush()
	}

	evs, latest := s.eng.EventsSince(since)
	send(evs)
	since = latest

	tick := time.NewTicker(s.pollTick)
	defer tick.Stop()
	for {
		select {
		case <-r.Context().Done():
			return
		case <-tick.C:
			evs, latest = s.eng.EventsSince(since)
			if len(evs) == 0 {
				continue
			}
			send(evs)
			since = latest
		}
	}
}

type countRequest struct {
	Count int `json:"count"`
}

func (s *Server) handleStep(w http.ResponseWriter, r *http.Request) {
	var req countRequest
	if !s.decode(w, r, "step", &req) {
		return
	}
	s.runCommand(w, r, fmt.Sprintf("step %d", max(req.Count, 1)))
}

func (s *Server) handleBack(w http.ResponseWriter, r *http.Request) {
	var req countRequest
	if !s.decode(w, r, "back", &req) {
		return
	}
	s.runCommand(w, r, fmt.Sprintf("back %d", max(req.Count, 1)))
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	var req struct{}
	if !s.decode(w, r, "run", &req) {
		return
	}
	if err := s.eng.Run(); err != nil {
		writeError(w, http.StatusConflict, "conflict", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	var req struct{}
	if !s.decode(w, r, "stop", &req) {
		return
	}
	if err := s.eng.Stop(); err != nil {
		writeError(w, http.StatusConflict, "conflict", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	var req struct {
		X *int `json:"x"`
		Y *int `json:"y"`
	}
	if !s.decode(w, r, "toggle", &req) {
		return
	}
	if req.X == nil || req.Y == nil {
		msg := "x and y required"
		s.eng.EmitErrorEvent(msg, map[string]interface{}{"endpoint": "toggle"})
		writeError(w, http.StatusBadRequest, "bad_request", msg)
		return
	}
	f, err := s.eng.Toggle(*req.X, *req.Y)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"alive": f.Grid.Alive(*req.X, *req.Y)})
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	var req struct{}
	if !s.decode(w, r, "clear", &req) {
		return
	}
	s.eng.Clear()
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleRandom(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Density *float64 `json:"density"`
	}
	if !s.decode(w, r, "random", &req) {
		return
	}
	density := 0.25
	if req.Density != nil {
		density = *req.Density
	}
	f, err := s.eng.Randomize(density)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"population": f.Grid.Population()})
}

func (s *Server) handleSpeed(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Interval string `json:"interval"`
	}
	if !s.decode(w, r, "speed", &req) {
		return
	}
	d, err := time.ParseDuration(req.Interval)
	if err != nil {
		msg := "interval must be a duration such as 100ms"
		s.eng.EmitErrorEvent(msg, map[string]interface{}{"endpoint": "speed"})
		writeError(w, http.StatusBadRequest, "bad_request", msg)
		return
	}
	if err := s.eng.SetInterval(d); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"interval": d.String()})
}

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Command string `json:"command"`
	}
	if !s.decode(w, r, "command", &req) {
		return
	}
	if strings.TrimSpace(req.Command) == "" {
		msg := "command required"
		s.eng.EmitErrorEvent(msg, map[string]interface{}{"endpoint": "command"})
		writeError(w, http.StatusBadRequest, "bad_request", msg)
		return
	}
	s.runCommand(w, r, req.Command)
}

func (s *Server) runCommand(w http.ResponseWriter, r *http.Request, line string) {
	// scripts read local files, so network clients cannot start them
	res, err := s.eng.ExecCommand(session.WithoutScripts(r.Context()), line)
	if err != nil {
		writeError(w, statusFor(err), "bad_request", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":    res.Message,
		"generation": s.eng.Current().Generation,
		"depth":      s.eng.Depth(),
	})
}

func (s *Server) handlePatterns(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "bad_request", "method not allowed")
		return
	}
	list, err := s.eng.Patterns(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handlePatternLoad(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
		X    *int   `json:"x"`
		Y    *int   `json:"y"`
	}
	if !s.decode(w, r, "patterns.load", &req) {
		return
	}
	if req.Name == "" {
		msg := "name required"
		s.eng.EmitErrorEvent(msg, map[string]interface{}{"endpoint": "patterns.load"})
		writeError(w, http.StatusBadRequest, "bad_request", msg)
		return
	}
	var at *[2]int
	if req.X != nil && req.Y != nil {
		at = &[2]int{*req.X, *req.Y}
	}
	f, err := s.eng.LoadPattern(r.Context(), req.Name, at)
	if err != nil {
		var nf *lifeback.PatternNotFoundError
		if errors.As(err, &nf) {
			writeJSON(w, http.StatusNotFound, map[string]interface{}{
				"error": map[string]interface{}{
					"code":        "not_found",
					"message":     err.Error(),
					"suggestions": nf.Suggestions,
				},
			})
			return
		}
		writeError(w, statusFor(err), "bad_request", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"population": f.Grid.Population()})
}

func (s *Server) handlePatternSave(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if !s.decode(w, r, "patterns.save", &req) {
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		msg := "name required"
		s.eng.EmitErrorEvent(msg, map[string]interface{}{"endpoint": "patterns.save"})
		writeError(w, http.StatusBadRequest, "bad_request", msg)
		return
	}
	pat, err := s.eng.SavePattern(r.Context(), req.Name)
	if err != nil {
		writeError(w, statusFor(err), "bad_request", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, pat)
}

// handlePatternUpload accepts a .cells plaintext file and stores it.
func (s *Server) handlePatternUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "bad_request", "method not allowed")
		return
	}
	if err := r.ParseMultipartForm(1 << 20); err != nil {
		s.eng.EmitErrorEvent("parse form failed", map[string]interface{}{"endpoint": "patterns.upload"})
		writeError(w, http.StatusBadRequest, "bad_request", "invalid form")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		s.eng.EmitErrorEvent("missing file", map[string]interface{}{"endpoint": "patterns.upload"})
		writeError(w, http.StatusBadRequest, "bad_request", "file required")
		return
	}
	defer file.Close()
	if !isAllowedPatternExt(header) {
		msg := "unsupported file type"
		s.eng.EmitErrorEvent(msg, map[string]interface{}{"endpoint": "patterns.upload"})
		writeError(w, http.StatusBadRequest, "bad_request", msg)
		return
	}
	data, err := io.ReadAll(file)
	if err != nil {
		s.eng.EmitErrorEvent(err.Error(), map[string]interface{}{"endpoint": "patterns.upload"})
		writeError(w, http.StatusBadRequest, "bad_request", "read error")
		return
	}
	pat, err := life.ParsePlaintext(string(data))
	if err != nil {
		s.eng.EmitErrorEvent(err.Error(), map[string]interface{}{"endpoint": "patterns.upload"})
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	if pat.Name == "" {
		pat.Name = strings.TrimSuffix(filepath.Base(header.Filename), filepath.Ext(header.Filename))
	}
	if name := r.FormValue("name"); name != "" {
		pat.Name = name
	}
	if err := s.eng.ImportPattern(r.Context(), pat); err != nil {
		writeError(w, statusFor(err), "bad_request", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, pat)
}

func isAllowedPatternExt(h *multipart.FileHeader) bool {
	ext := strings.ToLower(filepath.Ext(h.Filename))
	return ext == ".cells" || ext == ".txt"
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, lifeback.ErrPatternNotFound):
		return http.StatusNotFound
	case errors.Is(err, lifeback.ErrReadOnlyProvider):
		return http.StatusNotImplemented
	case errors.Is(err, session.ErrAlreadyActive), errors.Is(err, session.ErrNotRunning):
		return http.StatusConflict
	case errors.Is(err, session.ErrScriptNotAllowed):
		return http.StatusForbidden
	case errors.Is(err, session.ErrClosed):
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadRequest
	}
}

// decode reports false after writing the error response.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, endpoint string, dst interface{}) bool {
	if err := decodeJSON(r, dst); err != nil {
		s.eng.EmitErrorEvent(err.Error(), map[string]interface{}{"endpoint": endpoint})
		status := http.StatusBadRequest
		if r.Method != http.MethodPost {
			status = http.StatusMethodNotAllowed
		}
		writeError(w, status, "bad_request", err.Error())
		return false
	}
	return true
}

func decodeJSON(r *http.Request, dst interface{}) error {
	if r.Method != http.MethodPost {
		return fmt.Errorf("method not allowed")
	}
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			// empty body keeps the zero request
			return nil
		}
		return fmt.Errorf("invalid json: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]string{
			"code":    code,
			"message": msg,
		},
	})
}
