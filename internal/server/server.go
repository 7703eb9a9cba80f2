// Package server exposes the agent over HTTP and WebSocket for the web UI.
package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"smartdevice-controller/internal/core"
	"smartdevice-controller/internal/modes"
	"smartdevice-controller/internal/protocol"
	"smartdevice-controller/internal/scheduler"
)

// CommandHandler defines the interface for handling client commands.
type CommandHandler interface {
	Handle(msg Message, hub *Hub)
}

// Server manages the HTTP and WebSocket services.
type Server struct {
	Hub     *Hub
	handler CommandHandler

	httpServer     *http.Server
	getState       func() core.State
	getSchedules   func() map[cron.EntryID]scheduler.ScheduleEntry
	getPatternList func() ([]string, error)

	staticFilesDir string
	allowedOrigins []string
	upgrader       websocket.Upgrader
}

// NewServer creates a new server instance.
func NewServer(getState func() core.State, getSchedules func() map[cron.EntryID]scheduler.ScheduleEntry, getPatternList func() ([]string, error), port, staticFilesDir string, allowedOrigins []string) *Server {
	hub := NewHub()
	go hub.Run()

	s := &Server{
		Hub:            hub,
		getState:       getState,
		getSchedules:   getSchedules,
		getPatternList: getPatternList,
		staticFilesDir: staticFilesDir,
		allowedOrigins: allowedOrigins,
	}

	s.upgrader = websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			if len(s.allowedOrigins) == 0 {
				log.Warn().Msg("websocket CheckOrigin is disabled")
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range s.allowedOrigins {
				if strings.EqualFold(origin, allowed) {
					return true
				}
			}
			log.Warn().Str("origin", origin).Msg("websocket connection blocked")
			return false
		},
	}

	mux := http.NewServeMux()
	mux.Handle("/", http.FileServer(http.Dir(s.staticFilesDir)))
	mux.HandleFunc("/ws", s.handleWebSocket)
	s.httpServer = &http.Server{Addr: ":" + port, Handler: mux}

	return s
}

// SetHandler installs the command handler for incoming client messages.
func (s *Server) SetHandler(h CommandHandler) {
	s.handler = h
}

func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// StatePayload converts a state snapshot into the wire form the UI wants.
func StatePayload(state core.State) map[string]interface{} {
	colors := make([]string, 0, len(state.Colors))
	hex := make([]string, 0, len(state.Colors))
	for _, c := range state.Colors {
		colors = append(colors, c.String())
		hex = append(hex, c.Hex())
	}
	return map[string]interface{}{
		"power":     state.Power,
		"mode":      state.Mode,
		"colors":    colors,
		"hex":       hex,
		"speed":     int(state.Options.Speed),
		"direction": int(state.Options.Direction),
		"size":      state.Options.Size,
		"moving":    state.Options.Moving,
	}
}

// catalogPayload describes the mode catalog for the UI mode picker.
func catalogPayload() []map[string]interface{} {
	entries := make([]map[string]interface{}, 0, len(modes.Catalog))
	for _, d := range modes.Catalog {
		entries = append(entries, map[string]interface{}{
			"name":       d.Name,
			"doc":        d.Doc,
			"flags":      d.Flags,
			"min_colors": d.MinColors,
			"max_colors": d.MaxColors,
		})
	}
	return entries
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	state := s.getState()

	// 1. Device connection status
	_ = conn.WriteJSON(NewMessage(MsgDeviceStatus, map[string]interface{}{
		"connected": state.IsConnected,
		"leds":      protocol.LedCount,
	}))

	// 2. Current led state for the UI
	_ = conn.WriteJSON(NewMessage(MsgDeviceState, StatePayload(state)))

	// 3. Mode catalog
	_ = conn.WriteJSON(NewMessage(MsgModeCatalog, catalogPayload()))

	// 4. Pattern list and running pattern
	if patterns, err := s.getPatternList(); err == nil {
		_ = conn.WriteJSON(NewMessage(MsgPatternList, patterns))
	}
	_ = conn.WriteJSON(NewMessage(MsgPatternStatus, map[string]string{
		"running": state.RunningPattern,
	}))

	// 5. Schedules
	_ = conn.WriteJSON(NewMessage(MsgScheduleList, s.getSchedules()))

	s.Hub.register <- conn

	defer func() {
		s.Hub.unregister <- conn
	}()

	for {
		_, msgBytes, err := conn.ReadMessage()
		if err != nil {
			break
		}
		if s.handler != nil {
			s.handler.Handle(Message{Raw: msgBytes}, s.Hub)
		}
	}
}
