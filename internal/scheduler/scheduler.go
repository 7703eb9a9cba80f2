// Package scheduler runs cron based led schedules and persists them to a
// JSON file.
package scheduler

import (
	"encoding/json"
	"os"
	"strings"
	"sync"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"smartdevice-controller/internal/core"
)

// ScheduleEntry defines the structure for a saved schedule.
type ScheduleEntry struct {
	Spec    string `json:"spec"`
	Command string `json:"command"`
}

// Scheduler manages all cron-related tasks.
type Scheduler struct {
	cron           *cron.Cron
	store          map[cron.EntryID]ScheduleEntry
	commandChannel core.CommandChannel
	mu             sync.RWMutex
	schedulesFile  string
}

// NewScheduler creates and loads a scheduler.
func NewScheduler(cmdChan core.CommandChannel, schedulesFile string) *Scheduler {
	s := &Scheduler{
		cron:           cron.New(),
		store:          make(map[cron.EntryID]ScheduleEntry),
		commandChannel: cmdChan,
		schedulesFile:  schedulesFile,
	}
	s.load()
	return s
}

// Start begins the cron job ticker.
func (s *Scheduler) Start() {
	s.cron.Start()
	log.Info().Msg("cron scheduler started")
}

// Stop halts the cron job ticker.
func (s *Scheduler) Stop() {
	s.cron.Stop()
	log.Info().Msg("cron scheduler stopped")
}

// Add creates a new cron job.
func (s *Scheduler) Add(spec, command string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.cron.AddFunc(spec, func() { s.execute(command) })
	if err != nil {
		log.Error().Err(err).Str("spec", spec).Str("command", command).Msg("could not add schedule")
		return
	}
	s.store[id] = ScheduleEntry{Spec: spec, Command: command}
	s.save()
	log.Info().Int("id", int(id)).Str("spec", spec).Str("command", command).Msg("added schedule")
}

// Remove deletes a cron job.
func (s *Scheduler) Remove(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entryID := cron.EntryID(id)
	s.cron.Remove(entryID)
	delete(s.store, entryID)
	s.save()
	log.Info().Int("id", id).Msg("removed schedule")
}

// GetAll returns a copy of the current schedules in a thread-safe way.
func (s *Scheduler) GetAll() map[cron.EntryID]ScheduleEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	newMap := make(map[cron.EntryID]ScheduleEntry)
	for k, v := range s.store {
		newMap[k] = v
	}
	return newMap
}

// execute translates a schedule command line into an agent command.
// Supported forms:
//
//	off
//	mode <name> [r,g,b ...]
//	pattern <file.lua>
func (s *Scheduler) execute(command string) {
	log.Info().Str("command", command).Msg("executing scheduled command")
	parts := strings.Fields(command)
	if len(parts) == 0 {
		return
	}
	switch parts[0] {
	case "off":
		s.commandChannel <- core.Command{Type: core.CmdSetMode, Payload: map[string]interface{}{"mode": "off"}}
	case "mode":
		if len(parts) < 2 {
			log.Warn().Str("command", command).Msg("schedule is missing a mode name")
			return
		}
		colors := make([]interface{}, 0, len(parts)-2)
		for _, c := range parts[2:] {
			colors = append(colors, c)
		}
		s.commandChannel <- core.Command{Type: core.CmdSetMode, Payload: map[string]interface{}{
			"mode":   parts[1],
			"colors": colors,
		}}
	case "pattern":
		if len(parts) > 1 {
			s.commandChannel <- core.Command{Type: core.CmdRunPattern, Payload: map[string]interface{}{"name": parts[1]}}
		}
	default:
		log.Warn().Str("command", command).Msg("unknown schedule command")
	}
}

func (s *Scheduler) save() {
	data, err := json.MarshalIndent(s.store, "", "  ")
	if err != nil {
		log.Error().Err(err).Msg("could not marshal schedules")
		return
	}
	if err := os.WriteFile(s.schedulesFile, data, 0644); err != nil {
		log.Error().Err(err).Str("file", s.schedulesFile).Msg("could not save schedules")
	}
}

func (s *Scheduler) load() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := os.Stat(s.schedulesFile); os.IsNotExist(err) {
		return
	}
	data, err := os.ReadFile(s.schedulesFile)
	if err != nil {
		log.Error().Err(err).Msg("could not read schedule file")
		return
	}

	tempStore := make(map[cron.EntryID]ScheduleEntry)
	if err := json.Unmarshal(data, &tempStore); err != nil {
		log.Error().Err(err).Msg("could not parse schedule file")
		return
	}

	log.Info().Int("count", len(tempStore)).Str("file", s.schedulesFile).Msg("loading schedules")
	for _, entry := range tempStore {
		jobEntry := entry
		newID, err := s.cron.AddFunc(jobEntry.Spec, func() { s.execute(jobEntry.Command) })
		if err != nil {
			log.Error().Err(err).Str("spec", jobEntry.Spec).Msg("could not re-add schedule from file")
			continue
		}
		s.store[newID] = jobEntry
	}
}
