package scheduler

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartdevice-controller/internal/core"
)

func newTestScheduler(t *testing.T) (*Scheduler, core.CommandChannel) {
	t.Helper()
	ch := make(core.CommandChannel, 10)
	return NewScheduler(ch, filepath.Join(t.TempDir(), "schedules.json")), ch
}

func TestExecuteOff(t *testing.T) {
	s, ch := newTestScheduler(t)
	s.execute("off")

	cmd := <-ch
	assert.Equal(t, core.CmdSetMode, cmd.Type)
	assert.Equal(t, "off", cmd.Payload["mode"])
}

func TestExecuteMode(t *testing.T) {
	s, ch := newTestScheduler(t)
	s.execute("mode alternating 255,0,0 0,0,255")

	cmd := <-ch
	require.Equal(t, core.CmdSetMode, cmd.Type)
	assert.Equal(t, "alternating", cmd.Payload["mode"])
	assert.Equal(t, []interface{}{"255,0,0", "0,0,255"}, cmd.Payload["colors"])
}

func TestExecutePattern(t *testing.T) {
	s, ch := newTestScheduler(t)
	s.execute("pattern rainbow.lua")

	cmd := <-ch
	assert.Equal(t, core.CmdRunPattern, cmd.Type)
	assert.Equal(t, "rainbow.lua", cmd.Payload["name"])
}

func TestExecuteIgnoresUnknown(t *testing.T) {
	s, ch := newTestScheduler(t)
	s.execute("reboot now")
	s.execute("")
	assert.Empty(t, ch)
}

func TestAddPersistsAndReloads(t *testing.T) {
	ch := make(core.CommandChannel, 10)
	file := filepath.Join(t.TempDir(), "schedules.json")

	s := NewScheduler(ch, file)
	s.Add("0 22 * * *", "off")
	s.Add("bogus spec", "off") // rejected by cron, never stored
	require.Len(t, s.GetAll(), 1)

	reloaded := NewScheduler(ch, file)
	all := reloaded.GetAll()
	require.Len(t, all, 1)
	for _, entry := range all {
		assert.Equal(t, "0 22 * * *", entry.Spec)
		assert.Equal(t, "off", entry.Command)
	}
}
