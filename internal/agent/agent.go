// Package agent wires the transport, pattern engine, scheduler, server and
// MQTT client together and runs the central command loop.
package agent

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"smartdevice-controller/internal/config"
	"smartdevice-controller/internal/core"
	"smartdevice-controller/internal/lua"
	"smartdevice-controller/internal/modes"
	"smartdevice-controller/internal/mqtt"
	"smartdevice-controller/internal/protocol"
	"smartdevice-controller/internal/scheduler"
	"smartdevice-controller/internal/server"
	"smartdevice-controller/internal/usb"
)

type Agent struct {
	ctx    context.Context
	cancel context.CancelFunc
	config *config.Config
	wg     sync.WaitGroup

	state          *core.State
	eventBus       *core.EventBus
	commandChannel core.CommandChannel

	controller *usb.Controller
	luaEngine  *lua.Engine
	scheduler  *scheduler.Scheduler
	server     *server.Server
	mqttClient *mqtt.Client
}

func NewAgent(cfg *config.Config) (*Agent, error) {
	ctx, cancel := context.WithCancel(context.Background())

	a := &Agent{
		ctx:            ctx,
		cancel:         cancel,
		config:         cfg,
		state:          core.NewState(),
		eventBus:       core.NewEventBus(),
		commandChannel: make(core.CommandChannel, 20),
	}

	retryDelay, err := time.ParseDuration(cfg.USB.RetryDelay)
	if err != nil {
		retryDelay = 5 * time.Second
	}

	a.controller = usb.NewController(
		ctx,
		a.eventBus,
		retryDelay,
		cfg.USB.RateLimit,
		cfg.USB.RateBurst,
	)

	a.luaEngine = lua.NewEngine(a.controller, cfg.PatternsDir, a.eventBus)

	a.scheduler = scheduler.NewScheduler(a.commandChannel, cfg.SchedulesFile)

	a.server = server.NewServer(
		a.state.Clone,
		a.scheduler.GetAll,
		a.luaEngine.GetPatternList,
		cfg.Server.Port,
		cfg.Server.WebFilesDir,
		cfg.Server.AllowedOrigins,
	)
	a.server.SetHandler(a)

	a.mqttClient = mqtt.NewClient(cfg, a.commandChannel, a.luaEngine.GetPatternList)

	return a, nil
}

// Run starts the agent orchestration loop. It blocks until Shutdown.
func (a *Agent) Run() {
	go a.listenEvents()

	if a.mqttClient != nil {
		go func() {
			if err := a.mqttClient.Connect(); err != nil {
				log.Warn().Err(err).Msg("mqtt setup error")
			}
		}()
	}

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.controller.Run(a.ctx)
	}()

	a.scheduler.Start()

	log.Info().Str("port", a.config.Server.Port).Msg("agent running")
	go func() {
		if err := a.server.ListenAndServe(); err != nil {
			log.Error().Err(err).Msg("server error")
		}
	}()

	log.Info().Msg("agent orchestrator ready")
	for {
		select {
		case <-a.ctx.Done():
			log.Info().Msg("agent orchestrator shutting down")
			return
		case cmd := <-a.commandChannel:
			a.handleCommand(cmd)
		}
	}
}

// Shutdown stops the services and waits for the transport to close.
func (a *Agent) Shutdown() {
	a.scheduler.Stop()
	_ = a.server.Shutdown(context.Background())
	if a.mqttClient != nil {
		a.mqttClient.Disconnect()
	}
	a.cancel()
	a.wg.Wait()
}

// Handle implements server.CommandHandler: WebSocket commands go through
// the same channel as MQTT and scheduler commands.
func (a *Agent) Handle(msg server.Message, hub *server.Hub) {
	var cmd server.Command
	if err := json.Unmarshal(msg.Raw, &cmd); err != nil {
		log.Warn().Err(err).Msg("bad websocket command")
		return
	}

	select {
	case a.commandChannel <- core.Command{Type: core.CommandType(cmd.Type), Payload: cmd.Payload}:
	default:
		log.Warn().Str("type", cmd.Type).Msg("command channel full, dropping command")
	}
}

func (a *Agent) listenEvents() {
	sub := a.eventBus.Subscribe(core.DeviceConnectedEvent, core.PatternChangedEvent)

	for {
		select {
		case <-a.ctx.Done():
			return
		case event := <-sub:
			switch event.Type {
			case core.DeviceConnectedEvent:
				payload, ok := event.Payload.(map[string]interface{})
				if !ok {
					continue
				}
				connected, ok := payload["connected"].(bool)
				if !ok {
					continue
				}

				wasConnected := a.state.Clone().IsConnected
				a.state.SetConnection(connected)
				a.broadcast(server.MsgDeviceStatus, map[string]bool{"connected": connected})
				if a.mqttClient != nil {
					status := "disconnected"
					if connected {
						status = "connected"
					}
					a.mqttClient.Publish("connection", status, true)
				}

				if !wasConnected && connected {
					a.restore()
				}

			case core.PatternChangedEvent:
				payload, ok := event.Payload.(map[string]interface{})
				if !ok {
					continue
				}
				if pattern, ok := payload["running"].(string); ok {
					a.state.SetRunningPattern(pattern)
					a.broadcast(server.MsgPatternStatus, map[string]string{"running": pattern})

					if pattern == "" {
						log.Info().Msg("pattern finished, restoring last mode")
						a.restore()
					}
				}
			}
		}
	}
}

// restore reapplies the remembered mode after a reconnect or a finished
// pattern, resuming an interrupted pattern first if there was one.
func (a *Agent) restore() {
	s := a.state.Clone()

	if s.RunningPattern != "" {
		log.Info().Str("pattern", s.RunningPattern).Msg("resuming pattern")
		a.luaEngine.RunPattern(s.RunningPattern)
		return
	}

	if !s.Power {
		if err := a.controller.Off(); err != nil {
			log.Warn().Err(err).Msg("could not restore off state")
		}
		return
	}

	if s.Mode == "" {
		return
	}
	if err := a.controller.Apply(s.Mode, s.Colors, s.Options); err != nil {
		log.Warn().Err(err).Str("mode", s.Mode).Msg("could not restore mode")
		return
	}
	a.publishState()
}

func (a *Agent) handleCommand(cmd core.Command) {
	log.Debug().Str("type", string(cmd.Type)).Interface("payload", cmd.Payload).Msg("handling command")

	switch cmd.Type {
	case core.CmdSetMode:
		name, _ := cmd.Payload["mode"].(string)
		colors, err := colorsFromPayload(cmd.Payload)
		if err != nil {
			log.Warn().Err(err).Msg("bad colors in setMode")
			return
		}
		if len(colors) == 0 {
			colors = fitColors(name, a.state.Clone().Colors)
		}
		a.applyMode(name, colors, optionsFromPayload(cmd.Payload, a.state.Clone().Options))

	case core.CmdSetColor:
		raw, _ := cmd.Payload["color"].(string)
		c, err := protocol.ParseColor(raw)
		if err != nil {
			log.Warn().Err(err).Str("color", raw).Msg("bad color in setColor")
			return
		}
		a.applyMode("fixed", []protocol.Color{c}, a.state.Clone().Options)

	case core.CmdSetPower:
		isOn, _ := cmd.Payload["isOn"].(bool)
		a.setPower(isOn)

	case core.CmdRunPattern:
		if name, ok := cmd.Payload["name"].(string); ok {
			a.luaEngine.RunPattern(name)
		}

	case core.CmdStopPattern:
		a.luaEngine.StopCurrentPattern()

	case core.CmdAddSchedule:
		spec, _ := cmd.Payload["spec"].(string)
		command, _ := cmd.Payload["command"].(string)
		a.scheduler.Add(spec, command)
		a.broadcast(server.MsgScheduleList, a.scheduler.GetAll())

	case core.CmdRemoveSchedule:
		if idStr, ok := cmd.Payload["id"].(string); ok {
			if id, err := strconv.Atoi(idStr); err == nil {
				a.scheduler.Remove(id)
				a.broadcast(server.MsgScheduleList, a.scheduler.GetAll())
			}
		}

	case core.CmdGetPatternCode:
		if name, ok := cmd.Payload["name"].(string); ok {
			content, err := a.luaEngine.GetPatternCode(name)
			if err != nil {
				log.Warn().Err(err).Str("name", name).Msg("could not read pattern")
				return
			}
			a.broadcast(server.MsgPatternCode, map[string]string{"name": name, "code": content})
		}

	case core.CmdSavePatternCode:
		name, nameOk := cmd.Payload["name"].(string)
		code, codeOk := cmd.Payload["code"].(string)
		if nameOk && codeOk {
			if err := a.luaEngine.SavePatternCode(name, code); err != nil {
				log.Warn().Err(err).Str("name", name).Msg("could not save pattern")
				return
			}
			a.broadcastPatternList()
		}

	case core.CmdDeletePattern:
		if name, ok := cmd.Payload["name"].(string); ok {
			if err := a.luaEngine.DeletePattern(name); err != nil {
				log.Warn().Err(err).Str("name", name).Msg("could not delete pattern")
				return
			}
			a.broadcastPatternList()
		}

	default:
		log.Warn().Str("type", string(cmd.Type)).Msg("unknown command type")
	}
}

// applyMode is the single path for mode changes: it stops a running
// pattern, drives the device and records the result.
func (a *Agent) applyMode(name string, colors []protocol.Color, o modes.Options) {
	a.luaEngine.StopCurrentPattern()

	if err := a.controller.Apply(name, colors, o); err != nil {
		log.Warn().Err(err).Str("mode", name).Msg("could not apply mode")
		return
	}

	a.state.SetMode(name, colors, o)
	a.eventBus.Publish(core.Event{
		Type:    core.ModeChangedEvent,
		Payload: map[string]interface{}{"mode": name},
	})
	a.publishState()
}

func (a *Agent) setPower(isOn bool) {
	s := a.state.Clone()

	a.luaEngine.StopCurrentPattern()

	if !isOn {
		if err := a.controller.Off(); err != nil {
			log.Warn().Err(err).Msg("could not turn off")
			return
		}
		a.state.SetPower(false)
	} else {
		mode, colors := powerOnTarget(s)
		if err := a.controller.Apply(mode, colors, s.Options); err != nil {
			log.Warn().Err(err).Str("mode", mode).Msg("could not turn on")
			return
		}
		a.state.SetMode(mode, colors, s.Options)
	}

	a.eventBus.Publish(core.Event{
		Type:    core.PowerChangedEvent,
		Payload: map[string]interface{}{"isOn": isOn},
	})
	a.publishState()
}

// publishState pushes the current state to the web UI and the MQTT state
// topics.
func (a *Agent) publishState() {
	s := a.state.Clone()
	a.broadcast(server.MsgDeviceState, server.StatePayload(s))

	if a.mqttClient == nil {
		return
	}
	power := "OFF"
	if s.Power {
		power = "ON"
	}
	a.mqttClient.Publish("power/state", power, true)
	a.mqttClient.Publish("effect/state", s.Mode, true)
	if len(s.Colors) > 0 {
		a.mqttClient.Publish("color/state", s.Colors[0].String(), true)
	}
}

func (a *Agent) broadcast(msgType server.MessageType, payload interface{}) {
	if a.server != nil && a.server.Hub != nil {
		a.server.Hub.Broadcast(server.NewMessage(msgType, payload))
	}
}

func (a *Agent) broadcastPatternList() {
	patterns, err := a.luaEngine.GetPatternList()
	if err != nil {
		log.Warn().Err(err).Msg("could not list patterns")
		return
	}
	a.broadcast(server.MsgPatternList, patterns)
}

// powerOnTarget picks the mode and colors to reapply when power comes back
// on. The remembered colors are fitted to the mode's arity; spectrum_wave
// takes none, so its empty list must stay empty.
func powerOnTarget(s core.State) (string, []protocol.Color) {
	mode := s.Mode
	if mode == "" || mode == "off" {
		mode = "fixed"
	}
	return mode, fitColors(mode, s.Colors)
}

// fitColors trims or pads remembered colors so a mode switch without an
// explicit color list still satisfies the target mode's arity.
func fitColors(name string, colors []protocol.Color) []protocol.Color {
	d, err := modes.Lookup(name)
	if err != nil {
		return colors
	}
	if len(colors) > d.MaxColors {
		colors = colors[:d.MaxColors]
	}
	for len(colors) < d.MinColors {
		colors = append(colors, protocol.Color{B: 255})
	}
	return colors
}

// colorsFromPayload reads the "colors" array of "r,g,b" strings.
func colorsFromPayload(payload map[string]interface{}) ([]protocol.Color, error) {
	raw, ok := payload["colors"].([]interface{})
	if !ok {
		return nil, nil
	}
	colors := make([]protocol.Color, 0, len(raw))
	for _, item := range raw {
		s, ok := item.(string)
		if !ok {
			continue
		}
		c, err := protocol.ParseColor(s)
		if err != nil {
			return nil, err
		}
		colors = append(colors, c)
	}
	return colors, nil
}

// optionsFromPayload overlays any present option keys on top of base.
func optionsFromPayload(payload map[string]interface{}, base modes.Options) modes.Options {
	o := base
	if v, ok := payload["speed"].(float64); ok {
		o.Speed = protocol.ClampSpeed(int(v))
	}
	if v, ok := payload["backward"].(bool); ok {
		o.Direction = protocol.Forward
		if v {
			o.Direction = protocol.Backward
		}
	}
	if v, ok := payload["size"].(float64); ok {
		o.Size = int(v)
	}
	if v, ok := payload["moving"].(bool); ok {
		o.Moving = v
	}
	return o
}
