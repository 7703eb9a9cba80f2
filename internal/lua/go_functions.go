package lua

import (
	"context"
	"math"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/rs/zerolog/log"

	"smartdevice-controller/internal/modes"
	"smartdevice-controller/internal/protocol"
)

// registerGoFunctions exposes the device API to the given Lua state.
func (e *Engine) registerGoFunctions(L *lua.LState, ctx context.Context) {
	L.SetGlobal("set_mode", L.NewFunction(e.luaSetMode))
	L.SetGlobal("off", L.NewFunction(e.luaOff))
	L.SetGlobal("print", L.NewFunction(luaPrint))
	L.SetGlobal("sleep", L.NewFunction(luaSleep(ctx)))
	L.SetGlobal("should_stop", L.NewFunction(luaShouldStop(ctx)))

	// High-level effects built on repeated fixed commands.
	L.SetGlobal("strobe", L.NewFunction(e.luaStrobe(ctx)))
	L.SetGlobal("fade", L.NewFunction(e.luaFade(ctx)))
}

func luaPrint(L *lua.LState) int {
	log.Info().Str("source", "lua").Msg(L.ToString(1))
	return 0
}

// luaSetMode applies a catalog mode:
//
//	set_mode("fixed", {"255,0,0"})
//	set_mode("alternating", {"255,0,0", "0,0,255"}, {speed=4, size=4, moving=true})
func (e *Engine) luaSetMode(L *lua.LState) int {
	name := L.ToString(1)
	colors, err := colorsFromTable(L.OptTable(2, nil))
	if err != nil {
		L.RaiseError("set_mode: %v", err)
		return 0
	}
	opts := optionsFromTable(L.OptTable(3, nil))

	if err := e.device.Apply(name, colors, opts); err != nil {
		log.Warn().Err(err).Str("mode", name).Msg("pattern could not apply mode")
	}
	return 0
}

func (e *Engine) luaOff(L *lua.LState) int {
	if err := e.device.Off(); err != nil {
		log.Warn().Err(err).Msg("pattern could not turn leds off")
	}
	return 0
}

// colorsFromTable reads a Lua array of "r,g,b" strings.
func colorsFromTable(table *lua.LTable) ([]protocol.Color, error) {
	if table == nil {
		return nil, nil
	}
	var colors []protocol.Color
	var convErr error
	table.ForEach(func(_, value lua.LValue) {
		if convErr != nil {
			return
		}
		c, err := protocol.ParseColor(lua.LVAsString(value))
		if err != nil {
			convErr = err
			return
		}
		colors = append(colors, c)
	})
	return colors, convErr
}

// optionsFromTable reads the optional {speed, backward, size, moving} table.
func optionsFromTable(table *lua.LTable) modes.Options {
	opts := modes.Defaults()
	if table == nil {
		return opts
	}
	if v := table.RawGetString("speed"); v != lua.LNil {
		opts.Speed = protocol.ClampSpeed(int(lua.LVAsNumber(v)))
	}
	if v := table.RawGetString("backward"); lua.LVAsBool(v) {
		opts.Direction = protocol.Backward
	}
	if v := table.RawGetString("size"); v != lua.LNil {
		opts.Size = int(lua.LVAsNumber(v))
	}
	if v := table.RawGetString("moving"); lua.LVAsBool(v) {
		opts.Moving = true
	}
	return opts
}

// cancellableSleep sleeps for the duration but wakes up immediately if the
// context is cancelled. It returns true if the sleep was interrupted.
func cancellableSleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-time.After(d):
		return false
	case <-ctx.Done():
		return true
	}
}

func luaSleep(ctx context.Context) lua.LGFunction {
	return func(L *lua.LState) int {
		ms := L.ToInt(1)
		cancellableSleep(ctx, time.Duration(ms)*time.Millisecond)
		return 0
	}
}

func luaShouldStop(ctx context.Context) lua.LGFunction {
	return func(L *lua.LState) int {
		select {
		case <-ctx.Done():
			L.Push(lua.LBool(true))
		default:
			L.Push(lua.LBool(false))
		}
		return 1
	}
}

// luaStrobe flashes a color for a total duration at a given frequency (Hz):
//
//	strobe(255, 255, 255, 3000, 5)
func (e *Engine) luaStrobe(ctx context.Context) lua.LGFunction {
	return func(L *lua.LState) int {
		r, g, b := L.ToInt(1), L.ToInt(2), L.ToInt(3)
		durationMs := L.ToInt(4)
		hz := float64(L.ToNumber(5))

		color, err := protocol.NewColor(r, g, b)
		if err != nil {
			L.RaiseError("strobe: %v", err)
			return 0
		}
		if hz <= 0 {
			return 0
		}

		duration := time.Duration(durationMs) * time.Millisecond
		halfPeriod := time.Duration(1000/hz/2) * time.Millisecond
		start := time.Now()

		for time.Since(start) < duration {
			e.apply("fixed", []protocol.Color{color})
			if cancellableSleep(ctx, halfPeriod) {
				return 0
			}
			if err := e.device.Off(); err != nil {
				return 0
			}
			if cancellableSleep(ctx, halfPeriod) {
				return 0
			}
		}
		return 0
	}
}

// luaFade transitions from one color to another over a duration:
//
//	fade(255, 0, 0, 0, 0, 255, 2000)
func (e *Engine) luaFade(ctx context.Context) lua.LGFunction {
	return func(L *lua.LState) int {
		r1, g1, b1 := L.ToInt(1), L.ToInt(2), L.ToInt(3)
		r2, g2, b2 := L.ToInt(4), L.ToInt(5), L.ToInt(6)
		durationMs := L.ToInt(7)

		duration := time.Duration(durationMs) * time.Millisecond
		steps := 50
		stepDuration := duration / time.Duration(steps)

		for i := 0; i <= steps; i++ {
			progress := float64(i) / float64(steps)
			r := int(math.Round(float64(r1) + progress*float64(r2-r1)))
			g := int(math.Round(float64(g1) + progress*float64(g2-g1)))
			b := int(math.Round(float64(b1) + progress*float64(b2-b1)))

			color, err := protocol.NewColor(r, g, b)
			if err != nil {
				L.RaiseError("fade: %v", err)
				return 0
			}
			e.apply("fixed", []protocol.Color{color})

			if cancellableSleep(ctx, stepDuration) {
				return 0
			}
		}
		return 0
	}
}

func (e *Engine) apply(mode string, colors []protocol.Color) {
	if err := e.device.Apply(mode, colors, modes.Defaults()); err != nil {
		log.Warn().Err(err).Str("mode", mode).Msg("pattern could not apply mode")
	}
}
