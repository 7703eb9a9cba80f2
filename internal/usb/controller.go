package usb

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"smartdevice-controller/internal/core"
	"smartdevice-controller/internal/modes"
	"smartdevice-controller/internal/protocol"
)

// Controller keeps the smart device connection alive for the agent and
// applies led modes as they are requested. Commands are serialized; the
// rate limiter keeps bursts of remote commands from flooding the firmware.
type Controller struct {
	ctx      context.Context
	eventBus *core.EventBus

	mu  sync.RWMutex
	dev *Device

	retryDelay time.Duration
	limiter    *rate.Limiter

	// disconnectChan signals that a write failed and the handle should be
	// reopened. Buffered so senders never block.
	disconnectChan chan struct{}
}

// NewController creates a new USB controller.
func NewController(ctx context.Context, eventBus *core.EventBus, retryDelay time.Duration, rateLimit float64, rateBurst int) *Controller {
	return &Controller{
		ctx:            ctx,
		eventBus:       eventBus,
		retryDelay:     retryDelay,
		limiter:        rate.NewLimiter(rate.Limit(rateLimit), rateBurst),
		disconnectChan: make(chan struct{}, 1),
	}
}

// Run manages the device connection until the context is done.
func (c *Controller) Run(ctx context.Context) {
	c.publishConnection(false)

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("USB controller shutting down")
			c.closeDevice()
			return
		default:
		}

		dev, err := Open()
		if err != nil {
			log.Warn().Err(err).Msg("smart device not available, retrying")
			select {
			case <-ctx.Done():
				return
			case <-time.After(c.retryDelay):
			}
			continue
		}

		// Drain a stale disconnect signal before watching the new handle.
		select {
		case <-c.disconnectChan:
		default:
		}

		c.setDevice(dev)
		log.Info().Msgf("smart device %04x:%04x connected", VendorID, ProductID)
		c.publishConnection(true)

		select {
		case <-ctx.Done():
			c.closeDevice()
			return
		case <-c.disconnectChan:
			log.Warn().Msg("smart device write failed, reopening")
			c.closeDevice()
			c.publishConnection(false)
			select {
			case <-ctx.Done():
				return
			case <-time.After(c.retryDelay):
			}
		}
	}
}

// Apply resolves a catalog mode and sends its frame pairs to the device.
func (c *Controller) Apply(name string, colors []protocol.Color, o modes.Options) error {
	pairs, err := modes.Apply(name, colors, o)
	if err != nil {
		return err
	}
	return c.send(pairs)
}

// Off turns all leds off.
func (c *Controller) Off() error {
	return c.send([]protocol.FramePair{protocol.OffFrames()})
}

// Connected reports whether a device handle is currently open.
func (c *Controller) Connected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.dev != nil
}

func (c *Controller) send(pairs []protocol.FramePair) error {
	c.mu.RLock()
	dev := c.dev
	c.mu.RUnlock()
	if dev == nil {
		return ErrNotConnected
	}

	if err := c.limiter.Wait(c.ctx); err != nil {
		return err
	}
	if err := dev.Send(pairs...); err != nil {
		c.signalDisconnect()
		return err
	}
	return nil
}

func (c *Controller) setDevice(dev *Device) {
	c.mu.Lock()
	c.dev = dev
	c.mu.Unlock()
}

func (c *Controller) closeDevice() {
	c.mu.Lock()
	dev := c.dev
	c.dev = nil
	c.mu.Unlock()
	if dev != nil {
		if err := dev.Close(); err != nil {
			log.Warn().Err(err).Msg("closing smart device")
		}
	}
}

// signalDisconnect safely notifies the Run loop about a dead handle.
func (c *Controller) signalDisconnect() {
	select {
	case c.disconnectChan <- struct{}{}:
	default:
	}
}

func (c *Controller) publishConnection(connected bool) {
	if c.eventBus == nil {
		return
	}
	c.eventBus.Publish(core.Event{
		Type:    core.DeviceConnectedEvent,
		Payload: map[string]interface{}{"connected": connected},
	})
}
