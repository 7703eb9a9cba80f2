// Package mqtt connects the agent to an MQTT broker and announces the led
// controller to Home Assistant via MQTT discovery.
package mqtt

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"

	"smartdevice-controller/internal/config"
	"smartdevice-controller/internal/core"
	"smartdevice-controller/internal/modes"
)

// Client wraps the paho MQTT client and translates broker messages into
// agent commands.
type Client struct {
	client         mqtt.Client
	cfg            *config.Config
	commandChannel core.CommandChannel
	getPatterns    func() ([]string, error)
	prefix         string
}

// NewClient creates a client with reconnect handling. It returns nil when
// MQTT is disabled in the configuration.
func NewClient(cfg *config.Config, cmdChan core.CommandChannel, getPatterns func() ([]string, error)) *Client {
	if !cfg.MQTT.Enabled {
		return nil
	}

	prefix := strings.TrimSuffix(cfg.MQTT.TopicPrefix, "/")

	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.MQTT.Broker)
	opts.SetClientID(cfg.MQTT.ClientID)
	opts.SetUsername(cfg.MQTT.Username)
	opts.SetPassword(cfg.MQTT.Password)

	opts.SetKeepAlive(10 * time.Second)
	opts.SetPingTimeout(5 * time.Second)

	opts.SetAutoReconnect(true)
	opts.SetMaxReconnectInterval(1 * time.Minute)

	// Keep trying at startup even if the broker is still coming up.
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)

	opts.SetOrderMatters(false)

	// LWT: the broker reports us offline if we die.
	opts.SetWill(prefix+"/availability", "offline", 1, true)

	c := &Client{
		cfg:            cfg,
		commandChannel: cmdChan,
		getPatterns:    getPatterns,
		prefix:         prefix,
	}

	opts.SetOnConnectHandler(c.onConnect)

	opts.SetConnectionLostHandler(func(client mqtt.Client, err error) {
		log.Warn().Err(err).Msg("mqtt connection lost, retrying in background")
	})

	opts.SetReconnectingHandler(func(client mqtt.Client, options *mqtt.ClientOptions) {
		log.Info().Msg("mqtt attempting to reconnect")
	})

	c.client = mqtt.NewClient(opts)

	return c
}

// Connect initiates the connection.
func (c *Client) Connect() error {
	if c.client == nil {
		return nil
	}
	log.Info().Str("broker", c.cfg.MQTT.Broker).Msg("mqtt starting connection loop")

	token := c.client.Connect()
	if token.Wait() && token.Error() != nil {
		log.Warn().Err(token.Error()).Msg("mqtt initial connection failed")
		return token.Error()
	}

	return nil
}

// Disconnect publishes the offline status and closes the socket.
func (c *Client) Disconnect() {
	if c.client != nil && c.client.IsConnected() {
		log.Info().Msg("mqtt disconnecting")

		token := c.client.Publish(c.prefix+"/availability", 0, true, "offline")
		if token.WaitTimeout(2 * time.Second) {
			if token.Error() != nil {
				log.Warn().Err(token.Error()).Msg("mqtt failed to publish offline status")
			}
		} else {
			log.Warn().Msg("mqtt timed out publishing offline status")
		}

		c.client.Disconnect(250)
		log.Info().Msg("mqtt disconnected")
	}
}

// Publish sends a payload under the configured topic prefix.
func (c *Client) Publish(subtopic string, payload interface{}, retained bool) {
	if c.client == nil || !c.client.IsConnected() {
		return
	}

	topic := fmt.Sprintf("%s/%s", c.prefix, subtopic)
	msg := fmt.Sprintf("%v", payload)

	token := c.client.Publish(topic, 0, retained, msg)

	go func() {
		if token.WaitTimeout(5 * time.Second) {
			if token.Error() != nil {
				log.Warn().Err(token.Error()).Str("topic", topic).Msg("mqtt publish failed")
			}
		} else {
			log.Warn().Str("topic", topic).Msg("mqtt publish timed out")
		}
	}()
}

// onConnect is called by paho from its internal event goroutine.
func (c *Client) onConnect(client mqtt.Client) {
	log.Info().Msg("mqtt connected to broker")

	topics := map[string]mqtt.MessageHandler{
		"power/set":    c.handlePower,
		"color/set":    c.handleColor,
		"effect/set":   c.handleEffect,
		"mode/set":     c.handleMode,
		"pattern/run":  c.handlePatternRun,
		"pattern/stop": c.handlePatternStop,
	}

	for sub, handler := range topics {
		topic := fmt.Sprintf("%s/%s", c.prefix, sub)
		if token := client.Subscribe(topic, 1, handler); token.Wait() && token.Error() != nil {
			log.Warn().Err(token.Error()).Str("topic", topic).Msg("mqtt subscribe failed")
		} else {
			log.Debug().Str("topic", topic).Msg("mqtt subscribed")
		}
	}

	go func() {
		c.Publish("availability", "online", true)
		if c.cfg.MQTT.HADiscoveryEnabled {
			c.PublishHADiscovery()
		}
	}()
}

// PublishHADiscovery announces the light entity to Home Assistant. The
// effect list is the mode catalog followed by the saved pattern scripts.
func (c *Client) PublishHADiscovery() {
	// Give the subscriptions a moment to settle.
	time.Sleep(1 * time.Second)

	effects := modes.Names()
	if c.getPatterns != nil {
		patterns, err := c.getPatterns()
		if err != nil {
			log.Warn().Err(err).Msg("mqtt could not list patterns for discovery")
		} else {
			effects = append(effects, patterns...)
		}
	}

	safeID := strings.ReplaceAll(c.cfg.MQTT.ClientID, " ", "_")
	safeID = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' || r == '-' {
			return r
		}
		return -1
	}, safeID)

	discoveryTopic := fmt.Sprintf("%s/light/%s/light/config", c.cfg.MQTT.HADiscoveryPrefix, safeID)

	payload := map[string]interface{}{
		"name":      "Light",
		"unique_id": safeID + "_light",
		"object_id": safeID,
		"icon":      "mdi:led-strip",

		"command_topic": fmt.Sprintf("%s/power/set", c.prefix),
		"state_topic":   fmt.Sprintf("%s/power/state", c.prefix),

		"rgb_command_topic": fmt.Sprintf("%s/color/set", c.prefix),
		"rgb_state_topic":   fmt.Sprintf("%s/color/state", c.prefix),

		"effect_command_topic": fmt.Sprintf("%s/effect/set", c.prefix),
		"effect_state_topic":   fmt.Sprintf("%s/effect/state", c.prefix),
		"effect_list":          effects,

		"availability_mode": "all",
		"availability": []map[string]string{
			{
				"topic":                 fmt.Sprintf("%s/availability", c.prefix),
				"payload_available":     "online",
				"payload_not_available": "offline",
			},
			{
				"topic":                 fmt.Sprintf("%s/connection", c.prefix),
				"payload_available":     "connected",
				"payload_not_available": "disconnected",
			},
		},

		"device": map[string]interface{}{
			"identifiers":  []string{safeID},
			"name":         "NZXT Smart Device",
			"manufacturer": "NZXT",
			"model":        "H500i led and fan controller",
			"sw_version":   "1.0",
		},
	}

	jsonPayload, _ := json.Marshal(payload)
	c.client.Publish(discoveryTopic, 0, true, jsonPayload)
	log.Info().Str("topic", discoveryTopic).Msg("mqtt HA discovery sent")
}

// --- Handlers: translate broker messages into agent commands ---

func (c *Client) handlePower(client mqtt.Client, msg mqtt.Message) {
	payload := strings.ToLower(string(msg.Payload()))
	var isOn bool
	switch payload {
	case "on", "true", "1":
		isOn = true
	case "off", "false", "0":
		isOn = false
	default:
		return
	}

	c.commandChannel <- core.Command{
		Type:    core.CmdSetPower,
		Payload: map[string]interface{}{"isOn": isOn},
	}
}

func (c *Client) handleColor(client mqtt.Client, msg mqtt.Message) {
	payload := strings.TrimSpace(string(msg.Payload()))

	var r, g, b int
	if strings.HasPrefix(payload, "#") || len(payload) == 6 && !strings.Contains(payload, ",") {
		cleanHex := strings.TrimPrefix(payload, "#")
		if _, err := fmt.Sscanf(cleanHex, "%02x%02x%02x", &r, &g, &b); err != nil {
			return
		}
		payload = fmt.Sprintf("%d,%d,%d", r, g, b)
	}

	c.commandChannel <- core.Command{
		Type:    core.CmdSetColor,
		Payload: map[string]interface{}{"color": payload},
	}
}

// handleEffect receives a name from the HA effect list: either a catalog
// mode (reapplied with the current colors) or a pattern script.
func (c *Client) handleEffect(client mqtt.Client, msg mqtt.Message) {
	name := strings.TrimSpace(string(msg.Payload()))
	if name == "" {
		return
	}
	if strings.HasSuffix(name, ".lua") {
		c.commandChannel <- core.Command{
			Type:    core.CmdRunPattern,
			Payload: map[string]interface{}{"name": name},
		}
		return
	}
	c.commandChannel <- core.Command{
		Type:    core.CmdSetMode,
		Payload: map[string]interface{}{"mode": name},
	}
}

// handleMode receives "name [r,g,b ...]" and applies the mode with the
// given colors.
func (c *Client) handleMode(client mqtt.Client, msg mqtt.Message) {
	parts := strings.Fields(string(msg.Payload()))
	if len(parts) == 0 {
		return
	}
	colors := make([]interface{}, 0, len(parts)-1)
	for _, p := range parts[1:] {
		colors = append(colors, p)
	}
	c.commandChannel <- core.Command{
		Type: core.CmdSetMode,
		Payload: map[string]interface{}{
			"mode":   parts[0],
			"colors": colors,
		},
	}
}

func (c *Client) handlePatternRun(client mqtt.Client, msg mqtt.Message) {
	c.commandChannel <- core.Command{
		Type:    core.CmdRunPattern,
		Payload: map[string]interface{}{"name": string(msg.Payload())},
	}
}

func (c *Client) handlePatternStop(client mqtt.Client, msg mqtt.Message) {
	c.commandChannel <- core.Command{Type: core.CmdStopPattern}
}
