package server

// MessageType names the kinds of messages the server pushes to clients.
type MessageType string

const (
	// MsgDeviceStatus reports whether the smart device is on the bus.
	MsgDeviceStatus MessageType = "device_status"
	// MsgDeviceState carries the led state snapshot (StatePayload).
	MsgDeviceState MessageType = "device_state"
	// MsgModeCatalog lists the available led modes and their parameters.
	MsgModeCatalog MessageType = "mode_catalog"
	// MsgPatternList names the saved Lua pattern files.
	MsgPatternList MessageType = "pattern_list"
	// MsgPatternStatus names the running pattern, empty when idle.
	MsgPatternStatus MessageType = "pattern_status"
	// MsgPatternCode carries the source of one pattern file.
	MsgPatternCode MessageType = "pattern_code"
	// MsgScheduleList carries the cron schedule table.
	MsgScheduleList MessageType = "schedule_list"
)

// Command is a led command as received from a WebSocket client. Type maps
// onto the agent's command types.
type Command struct {
	Type    string                 `json:"type"`
	Payload map[string]interface{} `json:"payload"`
}

// Message is the outgoing envelope broadcast to WebSocket clients. Raw
// holds the undecoded client bytes when a message travels inbound to the
// command handler instead.
type Message struct {
	Type    MessageType `json:"type"`
	Payload interface{} `json:"payload"`
	Raw     []byte      `json:"-"`
}

// NewMessage wraps a payload under its message kind for broadcasting.
func NewMessage(msgType MessageType, payload interface{}) Message {
	return Message{Type: msgType, Payload: payload}
}
