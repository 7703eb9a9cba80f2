package core

// CommandType defines the type of command being dispatched.
type CommandType string

const (
	CmdSetMode         CommandType = "setMode"
	CmdSetColor        CommandType = "setColor"
	CmdSetPower        CommandType = "setPower"
	CmdRunPattern      CommandType = "runPattern"
	CmdStopPattern     CommandType = "stopPattern"
	CmdAddSchedule     CommandType = "addSchedule"
	CmdRemoveSchedule  CommandType = "removeSchedule"
	CmdGetPatternCode  CommandType = "getPatternCode"
	CmdSavePatternCode CommandType = "savePatternCode"
	CmdDeletePattern   CommandType = "deletePattern"
)

// Command is the envelope for incoming requests to change state or perform actions.
type Command struct {
	Type    CommandType
	Payload map[string]interface{}
}

// CommandChannel is the single channel that the core Agent listens to for commands.
type CommandChannel chan Command
