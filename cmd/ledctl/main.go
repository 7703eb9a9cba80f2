// Ledctl drives the smart device leds directly over USB, one command at a
// time, without the agent running.
package main

var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	setVersion(version, buildTime)
	execute()
}
