package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"smartdevice-controller/internal/modes"
	"smartdevice-controller/internal/protocol"
	"smartdevice-controller/internal/usb"
)

var rootCmd = &cobra.Command{
	Use:   "ledctl",
	Short: "Control the leds of an NZXT Smart Device",
	Long: `Ledctl sends a single led command to the smart device and exits.

Colors are given as comma separated decimal components, for example:
  ledctl fixed 255,0,0
  ledctl alternating --size 4 --moving 255,0,0 0,0,255
  ledctl spectrum_wave --backward --speed 4`,
	SilenceUsage: true,
}

func setVersion(version, buildTime string) {
	rootCmd.Version = version
	rootCmd.SetVersionTemplate(fmt.Sprintf("ledctl v%s (built: %s)\n", version, buildTime))
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	for _, d := range modes.Catalog {
		rootCmd.AddCommand(modeCommand(d))
	}
	rootCmd.AddCommand(listCmd)
}

// modeCommand builds one subcommand per catalog entry, registering only
// the flags that mode accepts.
func modeCommand(d modes.Descriptor) *cobra.Command {
	use := d.Name
	if d.MaxColors == 1 {
		use += " <r,g,b>"
	} else if d.MaxColors > 1 {
		use += " <r,g,b>..."
	}

	cmd := &cobra.Command{
		Use:   use,
		Short: d.Doc,
		Args:  cobra.RangeArgs(d.MinColors, d.MaxColors),
		RunE: func(cmd *cobra.Command, args []string) error {
			colors := make([]protocol.Color, 0, len(args))
			for _, arg := range args {
				c, err := protocol.ParseColor(arg)
				if err != nil {
					return err
				}
				colors = append(colors, c)
			}

			opts, err := optionsFromFlags(cmd)
			if err != nil {
				return err
			}

			pairs, err := d.Apply(colors, opts)
			if err != nil {
				return err
			}

			dev, err := usb.Open()
			if err != nil {
				return err
			}
			defer dev.Close()

			return dev.Send(pairs...)
		},
	}

	if d.HasFlag(modes.FlagSpeed) {
		cmd.Flags().Int("speed", int(protocol.SpeedNormal), "animation speed, 0 (slowest) to 4 (fastest)")
		for name, speed := range speedAliases {
			cmd.Flags().Bool(name, false, "same as --speed "+fmt.Sprint(int(speed)))
		}
		cmd.MarkFlagsMutuallyExclusive("speed", "slowest", "slow", "fast", "fastest")
	}
	if d.HasFlag(modes.FlagDirection) {
		cmd.Flags().Bool("backward", false, "play the animation backwards")
	}
	if d.HasFlag(modes.FlagSize) {
		cmd.Flags().Int("size", 3, "led row width, 3 to 6")
	}
	if d.HasFlag(modes.FlagMoving) {
		cmd.Flags().Bool("moving", false, "move the alternating rows")
	}

	return cmd
}

// speedAliases are shorthand flags for the five speed steps.
var speedAliases = map[string]protocol.Speed{
	"slowest": protocol.SpeedSlowest,
	"slow":    protocol.SpeedSlow,
	"fast":    protocol.SpeedFast,
	"fastest": protocol.SpeedFastest,
}

func optionsFromFlags(cmd *cobra.Command) (modes.Options, error) {
	opts := modes.Defaults()

	for name, speed := range speedAliases {
		if cmd.Flags().Lookup(name) == nil {
			continue
		}
		if v, _ := cmd.Flags().GetBool(name); v {
			opts.Speed = speed
		}
	}
	if cmd.Flags().Changed("speed") {
		v, err := cmd.Flags().GetInt("speed")
		if err != nil {
			return opts, err
		}
		if v < int(protocol.SpeedSlowest) || v > int(protocol.SpeedFastest) {
			return opts, fmt.Errorf("%w: speed has to be between 0 and 4", protocol.ErrInvalidParameter)
		}
		opts.Speed = protocol.Speed(v)
	}
	if cmd.Flags().Lookup("backward") != nil {
		if v, _ := cmd.Flags().GetBool("backward"); v {
			opts.Direction = protocol.Backward
		}
	}
	if cmd.Flags().Lookup("size") != nil {
		v, err := cmd.Flags().GetInt("size")
		if err != nil {
			return opts, err
		}
		opts.Size = v
	}
	if cmd.Flags().Lookup("moving") != nil {
		v, _ := cmd.Flags().GetBool("moving")
		opts.Moving = v
	}

	return opts, nil
}

var listCmd = &cobra.Command{
	Use:   "modes",
	Short: "List the available led modes",
	Run: func(cmd *cobra.Command, args []string) {
		for _, d := range modes.Catalog {
			flags := ""
			if len(d.Flags) > 0 {
				flags = " [" + strings.Join(d.Flags, ", ") + "]"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%-18s %s%s\n", d.Name, d.Doc, flags)
		}
	},
}
