package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/maokus/mvmnt/note"
	"github.com/maokus/mvmnt/timing"
)

func init() {
	rootCmd.AddCommand(inspectCmd)
}

var inspectCmd = &cobra.Command{
	Use:   "inspect <file.mid>",
	Short: "Prints a MIDI file's timing snapshot",
	Long:  `Prints a MIDI file's note count, tempo map, time signature and duration.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cobra.CheckErr(inspect(args[0]))
	},
}

func inspect(path string) error {
	src, err := note.FromFile(path)
	if err != nil {
		return err
	}

	fmt.Printf("notes: %v\n", len(src.Notes))
	fmt.Printf("ticks per quarter: %v\n", src.TicksPerQuarter)
	fmt.Printf("time signature: %v/%v\n", src.TimeSignature.Numerator, src.TimeSignature.Denominator)
	fmt.Printf("tempo changes: %v\n", len(src.TempoMap))
	for _, tc := range src.TempoMap {
		fmt.Printf("  tick %8.0f: %.0f us/quarter (%.2f bpm)\n", tc.At, tc.MicrosPerQuarter, 60e6/tc.MicrosPerQuarter)
	}

	auth := timing.NewAuthority()
	if err := src.ApplyTo(auth); err != nil {
		return err
	}
	var end float64
	for _, n := range src.Notes {
		if n.End > end {
			end = n.End
		}
	}
	fmt.Printf("duration: %.3fs (%.1f bars)\n", end, auth.SecondsToBeats(end)/float64(auth.BeatsPerBar()))
	return nil
}
