package cmd

import (
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"k8s.io/utils/clock"

	"github.com/maokus/mvmnt/engine"
	"github.com/maokus/mvmnt/logger"
	"github.com/maokus/mvmnt/note"
	"github.com/maokus/mvmnt/timing"
)

var (
	framesFPS      int
	framesDuration time.Duration
	framesBars     int
)

func init() {
	framesCmd.Flags().IntVar(&framesFPS, "fps", 30, "frames per second")
	framesCmd.Flags().DurationVar(&framesDuration, "for", 4*time.Second, "how long to run")
	framesCmd.Flags().IntVar(&framesBars, "bars", 1, "bars per window")
	rootCmd.AddCommand(framesCmd)
}

var framesCmd = &cobra.Command{
	Use:   "frames <file.mid>",
	Short: "Runs the frame pipeline against a clock",
	Long:  `Drives the engine with a wall clock at a fixed FPS and logs one line per frame.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		eng, err := newEngineFromFile(args[0], framesBars)
		cobra.CheckErr(err)
		cobra.CheckErr(runFrames(eng, clock.RealClock{}, framesFPS, framesDuration))
	},
}

func newEngineFromFile(path string, barsPerWindow int) (*engine.Engine, error) {
	src, err := note.FromFile(path)
	if err != nil {
		return nil, err
	}
	auth := timing.NewAuthority()
	if err := src.ApplyTo(auth); err != nil {
		return nil, err
	}
	return engine.New(auth, src.Notes, engine.Options{BarsPerWindow: barsPerWindow}), nil
}

// runFrames builds one frame per tick until the duration elapses. The clock
// is injected so tests can drive it with a fake.
func runFrames(eng *engine.Engine, clk clock.Clock, fps int, duration time.Duration) error {
	log := logger.GetProjectLogger()
	interval := time.Second / time.Duration(fps)
	start := clk.Now()

	for {
		elapsed := clk.Since(start)
		if elapsed >= duration {
			return nil
		}
		frame, err := eng.BuildFrame(elapsed.Seconds())
		if err != nil {
			return err
		}
		log.WithFields(logrus.Fields{
			"t":          frame.QueryTime,
			"bar":        frame.Window.FirstBar,
			"window":     frame.Window.Length(),
			"directives": len(frame.Directives),
		}).Info("frame")
		clk.Sleep(interval)
	}
}
