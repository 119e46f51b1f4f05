package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "mvmnt",
	Short: "Piano-roll timing engine",
	Long:  `Computes windows, note segments and lifecycle phases for a looping piano-roll visualization.`,
}

func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}
