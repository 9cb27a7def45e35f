package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"prockill/internal/app"
	"prockill/internal/tui"
)

func init() {
	rootCmd.AddCommand(cmdTUI)
}

var cmdTUI = &cobra.Command{
	Use:   "tui",
	Short: "Browse the targets interactively without acting on them",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := prepare(cmd)
		if err != nil {
			return err
		}
		defer logger.Sync()

		if err := tui.Run(controllerFactory(app.Options{Logger: logger}), cfg); err != nil {
			return fmt.Errorf("tui exited with error: %w", err)
		}
		return nil
	},
}
