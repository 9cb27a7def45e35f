package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"prockill/internal/app"
)

func init() {
	rootCmd.AddCommand(cmdList)
}

var cmdList = &cobra.Command{
	Use:   "list",
	Short: "Print the processes that would be targeted, in termination order",
	Long: `Takes the same snapshot and matching steps as the root command and prints
the result without stopping, killing or querying service recovery settings.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := prepare(cmd)
		if err != nil {
			return err
		}
		defer logger.Sync()

		stop := startSpinner(cmd.ErrOrStderr(), " Collecting processes...")
		targets, err := controllerFactory(app.Options{Logger: logger}).Plan(cmd.Context(), cfg)
		stop()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(targets) == 0 {
			fmt.Fprintln(out, "No processes match the provided patterns")
			return nil
		}
		for _, target := range targets {
			line := fmt.Sprintf("PID %d - %s", target.Process.PID, target.Process.ExecutablePath)
			if target.Service != nil {
				line += fmt.Sprintf(" [service %s]", target.Service.Name)
			}
			fmt.Fprintln(out, line)
			if cfg.Verbose {
				fmt.Fprintf(out, "  ARGS: %s\n", target.Arguments)
			}
		}
		return nil
	},
}
