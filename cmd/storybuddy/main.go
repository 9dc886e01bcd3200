package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"codeberg.org/snonux/storybuddy/internal/cli"
	"codeberg.org/snonux/storybuddy/internal/processor"
)

func main() {
	// Create flags instance
	flags := cli.NewFlags()

	// Create root command
	rootCmd := cli.CreateRootCommand(flags)
	serveCmd := cli.CreateServeCommand(flags)
	rootCmd.AddCommand(serveCmd)

	// Set up command initialization
	cobra.OnInitialize(func() {
		cli.InitConfig(flags.CfgFile)
	})

	// Set the run functions
	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		return runCommand(cmd.Context(), args, flags)
	}
	serveCmd.RunE = func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context(), flags)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Execute command
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		cli.ReportError(os.Stderr, err)
		os.Exit(1)
	}
}

func runCommand(ctx context.Context, args []string, flags *cli.Flags) error {
	proc, err := processor.NewProcessor(ctx, flags)
	if err != nil {
		return err
	}
	defer proc.Close()

	// Handle --list-models flag
	if flags.ListModels {
		return proc.ListModels(ctx)
	}

	if flags.Archive {
		return proc.Archive()
	}

	switch {
	case flags.BatchFile != "":
		if err := proc.ProcessBatch(ctx); err != nil {
			return err
		}
	case len(args) > 0:
		if err := proc.ProcessTopic(ctx, args[0]); err != nil {
			return err
		}
	default:
		// No input provided - launch GUI mode by default
		return proc.RunGUIMode()
	}

	fmt.Printf("\nDone! Stories saved to: %s\n", flags.OutputDir)
	return nil
}

func runServe(ctx context.Context, flags *cli.Flags) error {
	proc, err := processor.NewProcessor(ctx, flags)
	if err != nil {
		return err
	}
	defer proc.Close()

	return proc.Serve(ctx)
}
