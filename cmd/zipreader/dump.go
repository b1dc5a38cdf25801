package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/martin-sucha/zipreader"
	zdump "github.com/martin-sucha/zipreader/dump"
)

func buildDumpCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "dump [archive]",
		Short: "Trace the parse of an archive's structural records",
		Args:  cobra.ExactArgs(1),
		RunE:  runDump,
	}
}

func runDump(_ *cobra.Command, args []string) error {
	view, err := zipreader.Open(args[0], zipreader.WithObserver(zdump.Observer{W: os.Stdout}))
	if err != nil {
		return fmt.Errorf("zipreader: %w", err)
	}
	defer view.Close()

	for _, err := range view.Entities() {
		if err != nil {
			return fmt.Errorf("zipreader: %w", err)
		}
	}
	return nil
}
