package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/martin-sucha/zipreader"
)

func buildListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list [archive]",
		Short: "Print the archive comment and one line per entry",
		Args:  cobra.ExactArgs(1),
		RunE:  runList,
	}
}

// archiveSize reports the size of path on disk.
func archiveSize(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

func runList(_ *cobra.Command, args []string) error {
	size, err := archiveSize(args[0])
	if err != nil {
		return fmt.Errorf("zipreader: %w", err)
	}
	fmt.Printf("archive: %s (%d bytes)\n", args[0], size)

	view, err := zipreader.Open(args[0])
	if err != nil {
		return fmt.Errorf("zipreader: %w", err)
	}
	defer view.Close()

	for entity, err := range view.Entities() {
		if err != nil {
			return fmt.Errorf("zipreader: %w", err)
		}
		switch entity.Kind {
		case zipreader.EntityArchiveComment:
			if entity.Comment != "" {
				fmt.Printf("comment: %s\n", entity.Comment)
			}
		case zipreader.EntityFile:
			e := entity.Entry
			kind := "file"
			if e.IsDirectory {
				kind = "dir"
			}
			fmt.Printf("%5s %12d %12d %-10s %s  %s\n",
				kind, e.CompressedSize, e.UncompressedSize, e.Method,
				e.Modified.Format("2006-01-02 15:04"), e.Name)
		}
	}
	return nil
}
