package main

import "github.com/spf13/cobra"

var version = "dev"

func buildRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "zipreader",
		Version: version,
		Short:   "Inspect and extract ZIP/ZIP64 archives",
		Long: `zipreader reads PKWARE .ZIP archives, including the ZIP64 extension,
without buffering the whole file in memory.

Commands:
  list     Print the archive comment and one line per entry
  extract  Extract entries to a destination directory
  dump     Trace the parse of an archive's structural records

zipreader never modifies an archive: it only reads.`,
	}
	return cmd
}
