package tablegen

import "os"

// ShowHelp prints usage information for the table generator.
func ShowHelp() {
	os.Stdout.WriteString(`Loot Table Generator
====================

Writes a synthetic item lottery export document for smoke testing lootscale.

Usage:
  go run ./cmd/gen-table [options]

Options:
  -rows int
        Number of rows to generate (default 1000)
  -table string
        Data table export name (default "DT_ItemLotteryData")
  -engine string
        Engine version stamped on the document (default "VER_UE5_1")
  -workers int
        Number of concurrent generators (default 4)
  -uuid
        Name rows with UUIDs instead of sequence numbers
  -output string
        Output file (default "DT_ItemLotteryData.uasset.json")
  -help
        Show this help message

Examples:
  # Generate a table next to a config for a dry run
  go run ./cmd/gen-table -rows 5000 -output exports/DT_ItemLotteryData.uasset.json
  LOOTSCALE_EXPORTS_DIR=exports go run ./cmd -dry-run
`)
}
