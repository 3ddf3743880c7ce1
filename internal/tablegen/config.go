package tablegen

// Config holds configuration for the table generator.
type Config struct {
	Rows          int    // Number of rows to generate
	Table         string // Export object name of the data table
	EngineVersion string // Engine version stamped on the document
	Workers       int    // Number of concurrent generators
	UUIDNames     bool   // Name rows with UUIDs instead of sequence numbers
	Output        string // Output file for the document
}

// Stats counts generated rows per archetype.
type Stats struct {
	Rows       int
	Currency   int
	Expedition int
	Excluded   int
	Blueprint  int
	Unrelated  int
}

// DefaultConfig returns the generator defaults.
func DefaultConfig() Config {
	return Config{
		Rows:          defaultRows,
		Table:         "DT_ItemLotteryData",
		EngineVersion: "VER_UE5_1",
		Workers:       defaultWorkers,
		Output:        "DT_ItemLotteryData.uasset.json",
	}
}
