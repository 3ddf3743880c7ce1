package tablegen

// Generator defaults.
const (
	defaultRows    = 1000
	defaultWorkers = 4
)

// Value ranges for generated rows.
const (
	randomDivisor  = 1000000
	minNumMax      = 50
	maxNumSpread   = 100
	unitMax        = 10
	weightMin      = 0.5
	weightRange    = 20.0
	filePermission = 0o644
)
