package ir

// Version constants for the record layout and the validator.
const (
	// LayoutVersion is the byte layout version of configuration and state.
	LayoutVersion = "1"

	// EngineVersion is the validator version recorded in journal entries.
	EngineVersion = "0.1.0"
)
