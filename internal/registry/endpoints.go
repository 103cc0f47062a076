package registry

// Default hosts for the modular execution environment.
// Quote/execute/orchestrator share one host; the explorer runs on another.
const (
	DefaultMEEBaseURL      = "https://network.biconomy.io"
	DefaultExplorerBaseURL = "https://explorer.biconomy.io"
)
