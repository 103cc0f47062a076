package version

const (
	CLIName = "supertx"
	Version = "0.1.0"
)
