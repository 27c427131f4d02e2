package cli

// Flags holds all command-line flag values
type Flags struct {
	// Global flags
	CfgFile   string
	EnvFile   string
	Provider  string
	Workspace string
	Quiet     bool

	// Buffer command flags
	Selections []string

	// configure
	APIKey string

	// serve
	Addr string
}

// NewFlags creates a new Flags instance with default values
func NewFlags() *Flags {
	return &Flags{}
}
