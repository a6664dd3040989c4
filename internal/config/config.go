// Package config collects the runtime knobs the daemon's cobra
// command surfaces as flags: where the backing store lives, how the
// filesystem logs, and the identity used to seed a fresh root.
package config

// Config holds the resolved set of daemon options.
type Config struct {
	Mountpoint string
	StorePath  string
	LogFile    string
	Debug      bool

	RootUID uint32
	RootGID uint32
}

// Default returns a Config with the daemon's baseline settings; the
// cobra command overrides fields from flags before use.
func Default() Config {
	return Config{
		StorePath: "myfs.db",
		LogFile:   "myfs.log",
	}
}
