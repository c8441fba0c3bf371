package config

// Version is the riskmesh binary version.
// Set at build time via: -ldflags "-X github.com/riskmesh/riskmesh/internal/config.Version=<tag>"
// Defaults to "dev" when built without ldflags.
var Version = "dev"
