package env

const AppName = "findcrypt"

// Set at build time through -ldflags "-X".
var (
	Version    = "dev"
	CommitHash = "unknown"
	BuildTime  = "unknown"
)
