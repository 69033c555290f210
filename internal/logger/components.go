package logger

// Component names used with For.
const (
	ComponentCLI       = "cli"
	ComponentResolver  = "resolver"
	ComponentDiscovery = "discovery"
	ComponentTransform = "transform"
	ComponentPackage   = "package"
	ComponentInstall   = "install"
	ComponentLock      = "lock"
	ComponentConfig    = "config"
)
