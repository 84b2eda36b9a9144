// pkg/shared/constants.go

package shared

const (
	AppID   = "botstrap"
	Version = "0.3.1"
)

const (
	LogDir  = "/var/log/botstrap/"
	Logs    = LogDir + "botstrap.log"
	LogsPWD = "./botstrap.log"
)

const (
	// Permission modes (in octal)
	DirPermStandard        = 0755
	DirPermOwnerOnly       = 0700
	FilePermStandard       = 0644
	FilePermOwnerReadWrite = 0600
)

const (
	// Where the state marker files for opt-in telemetry live, under $HOME.
	StateDirName = ".botstrap"
)
