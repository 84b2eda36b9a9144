package shared

import (
	"strings"

	"go.uber.org/zap"
)

// SafeSync flushes the global logger, swallowing the EINVAL/ENOTTY noise zap
// produces when stdout is a terminal rather than a file.
func SafeSync() {
	if err := zap.L().Sync(); err != nil {
		msg := err.Error()
		if strings.Contains(msg, "invalid argument") || strings.Contains(msg, "inappropriate ioctl") {
			return
		}
	}
}
