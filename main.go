/* main.go */

package main

import (
	"github.com/steadyops/botstrap/cmd"
	"github.com/steadyops/botstrap/pkg/logger"
	"github.com/steadyops/botstrap/pkg/shared"
	"github.com/steadyops/botstrap/pkg/telemetry"
)

func main() {
	logger.InitializeWithFallback()

	if err := telemetry.Init(shared.AppID); err != nil {
		logger.GetLogger().Warn("telemetry init failed: " + err.Error())
	}

	cmd.Execute()
}
