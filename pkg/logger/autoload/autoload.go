// Package autoload initializes the global logger from LOG_* environment
// variables on import:
//
//	import _ "github.com/supportops/triage-pipeline/pkg/logger/autoload"
package autoload

import (
	configx "github.com/supportops/triage-pipeline/pkg/config"
	logx "github.com/supportops/triage-pipeline/pkg/logger"
)

func init() {
	logx.Init(*configx.MustNew[logx.Config]("LOG"))
}
