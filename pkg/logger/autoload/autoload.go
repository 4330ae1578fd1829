// Package autoload initializes the global logger from the LOG_* environment
// when blank-imported.
package autoload

import (
	configx "github.com/hampiwasi/intake/pkg/config"
	logx "github.com/hampiwasi/intake/pkg/logger"
)

func init() {
	logx.Init(*configx.MustNew[logx.Config]("LOG"))
}
