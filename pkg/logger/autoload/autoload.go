// Package autoload configures the global logger from the LOG_* environment
// variables as a side effect of being imported.
package autoload

import (
	configx "github.com/decoderlab/fleetquote/pkg/config"
	logx "github.com/decoderlab/fleetquote/pkg/logger"
)

func init() {
	logx.Init(*configx.MustNew[logx.Config]("LOG"))
}
