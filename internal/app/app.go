// Package app contains application bootstrap
package app

import (
	"time"

	"go.uber.org/fx"

	"github.com/Marinerbyte/Ytmagic/config"
	"github.com/Marinerbyte/Ytmagic/internal/domain"
	"github.com/Marinerbyte/Ytmagic/internal/infrastructure"
)

const (
	// yt-dlp may be downloaded on first start
	startTimeout = 10 * time.Minute
	// in-flight uploads get the default upload timeout to finish
	stopTimeout = 6 * time.Minute
)

// CreateApp creates fx application with all modules
func CreateApp() fx.Option {
	return fx.Options(
		fx.StartTimeout(startTimeout),
		fx.StopTimeout(stopTimeout),

		// Configuration
		fx.Provide(config.Out),

		// Infrastructure (logger, metrics, telegram bot, http server, database, redis)
		infrastructure.Module,

		// Domain (media download pipeline)
		domain.Module,
	)
}
