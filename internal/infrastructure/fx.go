// Package infrastructure contains infrastructure layer components
package infrastructure

import (
	"go.uber.org/fx"

	"github.com/Marinerbyte/Ytmagic/internal/infrastructure/database"
	"github.com/Marinerbyte/Ytmagic/internal/infrastructure/http"
	"github.com/Marinerbyte/Ytmagic/internal/infrastructure/logger"
	"github.com/Marinerbyte/Ytmagic/internal/infrastructure/metrics"
	"github.com/Marinerbyte/Ytmagic/internal/infrastructure/redis"
	"github.com/Marinerbyte/Ytmagic/internal/infrastructure/telegram"
)

// Module provides all infrastructure components for fx dependency injection
var Module = fx.Module("infrastructure",
	logger.Module,
	metrics.Module,
	telegram.Module,
	http.Module,
	database.Module,
	redis.Module,
)
