// Точка входа Structure Service — сервиса ингестии и валидации
// структурных файлов для молекулярного вьювера.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/bigkaa/molview/structure-service/internal/api/handlers"
	"github.com/bigkaa/molview/structure-service/internal/api/middleware"
	"github.com/bigkaa/molview/structure-service/internal/config"
	"github.com/bigkaa/molview/structure-service/internal/dbclient"
	"github.com/bigkaa/molview/structure-service/internal/registry"
	"github.com/bigkaa/molview/structure-service/internal/server"
	"github.com/bigkaa/molview/structure-service/internal/service"
	"github.com/bigkaa/molview/structure-service/internal/viewer"
)

func main() {
	// Загрузка конфигурации из переменных окружения
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ошибка конфигурации: %v\n", err)
		os.Exit(1)
	}

	// Настройка логгера
	logger := config.SetupLogger(cfg)
	logger.Info("Structure Service запускается",
		slog.String("service_id", cfg.ServiceID),
		slog.String("version", config.Version),
		slog.Int("port", cfg.Port),
		slog.Int64("max_file_size", cfg.MaxFileSize),
	)

	// --- Инициализация компонентов ---

	// 1. In-memory реестр структур
	reg := registry.New(logger)

	// 2. Конечные автоматы вьювера
	animation := viewer.NewAnimation()
	measurement := viewer.NewMeasurement()

	// 3. Сервисы
	ingestSvc := service.NewIngestService(cfg.MaxFileSize, reg, logger)
	dbClient := dbclient.New(cfg.FetchBaseURL, cfg.FetchTimeout, cfg.MaxFileSize, logger)
	fetchSvc := service.NewFetchService(ingestSvc, dbClient, cfg.FetchCacheSize, cfg.FetchCacheTTL, logger)

	// 4. topologymetrics — мониторинг внешней базы структур
	ctx := context.Background()
	hostname, _ := os.Hostname()
	dephealthSvc, dephealthErr := service.NewDephealthService(
		resolveDephealthName(cfg.DephealthName, hostname, cfg.ServiceID),
		cfg.DephealthGroup,
		cfg.DephealthDepName,
		cfg.FetchBaseURL,
		cfg.DephealthCheckInterval,
		logger,
	)
	if dephealthErr != nil {
		logger.Warn("topologymetrics недоступен, запуск без мониторинга зависимостей",
			slog.String("error", dephealthErr.Error()),
		)
	} else {
		if startErr := dephealthSvc.Start(ctx); startErr != nil {
			logger.Warn("Ошибка запуска topologymetrics",
				slog.String("error", startErr.Error()),
			)
		} else {
			logger.Info("topologymetrics запущен",
				slog.String("fetch_base_url", cfg.FetchBaseURL),
				slog.String("check_interval", cfg.DephealthCheckInterval.String()),
			)
		}
	}

	// 5. Handlers
	h := server.Handlers{
		Structures: handlers.NewStructuresHandler(ingestSvc, fetchSvc, reg),
		Viewer:     handlers.NewViewerHandler(animation, measurement),
		System:     handlers.NewSystemHandler(cfg, reg),
		Health:     handlers.NewHealthHandler(reg),
	}

	// 6. Middleware: метрики и логирование — всегда, JWT — опционально
	middlewares := []func(http.Handler) http.Handler{
		middleware.MetricsMiddleware(),
		middleware.RequestLogger(logger),
	}

	if cfg.JWKSUrl != "" {
		jwtAuth, jwtErr := middleware.NewJWTAuth(middleware.JWTAuthConfig{
			JWKSURL:         cfg.JWKSUrl,
			CACertPath:      cfg.JWKSCACert,
			ClientTimeout:   10 * time.Second,
			RefreshInterval: time.Hour,
			JWTLeeway:       time.Minute,
		}, logger)
		if jwtErr != nil {
			// JWT недоступен — запускаем без аутентификации (для разработки)
			logger.Warn("JWT JWKS недоступен, запуск без аутентификации",
				slog.String("jwks_url", cfg.JWKSUrl),
				slog.String("error", jwtErr.Error()),
			)
		} else {
			// Health и метрики доступны без токена (Kubernetes probes, Prometheus)
			middlewares = append(middlewares, server.JWTAuthWithExclusions(
				jwtAuth.Middleware(),
				"/health/",
				"/metrics",
			))
			logger.Info("JWT аутентификация настроена",
				slog.String("jwks_url", cfg.JWKSUrl),
			)
		}
	} else {
		logger.Info("SV_JWKS_URL не задан, запуск без аутентификации")
	}

	// 7. Создание и запуск HTTP-сервера (блокирующий вызов)
	srv := server.New(cfg, logger, h, middlewares...)

	if err := srv.Run(); err != nil {
		logger.Error("Ошибка сервера", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// --- Graceful shutdown фоновых процессов ---
	if dephealthSvc != nil {
		dephealthSvc.Stop()
	}

	logger.Info("Structure Service остановлен")
}
