// health.go — обработчики health endpoints для Kubernetes probes.
package handlers

import (
	"net/http"
	"time"

	"github.com/bigkaa/molview/structure-service/internal/config"
	"github.com/bigkaa/molview/structure-service/internal/registry"
)

// HealthHandler реализует health endpoints: /health/live, /health/ready.
type HealthHandler struct {
	version string
	reg     *registry.Registry
}

// NewHealthHandler создаёт обработчик health endpoints.
func NewHealthHandler(reg *registry.Registry) *HealthHandler {
	return &HealthHandler{
		version: config.Version,
		reg:     reg,
	}
}

// HealthLive обрабатывает GET /health/live.
// Возвращает 200, если процесс жив. Не проверяет зависимости.
func (h *HealthHandler) HealthLive(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"version":   h.version,
		"service":   "structure-service",
	})
}

// HealthReady обрабатывает GET /health/ready.
// Состояние сервиса целиком в памяти, внешних зависимостей для
// готовности нет: внешняя база структур не критична (загрузка файлов
// работает и без неё, её состояние видно в dephealth-метриках).
func (h *HealthHandler) HealthReady(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"version":   h.version,
		"service":   "structure-service",
		"checks": map[string]any{
			"registry": map[string]any{
				"status":     "ok",
				"structures": h.reg.Count(),
			},
		},
	})
}
