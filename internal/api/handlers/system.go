// system.go — обработчик системной информации Structure Service.
package handlers

import (
	"net/http"
	"time"

	"github.com/bigkaa/molview/structure-service/internal/config"
	"github.com/bigkaa/molview/structure-service/internal/domain/model"
	"github.com/bigkaa/molview/structure-service/internal/registry"
)

// SystemHandler реализует GET /api/v1/info.
type SystemHandler struct {
	cfg       *config.Config
	reg       *registry.Registry
	startedAt time.Time
}

// NewSystemHandler создаёт обработчик системной информации.
func NewSystemHandler(cfg *config.Config, reg *registry.Registry) *SystemHandler {
	return &SystemHandler{
		cfg:       cfg,
		reg:       reg,
		startedAt: time.Now().UTC(),
	}
}

// GetInfo обрабатывает GET /api/v1/info.
// Возвращает идентификацию сервиса, лимиты ингестии и счётчики реестра.
func (h *SystemHandler) GetInfo(w http.ResponseWriter, _ *http.Request) {
	resp := map[string]any{
		"service":    "structure-service",
		"service_id": h.cfg.ServiceID,
		"version":    config.Version,
		"started_at": h.startedAt.Format(time.RFC3339),
		"uptime_seconds": int64(time.Since(h.startedAt).Seconds()),
		"limits": map[string]any{
			"max_file_size":      h.cfg.MaxFileSize,
			"allowed_extensions": model.AllowedExtensions(),
		},
		"structures": map[string]any{
			"total":   h.reg.Count(),
			"valid":   h.reg.CountByStatus(model.StatusValid),
			"warning": h.reg.CountByStatus(model.StatusWarning),
		},
		"fetch": map[string]any{
			"base_url": h.cfg.FetchBaseURL,
		},
	}

	writeJSON(w, http.StatusOK, resp)
}
