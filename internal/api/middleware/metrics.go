// metrics.go — Prometheus HTTP метрики для Structure Service.
// Регистрирует метрики: sv_http_requests_total, sv_http_request_duration_seconds.
// Бизнес-метрики (sv_structures_total, sv_ingest_total и др.)
// обновляются из сервисного слоя.
package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP метрики
var (
	// httpRequestsTotal — общее количество HTTP-запросов.
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sv_http_requests_total",
			Help: "Общее количество HTTP-запросов к Structure Service",
		},
		[]string{"method", "path", "status"},
	)

	// httpRequestDuration — гистограмма длительности HTTP-запросов.
	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sv_http_request_duration_seconds",
			Help:    "Длительность HTTP-запросов к Structure Service в секундах",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

// Бизнес-метрики (экспортируются для обновления из сервисного слоя)
var (
	// StructuresTotal — текущее количество записей в реестре (gauge).
	StructuresTotal = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "sv_structures_total",
			Help: "Текущее количество структур в реестре сессии",
		},
		[]string{"status"},
	)

	// IngestTotal — общее количество операций ингестии.
	IngestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sv_ingest_total",
			Help: "Общее количество операций ингестии структурных файлов",
		},
		[]string{"operation", "result"},
	)

	// FetchCacheHitsTotal — попадания в LRU-кэш remote fetch.
	FetchCacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sv_fetch_cache_hits_total",
		Help: "Общее количество попаданий в кэш загруженных структур",
	})

	// FetchCacheMissesTotal — промахи LRU-кэша remote fetch.
	FetchCacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sv_fetch_cache_misses_total",
		Help: "Общее количество промахов кэша загруженных структур",
	})
)

// MetricsMiddleware возвращает HTTP middleware для сбора Prometheus метрик.
// Записывает количество запросов и длительность для каждого endpoint.
func MetricsMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// Нормализуем путь для лейблов метрик
			// (заменяем UUID на {id} для предотвращения кардинальности)
			normalizedPath := normalizePath(r.URL.Path)

			wrapped := newMetricsResponseWriter(w)
			next.ServeHTTP(wrapped, r)

			duration := time.Since(start).Seconds()
			status := strconv.Itoa(wrapped.statusCode)

			httpRequestsTotal.WithLabelValues(r.Method, normalizedPath, status).Inc()
			httpRequestDuration.WithLabelValues(r.Method, normalizedPath).Observe(duration)
		})
	}
}

// metricsResponseWriter — обёртка для перехвата статус-кода.
type metricsResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func newMetricsResponseWriter(w http.ResponseWriter) *metricsResponseWriter {
	return &metricsResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}
}

func (rw *metricsResponseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Unwrap позволяет http.ResponseController получить доступ к оригинальному ResponseWriter.
func (rw *metricsResponseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// structuresPrefix — префикс маршрутов с UUID-сегментом.
const structuresPrefix = "/api/v1/structures/"

// normalizePath заменяет UUID-сегменты пути на {id} для предотвращения
// взрывного роста кардинальности метрик.
// /api/v1/structures/a1b2c3d4-... → /api/v1/structures/{id}
func normalizePath(path string) string {
	if !strings.HasPrefix(path, structuresPrefix) {
		return path
	}
	rest := path[len(structuresPrefix):]
	if rest == "upload" || rest == "fetch" {
		return path
	}

	segment := rest
	suffix := ""
	if idx := strings.IndexByte(rest, '/'); idx != -1 {
		segment = rest[:idx]
		suffix = rest[idx:]
	}
	if isUUID(segment) {
		return structuresPrefix + "{id}" + suffix
	}
	return path
}

// isUUID проверяет формат UUID: 8-4-4-4-12 шестнадцатеричных символов.
func isUUID(s string) bool {
	if len(s) != 36 {
		return false
	}
	for i, c := range s {
		if i == 8 || i == 13 || i == 18 || i == 23 {
			if c != '-' {
				return false
			}
			continue
		}
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')) {
			return false
		}
	}
	return true
}
