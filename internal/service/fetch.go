// fetch.go — remote fetch структур из внешней базы по 4-символьному
// идентификатору или произвольному URL, с LRU-кэшем скачанных байтов.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	apierrors "github.com/bigkaa/molview/structure-service/internal/api/errors"
	"github.com/bigkaa/molview/structure-service/internal/api/middleware"
	"github.com/bigkaa/molview/structure-service/internal/dbclient"
	"github.com/bigkaa/molview/structure-service/internal/domain/model"
)

// structureIDLen — длина идентификатора во внешней базе структур.
const structureIDLen = 4

// FetchService — сервис загрузки структур из внешней базы.
// Скачанные байты кэшируются (LRU с TTL), повторный запрос того же
// идентификатора не ходит в сеть. Результат проходит обычный конвейер
// ингестии: каждая загрузка создаёт новую запись реестра.
type FetchService struct {
	ingest *IngestService
	client *dbclient.Client
	cache  *expirable.LRU[string, []byte]
	logger *slog.Logger
}

// NewFetchService создаёт сервис remote fetch.
func NewFetchService(
	ingest *IngestService,
	client *dbclient.Client,
	cacheSize int,
	cacheTTL time.Duration,
	logger *slog.Logger,
) *FetchService {
	return &FetchService{
		ingest: ingest,
		client: client,
		cache:  expirable.NewLRU[string, []byte](cacheSize, nil, cacheTTL),
		logger: logger.With(slog.String("component", "fetch_service")),
	}
}

// FetchByID скачивает структуру по 4-символьному идентификатору
// и регистрирует её в реестре.
// Формат идентификатора проверяется ДО сетевого вызова: ровно 4
// латинских буквы или цифры. Кэш-ключ регистронезависим.
func (s *FetchService) FetchByID(ctx context.Context, id string) (*model.FileRecord, *IngestError) {
	// 1. Валидация идентификатора до сети
	if err := validateStructureID(id); err != nil {
		return nil, &IngestError{
			StatusCode: http.StatusBadRequest,
			Code:       apierrors.CodeValidationError,
			Message:    err.Error(),
		}
	}

	cacheKey := "id:" + strings.ToLower(id)
	name := strings.ToUpper(id) + ".pdb"

	// 2. Кэш
	if data, ok := s.cache.Get(cacheKey); ok {
		middleware.FetchCacheHitsTotal.Inc()
		s.logger.Debug("Попадание в кэш", slog.String("id", id))
		return s.ingest.ingest("fetch", name, data)
	}
	middleware.FetchCacheMissesTotal.Inc()

	// 3. Скачивание
	data, err := s.client.FetchByID(ctx, id)
	if err != nil {
		middleware.IngestTotal.WithLabelValues("fetch", "fetch_error").Inc()
		s.logger.Warn("Ошибка remote fetch",
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
		return nil, &IngestError{
			StatusCode: http.StatusBadGateway,
			Code:       apierrors.CodeFetchError,
			Message:    fmt.Sprintf("не удалось загрузить структуру %s: %v", strings.ToUpper(id), err),
		}
	}
	s.cache.Add(cacheKey, data)

	// 4. Обычный конвейер ингестии
	return s.ingest.ingest("fetch", name, data)
}

// FetchByURL скачивает структуру по произвольному URL и регистрирует
// её в реестре. Имя записи — последний сегмент пути URL; формат
// выводится из его расширения обычным гейтом.
func (s *FetchService) FetchByURL(ctx context.Context, rawURL string) (*model.FileRecord, *IngestError) {
	parsed, err := url.Parse(rawURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return nil, &IngestError{
			StatusCode: http.StatusBadRequest,
			Code:       apierrors.CodeValidationError,
			Message:    fmt.Sprintf("некорректный URL: %q (ожидается http/https)", rawURL),
		}
	}

	name := path.Base(parsed.Path)

	cacheKey := "url:" + rawURL
	if data, ok := s.cache.Get(cacheKey); ok {
		middleware.FetchCacheHitsTotal.Inc()
		return s.ingest.ingest("fetch", name, data)
	}
	middleware.FetchCacheMissesTotal.Inc()

	data, err := s.client.FetchURL(ctx, rawURL)
	if err != nil {
		middleware.IngestTotal.WithLabelValues("fetch", "fetch_error").Inc()
		s.logger.Warn("Ошибка remote fetch по URL",
			slog.String("url", rawURL),
			slog.String("error", err.Error()),
		)
		return nil, &IngestError{
			StatusCode: http.StatusBadGateway,
			Code:       apierrors.CodeFetchError,
			Message:    fmt.Sprintf("не удалось загрузить структуру по URL: %v", err),
		}
	}
	s.cache.Add(cacheKey, data)

	return s.ingest.ingest("fetch", name, data)
}

// validateStructureID проверяет формат идентификатора внешней базы:
// ровно 4 символа, латинские буквы и цифры.
func validateStructureID(id string) error {
	if len(id) != structureIDLen {
		return fmt.Errorf("идентификатор структуры должен содержать ровно %d символа, получено: %q",
			structureIDLen, id)
	}
	for _, c := range id {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')) {
			return fmt.Errorf("идентификатор структуры содержит недопустимый символ: %q", id)
		}
	}
	return nil
}
