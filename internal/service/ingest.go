// Пакет service — бизнес-логика Structure Service: конвейер ингестии
// структурных файлов и remote fetch из внешней базы структур.
package service

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	apierrors "github.com/bigkaa/molview/structure-service/internal/api/errors"
	"github.com/bigkaa/molview/structure-service/internal/api/middleware"
	"github.com/bigkaa/molview/structure-service/internal/domain/model"
	"github.com/bigkaa/molview/structure-service/internal/registry"
	"github.com/bigkaa/molview/structure-service/internal/textdec"
	"github.com/bigkaa/molview/structure-service/internal/validate"
)

// IngestError — ошибка конвейера ингестии с HTTP-статусом
// и машиночитаемым кодом для формирования ответа API.
type IngestError struct {
	StatusCode int    // HTTP статус-код
	Code       string // Машиночитаемый код (UNSUPPORTED_FORMAT, FILE_TOO_LARGE, ...)
	Message    string // Человекочитаемое описание
}

func (e *IngestError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NamedFile — входной элемент батча: имя файла и сырые байты.
type NamedFile struct {
	Name string
	Data []byte
}

// BatchItem — результат обработки одного файла из батча.
// Ровно одно из полей Record/Error не пусто.
type BatchItem struct {
	Name   string            `json:"name"`
	Record *model.FileRecord `json:"record,omitempty"`
	Error  *BatchItemError   `json:"error,omitempty"`
}

// BatchItemError — ошибка элемента батча в теле ответа.
type BatchItemError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// IngestService — сервис ингестии структурных файлов.
// Прогоняет сырые байты через гейты (формат, размер), декодирование
// и валидацию, после чего регистрирует запись в реестре.
type IngestService struct {
	maxFileSize int64
	registry    *registry.Registry
	logger      *slog.Logger
}

// NewIngestService создаёт сервис ингестии.
func NewIngestService(maxFileSize int64, reg *registry.Registry, logger *slog.Logger) *IngestService {
	return &IngestService{
		maxFileSize: maxFileSize,
		registry:    reg,
		logger:      logger.With(slog.String("component", "ingest_service")),
	}
}

// Ingest обрабатывает один загруженный файл и регистрирует его в реестре.
// Порядок гейтов фиксирован: формат → размер → декодирование → валидация.
// Файл, не прошедший гейт, НЕ попадает в реестр. Файл с предупреждениями
// валидации регистрируется со статусом warning.
func (s *IngestService) Ingest(name string, data []byte) (*model.FileRecord, *IngestError) {
	return s.ingest("upload", name, data)
}

func (s *IngestService) ingest(operation, name string, data []byte) (*model.FileRecord, *IngestError) {
	// 1. Гейт формата: расширение должно входить в allow-list
	format := model.FormatFromFilename(name)
	if format == model.FormatUnknown {
		middleware.IngestTotal.WithLabelValues(operation, "rejected_format").Inc()
		return nil, &IngestError{
			StatusCode: http.StatusUnsupportedMediaType,
			Code:       apierrors.CodeUnsupportedFormat,
			Message: fmt.Sprintf("неподдерживаемый формат файла %q, допустимые расширения: %s",
				name, strings.Join(model.AllowedExtensions(), ", ")),
		}
	}

	// 2. Гейт размера: проверяется до декодирования
	size := int64(len(data))
	if size > s.maxFileSize {
		middleware.IngestTotal.WithLabelValues(operation, "rejected_size").Inc()
		return nil, &IngestError{
			StatusCode: http.StatusRequestEntityTooLarge,
			Code:       apierrors.CodeFileTooLarge,
			Message: fmt.Sprintf("файл %q размером %d байт превышает лимит %d байт",
				name, size, s.maxFileSize),
		}
	}

	// 3. Декодирование и валидация.
	// Текстовые форматы декодируются в UTF-8 и проходят скан
	// координатных записей; бинарный BCIF регистрируется как есть
	// с тривиальным отчётом.
	var (
		content []byte
		report  validate.Report
	)
	if format.IsText() {
		text, err := textdec.Decode(data)
		if err != nil {
			middleware.IngestTotal.WithLabelValues(operation, "decode_error").Inc()
			return nil, &IngestError{
				StatusCode: http.StatusUnprocessableEntity,
				Code:       apierrors.CodeDecodeError,
				Message:    fmt.Sprintf("не удалось декодировать файл %q: %v", name, err),
			}
		}
		content = []byte(text)
		report = validate.Validate(text)
	} else {
		content = data
		report = validate.TrivialReport()
	}

	// 4. Формируем запись реестра
	checksum := sha256.Sum256(content)
	record := &model.FileRecord{
		ID:         uuid.New().String(),
		Name:       name,
		SizeBytes:  size,
		Format:     format,
		Content:    content,
		Checksum:   hex.EncodeToString(checksum[:]),
		Report:     report,
		Status:     model.StatusFromReport(report),
		UploadedAt: time.Now().UTC(),
	}

	// 5. Регистрируем и обновляем метрики
	s.registry.Add(record)
	middleware.IngestTotal.WithLabelValues(operation, "success").Inc()
	s.syncGauges()

	s.logger.Info("Файл зарегистрирован",
		slog.String("id", record.ID),
		slog.String("name", record.Name),
		slog.String("format", string(record.Format)),
		slog.String("status", string(record.Status)),
		slog.Int64("size", record.SizeBytes),
		slog.Int("warnings", len(report.Warnings)),
	)

	return record, nil
}

// IngestBatch обрабатывает батч файлов с изоляцией ошибок:
// отказ одного файла не влияет на обработку остальных.
// Порядок результатов совпадает с порядком входных файлов.
func (s *IngestService) IngestBatch(files []NamedFile) []BatchItem {
	results := make([]BatchItem, 0, len(files))

	for _, f := range files {
		record, ingErr := s.Ingest(f.Name, f.Data)
		item := BatchItem{Name: f.Name}
		if ingErr != nil {
			item.Error = &BatchItemError{
				Code:    ingErr.Code,
				Message: ingErr.Message,
			}
		} else {
			item.Record = record
		}
		results = append(results, item)
	}

	return results
}

// Delete удаляет запись из реестра и обновляет метрики.
// Возвращает false, если записи нет.
func (s *IngestService) Delete(id string) bool {
	removed := s.registry.Remove(id)
	if removed {
		s.syncGauges()
		s.logger.Info("Запись удалена", slog.String("id", id))
	}
	return removed
}

// Clear опустошает реестр и обнуляет метрики.
func (s *IngestService) Clear() {
	s.registry.Clear()
	s.syncGauges()
	s.logger.Info("Реестр очищен")
}

// syncGauges выставляет gauge-метрики количества записей по статусам.
func (s *IngestService) syncGauges() {
	middleware.StructuresTotal.WithLabelValues(string(model.StatusValid)).
		Set(float64(s.registry.CountByStatus(model.StatusValid)))
	middleware.StructuresTotal.WithLabelValues(string(model.StatusWarning)).
		Set(float64(s.registry.CountByStatus(model.StatusWarning)))
}
