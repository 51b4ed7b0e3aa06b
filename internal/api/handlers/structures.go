// structures.go — HTTP handlers операций над структурными файлами.
// Upload (батч), List, Get metadata, Get content, Delete, Clear, Fetch.
package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/bigkaa/molview/structure-service/internal/api/errors"
	"github.com/bigkaa/molview/structure-service/internal/domain/model"
	"github.com/bigkaa/molview/structure-service/internal/registry"
	"github.com/bigkaa/molview/structure-service/internal/service"
)

// multipartMemoryLimit — буфер парсинга multipart form в памяти.
const multipartMemoryLimit = 32 << 20 // 32 MB

// StructuresHandler — обработчик endpoints структурных файлов.
type StructuresHandler struct {
	ingestSvc *service.IngestService
	fetchSvc  *service.FetchService
	reg       *registry.Registry
}

// NewStructuresHandler создаёт обработчик endpoints структурных файлов.
func NewStructuresHandler(
	ingestSvc *service.IngestService,
	fetchSvc *service.FetchService,
	reg *registry.Registry,
) *StructuresHandler {
	return &StructuresHandler{
		ingestSvc: ingestSvc,
		fetchSvc:  fetchSvc,
		reg:       reg,
	}
}

// uploadResponse — тело ответа батч-загрузки.
type uploadResponse struct {
	Items     []service.BatchItem `json:"items"`
	Total     int                 `json:"total"`
	Succeeded int                 `json:"succeeded"`
	Failed    int                 `json:"failed"`
}

// Upload обрабатывает POST /api/v1/structures/upload.
// Multipart form: files (одно или несколько значений).
// Ошибки обрабатываются по-файлово: отказ одного файла не прерывает батч.
func (h *StructuresHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(multipartMemoryLimit); err != nil {
		errors.ValidationError(w, fmt.Sprintf("Ошибка парсинга multipart: %s", err.Error()))
		return
	}

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		errors.ValidationError(w, "Поле 'files' обязательно и должно содержать хотя бы один файл")
		return
	}

	files := make([]service.NamedFile, 0, len(headers))
	for _, header := range headers {
		f, err := header.Open()
		if err != nil {
			errors.InternalError(w, fmt.Sprintf("Не удалось открыть файл %q: %s", header.Filename, err.Error()))
			return
		}
		data, err := io.ReadAll(f)
		_ = f.Close()
		if err != nil {
			errors.InternalError(w, fmt.Sprintf("Не удалось прочитать файл %q: %s", header.Filename, err.Error()))
			return
		}
		files = append(files, service.NamedFile{Name: header.Filename, Data: data})
	}

	items := h.ingestSvc.IngestBatch(files)

	succeeded := 0
	for _, item := range items {
		if item.Record != nil {
			succeeded++
		}
	}

	// 201, если хотя бы один файл зарегистрирован; иначе 422
	status := http.StatusCreated
	if succeeded == 0 {
		status = http.StatusUnprocessableEntity
	}

	writeJSON(w, status, uploadResponse{
		Items:     items,
		Total:     len(items),
		Succeeded: succeeded,
		Failed:    len(items) - succeeded,
	})
}

// listResponse — тело ответа списка структур.
type listResponse struct {
	Items   []*model.FileRecord `json:"items"`
	Total   int                 `json:"total"`
	Limit   int                 `json:"limit"`
	Offset  int                 `json:"offset"`
	HasMore bool                `json:"has_more"`
}

// List обрабатывает GET /api/v1/structures.
// Пагинация: limit, offset. Фильтр: status (valid, warning).
// Порядок — порядок загрузки, новые в конце.
func (h *StructuresHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := 50
	offset := 0
	var statusFilter model.FileStatus

	query := r.URL.Query()

	if v := query.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 1000 {
			errors.ValidationError(w, "Параметр limit должен быть от 1 до 1000")
			return
		}
		limit = n
	}

	if v := query.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			errors.ValidationError(w, "Параметр offset не может быть отрицательным")
			return
		}
		offset = n
	}

	if v := query.Get("status"); v != "" {
		statusFilter = model.FileStatus(v)
		switch statusFilter {
		case model.StatusValid, model.StatusWarning:
			// ok
		default:
			errors.ValidationError(w, fmt.Sprintf("Недопустимый статус: %s", statusFilter))
			return
		}
	}

	items, total := h.reg.List(limit, offset, statusFilter)
	if items == nil {
		items = []*model.FileRecord{}
	}

	writeJSON(w, http.StatusOK, listResponse{
		Items:   items,
		Total:   total,
		Limit:   limit,
		Offset:  offset,
		HasMore: offset+limit < total,
	})
}

// Get обрабатывает GET /api/v1/structures/{id}.
// Возвращает метаданные записи вместе с отчётом валидации.
func (h *StructuresHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	record := h.reg.FindByID(id)
	if record == nil {
		errors.NotFound(w, fmt.Sprintf("Структура %s не найдена", id))
		return
	}

	writeJSON(w, http.StatusOK, record)
}

// Content обрабатывает GET /api/v1/structures/{id}/content.
// Отдаёт содержимое файла с ETag (SHA-256); If-None-Match → 304.
func (h *StructuresHandler) Content(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	record := h.reg.FindByID(id)
	if record == nil {
		errors.NotFound(w, fmt.Sprintf("Структура %s не найдена", id))
		return
	}

	etag := `"` + record.Checksum + `"`
	w.Header().Set("ETag", etag)

	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	contentType := "text/plain; charset=utf-8"
	if !record.Format.IsText() {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(record.Content)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(record.Content)
}

// Delete обрабатывает DELETE /api/v1/structures/{id}.
func (h *StructuresHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if !h.ingestSvc.Delete(id) {
		errors.NotFound(w, fmt.Sprintf("Структура %s не найдена", id))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Clear обрабатывает DELETE /api/v1/structures.
// Опустошает реестр сессии целиком.
func (h *StructuresHandler) Clear(w http.ResponseWriter, _ *http.Request) {
	h.ingestSvc.Clear()
	w.WriteHeader(http.StatusNoContent)
}

// fetchRequest — тело запроса remote fetch.
// Ровно одно из полей id/url должно быть задано.
type fetchRequest struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// Fetch обрабатывает POST /api/v1/structures/fetch.
// Скачивает структуру из внешней базы по 4-символьному идентификатору
// или по произвольному URL и регистрирует её в реестре.
func (h *StructuresHandler) Fetch(w http.ResponseWriter, r *http.Request) {
	var req fetchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.ValidationError(w, fmt.Sprintf("Некорректный JSON: %s", err.Error()))
		return
	}

	if (req.ID == "") == (req.URL == "") {
		errors.ValidationError(w, "Должно быть задано ровно одно из полей: id, url")
		return
	}

	var (
		record *model.FileRecord
		ingErr *service.IngestError
	)
	if req.ID != "" {
		record, ingErr = h.fetchSvc.FetchByID(r.Context(), req.ID)
	} else {
		record, ingErr = h.fetchSvc.FetchByURL(r.Context(), req.URL)
	}

	if ingErr != nil {
		errors.WriteError(w, ingErr.StatusCode, ingErr.Code, ingErr.Message)
		return
	}

	writeJSON(w, http.StatusCreated, record)
}

// writeJSON записывает JSON-ответ с указанным статусом.
func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
