// Пакет registry — потокобезопасный in-memory реестр загруженных
// структурных файлов.
//
// Реестр — единственный источник правды для слоя отображения:
// упорядоченная последовательность записей (порядок вставки, новые
// в конце) с поиском по идентификатору. Не персистентный, область
// видимости — одна сессия сервиса.
//
// Записи принадлежат реестру эксклюзивно и после добавления
// трактуются как неизменяемые снимки: наружу отдаются копии.
package registry

import (
	"log/slog"
	"sync"

	"github.com/bigkaa/molview/structure-service/internal/domain/model"
)

// Registry — потокобезопасный реестр записей.
// sync.RWMutex: конкурентное чтение, эксклюзивная запись.
type Registry struct {
	mu      sync.RWMutex
	ordered []*model.FileRecord          // порядок вставки
	byID    map[string]*model.FileRecord // id → запись
	logger  *slog.Logger
}

// New создаёт пустой реестр.
func New(logger *slog.Logger) *Registry {
	return &Registry{
		ordered: make([]*model.FileRecord, 0),
		byID:    make(map[string]*model.FileRecord),
		logger:  logger.With(slog.String("component", "registry")),
	}
}

// Add добавляет запись в конец последовательности.
// Уникальность ID гарантируется конструированием в сервисе ингестии
// (UUID v4) и здесь повторно не проверяется.
func (r *Registry) Add(record *model.FileRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()

	copied := *record
	r.ordered = append(r.ordered, &copied)
	r.byID[record.ID] = &copied
}

// FindByID возвращает запись по идентификатору.
// Возвращает nil, если запись не найдена.
func (r *Registry) FindByID(id string) *model.FileRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()

	record, ok := r.byID[id]
	if !ok {
		return nil
	}

	copied := *record
	return &copied
}

// Remove удаляет запись по идентификатору.
// Отсутствие записи — не ошибка: возвращается false, реестр не меняется.
func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[id]; !ok {
		return false
	}
	delete(r.byID, id)

	for i, record := range r.ordered {
		if record.ID == id {
			r.ordered = append(r.ordered[:i], r.ordered[i+1:]...)
			break
		}
	}
	return true
}

// Clear опустошает реестр.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.ordered = make([]*model.FileRecord, 0)
	r.byID = make(map[string]*model.FileRecord)

	r.logger.Debug("Реестр очищен")
}

// List возвращает пагинированный снимок записей в порядке вставки
// с опциональной фильтрацией по статусу.
// Параметры:
//   - limit: максимальное количество элементов (0 = все)
//   - offset: смещение от начала списка
//   - statusFilter: фильтр по статусу ("" = без фильтра)
//
// Возвращает срез копий записей и общее количество (с учётом фильтра).
func (r *Registry) List(limit, offset int, statusFilter model.FileStatus) ([]*model.FileRecord, int) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var filtered []*model.FileRecord
	for _, record := range r.ordered {
		if statusFilter != "" && record.Status != statusFilter {
			continue
		}
		copied := *record
		filtered = append(filtered, &copied)
	}

	total := len(filtered)

	if offset >= total {
		return nil, total
	}

	end := total
	if limit > 0 && offset+limit < total {
		end = offset + limit
	}

	return filtered[offset:end], total
}

// Count возвращает общее количество записей в реестре.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.ordered)
}

// CountByStatus возвращает количество записей с указанным статусом.
func (r *Registry) CountByStatus(status model.FileStatus) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, record := range r.ordered {
		if record.Status == status {
			count++
		}
	}
	return count
}
