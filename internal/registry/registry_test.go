package registry

import (
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/bigkaa/molview/structure-service/internal/domain/model"
	"github.com/bigkaa/molview/structure-service/internal/validate"
)

// testLogger возвращает логгер, не пишущий в вывод тестов.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// testRecord создаёт запись для тестов с указанным ID и статусом.
func testRecord(id string, status model.FileStatus) *model.FileRecord {
	return &model.FileRecord{
		ID:         id,
		Name:       id + ".pdb",
		SizeBytes:  100,
		Format:     model.FormatPDB,
		Content:    []byte("ATOM"),
		Report:     validate.TrivialReport(),
		Status:     status,
		UploadedAt: time.Now().UTC(),
	}
}

// TestAddAndFindByID проверяет добавление и поиск по идентификатору.
func TestAddAndFindByID(t *testing.T) {
	r := New(testLogger())

	r.Add(testRecord("rec-1", model.StatusValid))

	got := r.FindByID("rec-1")
	if got == nil {
		t.Fatal("запись не найдена после Add")
	}
	if got.Name != "rec-1.pdb" {
		t.Errorf("Name = %q, ожидалось %q", got.Name, "rec-1.pdb")
	}

	if r.FindByID("missing") != nil {
		t.Error("поиск несуществующего ID должен возвращать nil")
	}
}

// TestRemove проверяет удаление записи и no-op для отсутствующего ID.
func TestRemove(t *testing.T) {
	r := New(testLogger())
	r.Add(testRecord("rec-1", model.StatusValid))

	if !r.Remove("rec-1") {
		t.Error("Remove существующей записи должен возвращать true")
	}
	if r.FindByID("rec-1") != nil {
		t.Error("запись найдена после удаления")
	}

	// Удаление несуществующего ID — no-op, не паника и не ошибка
	if r.Remove("rec-1") {
		t.Error("повторный Remove должен возвращать false")
	}
	if r.Remove("never-existed") {
		t.Error("Remove несуществующего ID должен возвращать false")
	}
	if r.Count() != 0 {
		t.Errorf("Count = %d, ожидалось 0", r.Count())
	}
}

// TestClear проверяет полную очистку реестра.
func TestClear(t *testing.T) {
	r := New(testLogger())
	r.Add(testRecord("rec-1", model.StatusValid))
	r.Add(testRecord("rec-2", model.StatusWarning))

	r.Clear()

	if r.Count() != 0 {
		t.Errorf("Count = %d после Clear, ожидалось 0", r.Count())
	}
	if r.FindByID("rec-1") != nil {
		t.Error("запись найдена после Clear")
	}
}

// TestList_InsertionOrder проверяет, что List возвращает записи
// в порядке вставки (новые в конце).
func TestList_InsertionOrder(t *testing.T) {
	r := New(testLogger())
	for i := 1; i <= 3; i++ {
		r.Add(testRecord(fmt.Sprintf("rec-%d", i), model.StatusValid))
	}

	items, total := r.List(0, 0, "")
	if total != 3 {
		t.Fatalf("total = %d, ожидалось 3", total)
	}
	for i, item := range items {
		want := fmt.Sprintf("rec-%d", i+1)
		if item.ID != want {
			t.Errorf("позиция %d: ID = %q, ожидалось %q", i, item.ID, want)
		}
	}
}

// TestList_OrderAfterRemove проверяет сохранение относительного
// порядка после удаления записи из середины.
func TestList_OrderAfterRemove(t *testing.T) {
	r := New(testLogger())
	r.Add(testRecord("rec-1", model.StatusValid))
	r.Add(testRecord("rec-2", model.StatusValid))
	r.Add(testRecord("rec-3", model.StatusValid))

	r.Remove("rec-2")

	items, total := r.List(0, 0, "")
	if total != 2 {
		t.Fatalf("total = %d, ожидалось 2", total)
	}
	if items[0].ID != "rec-1" || items[1].ID != "rec-3" {
		t.Errorf("порядок нарушен: %s, %s", items[0].ID, items[1].ID)
	}
}

// TestList_Pagination проверяет limit и offset.
func TestList_Pagination(t *testing.T) {
	r := New(testLogger())
	for i := 1; i <= 5; i++ {
		r.Add(testRecord(fmt.Sprintf("rec-%d", i), model.StatusValid))
	}

	items, total := r.List(2, 1, "")
	if total != 5 {
		t.Errorf("total = %d, ожидалось 5", total)
	}
	if len(items) != 2 {
		t.Fatalf("len(items) = %d, ожидалось 2", len(items))
	}
	if items[0].ID != "rec-2" || items[1].ID != "rec-3" {
		t.Errorf("ожидались rec-2, rec-3, получены %s, %s", items[0].ID, items[1].ID)
	}

	// Offset за пределами списка
	items, total = r.List(10, 100, "")
	if items != nil || total != 5 {
		t.Errorf("offset за пределами: items=%v, total=%d", items, total)
	}
}

// TestList_StatusFilter проверяет фильтрацию по статусу.
func TestList_StatusFilter(t *testing.T) {
	r := New(testLogger())
	r.Add(testRecord("rec-1", model.StatusValid))
	r.Add(testRecord("rec-2", model.StatusWarning))
	r.Add(testRecord("rec-3", model.StatusValid))

	items, total := r.List(0, 0, model.StatusWarning)
	if total != 1 {
		t.Fatalf("total = %d, ожидалось 1", total)
	}
	if items[0].ID != "rec-2" {
		t.Errorf("ID = %q, ожидалось rec-2", items[0].ID)
	}

	if r.CountByStatus(model.StatusValid) != 2 {
		t.Errorf("CountByStatus(valid) = %d, ожидалось 2", r.CountByStatus(model.StatusValid))
	}
}

// TestImmutability проверяет, что изменение возвращённой копии
// не затрагивает запись внутри реестра.
func TestImmutability(t *testing.T) {
	r := New(testLogger())
	r.Add(testRecord("rec-1", model.StatusValid))

	got := r.FindByID("rec-1")
	got.Name = "mutated.pdb"

	again := r.FindByID("rec-1")
	if again.Name != "rec-1.pdb" {
		t.Errorf("запись в реестре изменилась: Name = %q", again.Name)
	}
}
