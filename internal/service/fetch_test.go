package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	apierrors "github.com/bigkaa/molview/structure-service/internal/api/errors"
	"github.com/bigkaa/molview/structure-service/internal/dbclient"
	"github.com/bigkaa/molview/structure-service/internal/registry"
)

// newTestFetch создаёт FetchService поверх httptest-сервера внешней базы.
func newTestFetch(t *testing.T, handler http.HandlerFunc) (*FetchService, *registry.Registry, *httptest.Server) {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	reg := registry.New(testLogger())
	ingest := NewIngestService(1<<20, reg, testLogger())
	client := dbclient.New(srv.URL, 5*time.Second, 1<<20, testLogger())
	fetch := NewFetchService(ingest, client, 8, time.Minute, testLogger())

	return fetch, reg, srv
}

// TestFetchByID проверяет скачивание и регистрацию структуры по ID.
func TestFetchByID(t *testing.T) {
	fetch, reg, _ := newTestFetch(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/1CRN.pdb" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(validPDB))
	})

	record, ingErr := fetch.FetchByID(context.Background(), "1crn")
	if ingErr != nil {
		t.Fatalf("FetchByID: %v", ingErr)
	}

	if record.Name != "1CRN.pdb" {
		t.Errorf("Name = %q, ожидался 1CRN.pdb", record.Name)
	}
	if reg.Count() != 1 {
		t.Errorf("Count() = %d, запись не зарегистрирована", reg.Count())
	}
}

// TestFetchByID_InvalidID проверяет валидацию идентификатора до сети.
func TestFetchByID_InvalidID(t *testing.T) {
	var requests atomic.Int32
	fetch, _, _ := newTestFetch(t, func(w http.ResponseWriter, _ *http.Request) {
		requests.Add(1)
		_, _ = w.Write([]byte(validPDB))
	})

	for _, id := range []string{"", "1CR", "1CRNX", "1CR!", "абвг"} {
		_, ingErr := fetch.FetchByID(context.Background(), id)
		if ingErr == nil {
			t.Errorf("id %q: ожидалась ошибка валидации", id)
			continue
		}
		if ingErr.Code != apierrors.CodeValidationError {
			t.Errorf("id %q: Code = %q, ожидался VALIDATION_ERROR", id, ingErr.Code)
		}
		if ingErr.StatusCode != http.StatusBadRequest {
			t.Errorf("id %q: StatusCode = %d, ожидался 400", id, ingErr.StatusCode)
		}
	}

	if n := requests.Load(); n != 0 {
		t.Errorf("невалидный ID не должен вызывать сетевой запрос, запросов: %d", n)
	}
}

// TestFetchByID_CacheHit проверяет, что повторный fetch того же ID
// не ходит в сеть, но создаёт новую запись реестра.
func TestFetchByID_CacheHit(t *testing.T) {
	var requests atomic.Int32
	fetch, reg, _ := newTestFetch(t, func(w http.ResponseWriter, _ *http.Request) {
		requests.Add(1)
		_, _ = w.Write([]byte(validPDB))
	})

	first, ingErr := fetch.FetchByID(context.Background(), "1CRN")
	if ingErr != nil {
		t.Fatalf("первый FetchByID: %v", ingErr)
	}

	// Регистр ID не влияет на кэш-ключ
	second, ingErr := fetch.FetchByID(context.Background(), "1crn")
	if ingErr != nil {
		t.Fatalf("второй FetchByID: %v", ingErr)
	}

	if n := requests.Load(); n != 1 {
		t.Errorf("запросов к внешней базе: %d, ожидался 1 (кэш)", n)
	}
	if first.ID == second.ID {
		t.Error("повторный fetch должен создавать новую запись реестра")
	}
	if reg.Count() != 2 {
		t.Errorf("Count() = %d, ожидалось 2", reg.Count())
	}
}

// TestFetchByID_NotFound проверяет 502 FETCH_ERROR для отсутствующей структуры.
func TestFetchByID_NotFound(t *testing.T) {
	fetch, reg, _ := newTestFetch(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, ingErr := fetch.FetchByID(context.Background(), "XXXX")
	if ingErr == nil {
		t.Fatal("ожидалась ошибка")
	}
	if ingErr.Code != apierrors.CodeFetchError {
		t.Errorf("Code = %q, ожидался FETCH_ERROR", ingErr.Code)
	}
	if ingErr.StatusCode != http.StatusBadGateway {
		t.Errorf("StatusCode = %d, ожидался 502", ingErr.StatusCode)
	}
	if reg.Count() != 0 {
		t.Error("неудачный fetch не должен создавать записей")
	}
}

// TestFetchByURL проверяет скачивание по произвольному URL.
func TestFetchByURL(t *testing.T) {
	fetch, _, srv := newTestFetch(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/structures/model.cif" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(validPDB))
	})

	record, ingErr := fetch.FetchByURL(context.Background(), srv.URL+"/structures/model.cif")
	if ingErr != nil {
		t.Fatalf("FetchByURL: %v", ingErr)
	}
	if record.Name != "model.cif" {
		t.Errorf("Name = %q, ожидался model.cif", record.Name)
	}
}

// TestFetchByURL_InvalidURL проверяет отклонение некорректных URL.
func TestFetchByURL_InvalidURL(t *testing.T) {
	fetch, _, _ := newTestFetch(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(validPDB))
	})

	for _, rawURL := range []string{"", "ftp://example.com/a.pdb", "not a url", "/relative/path.pdb"} {
		_, ingErr := fetch.FetchByURL(context.Background(), rawURL)
		if ingErr == nil {
			t.Errorf("url %q: ожидалась ошибка валидации", rawURL)
			continue
		}
		if ingErr.Code != apierrors.CodeValidationError {
			t.Errorf("url %q: Code = %q, ожидался VALIDATION_ERROR", rawURL, ingErr.Code)
		}
	}
}

// TestFetchByURL_UnsupportedExtension проверяет, что скачанный файл
// с расширением вне allow-list отклоняется гейтом формата.
func TestFetchByURL_UnsupportedExtension(t *testing.T) {
	fetch, reg, srv := newTestFetch(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(validPDB))
	})

	_, ingErr := fetch.FetchByURL(context.Background(), srv.URL+"/data/archive.zip")
	if ingErr == nil {
		t.Fatal("ожидалась ошибка формата")
	}
	if ingErr.Code != apierrors.CodeUnsupportedFormat {
		t.Errorf("Code = %q, ожидался UNSUPPORTED_FORMAT", ingErr.Code)
	}
	if reg.Count() != 0 {
		t.Error("отклонённый файл не должен попадать в реестр")
	}
}

// TestValidateStructureID — табличный тест валидатора идентификатора.
func TestValidateStructureID(t *testing.T) {
	tests := []struct {
		id      string
		wantErr bool
	}{
		{"1CRN", false},
		{"4hhb", false},
		{"2abc", false},
		{"1A2B", false},
		{"", true},
		{"1CR", true},
		{"1CRNX", true},
		{"1CR-", true},
		{"1CR ", true},
	}

	for _, tt := range tests {
		err := validateStructureID(tt.id)
		if (err != nil) != tt.wantErr {
			t.Errorf("validateStructureID(%q) = %v, wantErr = %v", tt.id, err, tt.wantErr)
		}
	}
}
