// Пакет model — доменные модели Structure Service.
// FileRecord — запись о загруженном структурном файле в реестре сессии.
// Запись неизменяема после создания: правка = удаление + повторная загрузка.
package model

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/bigkaa/molview/structure-service/internal/validate"
)

// FileStatus — статус записи в реестре.
type FileStatus string

const (
	// StatusValid — файл содержит координатные записи, пригоден для рендеринга
	StatusValid FileStatus = "valid"
	// StatusWarning — валидация не нашла координатных данных,
	// файл зарегистрирован для инспекции пользователем
	StatusWarning FileStatus = "warning"
)

// FileFormat — формат структурного файла, выводится из расширения имени.
type FileFormat string

const (
	// FormatPDB — Protein Data Bank, строчный формат с фиксированными колонками
	FormatPDB FileFormat = "pdb"
	// FormatCIF — mmCIF/PDBx, текстовый формат
	FormatCIF FileFormat = "cif"
	// FormatMOL2 — Tripos MOL2, текстовый формат
	FormatMOL2 FileFormat = "mol2"
	// FormatBCIF — BinaryCIF, бинарный passthrough-формат (без валидации)
	FormatBCIF FileFormat = "bcif"
	// FormatUnknown — расширение вне allow-list
	FormatUnknown FileFormat = "unknown"
)

// extensionFormats — allow-list расширений и соответствующие форматы.
var extensionFormats = map[string]FileFormat{
	".pdb":   FormatPDB,
	".ent":   FormatPDB,
	".cif":   FormatCIF,
	".mmcif": FormatCIF,
	".mol2":  FormatMOL2,
	".bcif":  FormatBCIF,
}

// FormatFromFilename выводит формат из расширения имени файла
// (регистронезависимо). Для расширений вне allow-list возвращает FormatUnknown.
func FormatFromFilename(filename string) FileFormat {
	ext := strings.ToLower(filepath.Ext(filename))
	if f, ok := extensionFormats[ext]; ok {
		return f
	}
	return FormatUnknown
}

// AllowedExtensions возвращает отсортированный по алфавиту список
// допустимых расширений (для сообщений об ошибках).
func AllowedExtensions() []string {
	return []string{".bcif", ".cif", ".ent", ".mmcif", ".mol2", ".pdb"}
}

// IsText сообщает, является ли формат текстовым.
// Текстовые форматы проходят декодирование и валидацию,
// бинарные (BCIF) регистрируются как есть.
func (f FileFormat) IsText() bool {
	return f == FormatPDB || f == FormatCIF || f == FormatMOL2
}

// FileRecord — запись реестра о загруженном структурном файле.
// Создаётся только сервисом ингестии, после создания не мутирует.
type FileRecord struct {
	// ID — уникальный идентификатор записи (UUID v4)
	ID string `json:"id"`

	// Name — оригинальное имя файла при загрузке
	Name string `json:"name"`

	// SizeBytes — размер исходных данных в байтах
	SizeBytes int64 `json:"size_bytes"`

	// Format — формат файла, выведенный из расширения
	Format FileFormat `json:"format"`

	// Content — декодированный текст (или бинарные данные для BCIF).
	// Не возвращается в списках API, только через content endpoint.
	Content []byte `json:"-"`

	// Checksum — SHA-256 хэш содержимого (ETag для content endpoint)
	Checksum string `json:"checksum"`

	// Report — отчёт валидации, вычисляется один раз при ингестии
	Report validate.Report `json:"report"`

	// Status — valid, если Report.IsValid, иначе warning
	Status FileStatus `json:"status"`

	// UploadedAt — дата и время регистрации (UTC)
	UploadedAt time.Time `json:"uploaded_at"`
}

// StatusFromReport выводит статус записи из отчёта валидации.
func StatusFromReport(r validate.Report) FileStatus {
	if r.IsValid {
		return StatusValid
	}
	return StatusWarning
}
