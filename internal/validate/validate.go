// Пакет validate — построчная валидация структурных файлов в формате PDB.
//
// Валидатор не интерпретирует химию: он определяет наличие пригодных
// координатных данных и суммирует форму файла (количество атомов,
// цепей, остатков). Полная грамматика PDB не проверяется — критерий
// валидности один: присутствие хотя бы одной координатной записи.
//
// Чистая функция: без I/O, без внешнего состояния, детерминирована.
package validate

import (
	"fmt"
	"strings"
)

// Ключевые слова координатных записей PDB (регистрозависимые).
const (
	// recordAtom — координатная запись стандартного остатка
	recordAtom = "ATOM"
	// recordHetatm — координатная запись гетероатома (лиганд, вода)
	recordHetatm = "HETATM"
)

// minAtomLineLen — минимальная длина полной записи ATOM.
// Записи короче считаются потенциально неполными (warning).
const minAtomLineLen = 78

// minColumnsLen — минимальная длина строки для извлечения
// фиксированных колонок (chain, residue name, residue number).
const minColumnsLen = 22

// Report — отчёт валидации одного файла. Неизменяем после создания.
type Report struct {
	// IsValid — false тогда и только тогда, когда координатные
	// записи отсутствуют (AtomCount + HeteroAtomCount == 0)
	IsValid bool `json:"is_valid"`

	// Errors — блокирующие проблемы в порядке обнаружения
	Errors []string `json:"errors"`

	// Warnings — неблокирующие аномалии в порядке обнаружения
	Warnings []string `json:"warnings"`

	// AtomCount — количество записей ATOM
	AtomCount int `json:"atom_count"`

	// HeteroAtomCount — количество записей HETATM
	HeteroAtomCount int `json:"hetero_atom_count"`

	// ChainCount — количество различных идентификаторов цепей
	ChainCount int `json:"chain_count"`

	// ResidueCount — количество различных троек (остаток, номер, цепь)
	ResidueCount int `json:"residue_count"`
}

// Validate сканирует текстовое содержимое структурного файла и
// возвращает отчёт. Тотальная функция: не завершается с ошибкой
// ни на каком входе, повторный вызов на том же входе даёт
// идентичный отчёт.
//
// Правила:
//   - строки разделяются по \n, завершающий \r отбрасывается;
//   - ключевое слово проверяется как префикс строки после TrimSpace;
//   - колонки (цепь — позиция 21, имя остатка — 17..20, номер
//     остатка — 22..26) извлекаются из исходной строки длиной >= 22;
//   - запись ATOM короче 78 символов даёт warning с номером строки
//     (нумерация с 1).
func Validate(content string) Report {
	report := Report{
		IsValid:  true,
		Errors:   []string{},
		Warnings: []string{},
	}

	chains := make(map[string]struct{})
	residues := make(map[string]struct{})
	matched := 0

	lines := strings.Split(content, "\n")
	for i, line := range lines {
		// Нормализация CRLF
		line = strings.TrimSuffix(line, "\r")
		trimmed := strings.TrimSpace(line)

		isAtom := strings.HasPrefix(trimmed, recordAtom)
		isHetatm := strings.HasPrefix(trimmed, recordHetatm)
		if !isAtom && !isHetatm {
			continue
		}
		matched++

		if isHetatm {
			report.HeteroAtomCount++
		} else {
			report.AtomCount++
		}

		// Извлечение фиксированных колонок из исходной строки
		if len(line) >= minColumnsLen {
			chain := strings.TrimSpace(line[21:22])
			resName := strings.TrimSpace(line[17:20])

			end := 26
			if len(line) < end {
				end = len(line)
			}
			resSeq := strings.TrimSpace(line[22:end])

			if chain != "" {
				chains[chain] = struct{}{}
			}
			if resName != "" && resSeq != "" {
				residues[resName+":"+resSeq+":"+chain] = struct{}{}
			}
		}

		// Неполная запись ATOM: фиксированная ширина меньше ожидаемой
		if isAtom && len(line) < minAtomLineLen {
			report.Warnings = append(report.Warnings,
				fmt.Sprintf("Строка %d: запись ATOM короче %d символов, возможно неполная", i+1, minAtomLineLen))
		}
	}

	report.ChainCount = len(chains)
	report.ResidueCount = len(residues)

	// Две независимые проверки отсутствия данных. На практике условия
	// совпадают, но проверяются раздельно и могут сработать обе.
	if matched == 0 {
		report.IsValid = false
		report.Errors = append(report.Errors, "Координатные записи (ATOM/HETATM) не найдены")
	}
	if report.AtomCount+report.HeteroAtomCount == 0 {
		report.IsValid = false
		report.Errors = append(report.Errors, "Атомные координаты отсутствуют")
	}

	return report
}

// TrivialReport возвращает тривиально-валидный отчёт для
// passthrough-форматов (BCIF), которые не проходят текстовую валидацию.
func TrivialReport() Report {
	return Report{
		IsValid:  true,
		Errors:   []string{},
		Warnings: []string{},
	}
}
