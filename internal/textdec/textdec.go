// Пакет textdec — декодирование байтов загруженного файла в UTF-8 текст.
//
// Браузеры и старые инструменты сохраняют структурные файлы в разных
// кодировках: UTF-8 с BOM и без, UTF-16 LE/BE с BOM. Декодер приводит
// все варианты к UTF-8 без BOM. Байты, не являющиеся корректным текстом
// (бинарные данные под текстовым расширением), отклоняются.
package textdec

import (
	"bytes"
	"errors"
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// BOM-маркеры поддерживаемых кодировок.
var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// ErrBinaryData — в декодированном тексте встречаются NUL-байты.
var ErrBinaryData = errors.New("бинарные данные: текст содержит NUL-байты")

// ErrInvalidEncoding — байты не являются корректным UTF-8/UTF-16.
var ErrInvalidEncoding = errors.New("данные не являются корректным UTF-8 текстом")

// Decode преобразует байты файла в UTF-8 строку.
// Поддерживает UTF-8 (с BOM и без) и UTF-16 LE/BE с BOM.
func Decode(data []byte) (string, error) {
	if len(data) == 0 {
		return "", nil
	}

	var text []byte

	switch {
	case bytes.HasPrefix(data, bomUTF16LE), bytes.HasPrefix(data, bomUTF16BE):
		// UTF-16 → UTF-8, BOM отбрасывается декодером
		decoder := unicode.BOMOverride(unicode.UTF8.NewDecoder())
		decoded, _, err := transform.Bytes(decoder, data)
		if err != nil {
			return "", fmt.Errorf("декодирование UTF-16: %w", err)
		}
		text = decoded

	default:
		text = bytes.TrimPrefix(data, bomUTF8)
		if !utf8.Valid(text) {
			return "", ErrInvalidEncoding
		}
	}

	if bytes.IndexByte(text, 0) != -1 {
		return "", ErrBinaryData
	}

	return string(text), nil
}
