package textdec

import (
	"errors"
	"testing"
)

// TestDecode_PlainUTF8 проверяет сквозное декодирование обычного UTF-8.
func TestDecode_PlainUTF8(t *testing.T) {
	const input = "ATOM      1  N   ALA A   1\nEND\n"

	text, err := Decode([]byte(input))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if text != input {
		t.Errorf("текст изменён: %q", text)
	}
}

// TestDecode_UTF8BOM проверяет отбрасывание UTF-8 BOM.
func TestDecode_UTF8BOM(t *testing.T) {
	input := append([]byte{0xEF, 0xBB, 0xBF}, []byte("HEADER test\n")...)

	text, err := Decode(input)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if text != "HEADER test\n" {
		t.Errorf("BOM не отброшен: %q", text)
	}
}

// TestDecode_UTF16LE проверяет декодирование UTF-16 LE с BOM.
func TestDecode_UTF16LE(t *testing.T) {
	// "AB\n" в UTF-16 LE с BOM
	input := []byte{0xFF, 0xFE, 'A', 0x00, 'B', 0x00, '\n', 0x00}

	text, err := Decode(input)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if text != "AB\n" {
		t.Errorf("текст = %q, ожидалось AB\\n", text)
	}
}

// TestDecode_UTF16BE проверяет декодирование UTF-16 BE с BOM.
func TestDecode_UTF16BE(t *testing.T) {
	input := []byte{0xFE, 0xFF, 0x00, 'A', 0x00, 'B', 0x00, '\n'}

	text, err := Decode(input)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if text != "AB\n" {
		t.Errorf("текст = %q, ожидалось AB\\n", text)
	}
}

// TestDecode_InvalidUTF8 проверяет отклонение некорректного UTF-8.
func TestDecode_InvalidUTF8(t *testing.T) {
	input := []byte{'A', 'T', 'O', 'M', 0xFF, 0xFD, 0x80}

	_, err := Decode(input)
	if !errors.Is(err, ErrInvalidEncoding) {
		t.Errorf("err = %v, ожидался ErrInvalidEncoding", err)
	}
}

// TestDecode_NulBytes проверяет отклонение бинарных данных с NUL-байтами.
func TestDecode_NulBytes(t *testing.T) {
	input := []byte{'A', 'T', 'O', 'M', 0x00, 0x01}

	_, err := Decode(input)
	if !errors.Is(err, ErrBinaryData) {
		t.Errorf("err = %v, ожидался ErrBinaryData", err)
	}
}

// TestDecode_Empty проверяет пустой вход.
func TestDecode_Empty(t *testing.T) {
	text, err := Decode(nil)
	if err != nil || text != "" {
		t.Errorf("Decode(nil) = (%q, %v), ожидалось (\"\", nil)", text, err)
	}
}

// TestDecode_Cyrillic проверяет многобайтовый UTF-8 (комментарии в файлах).
func TestDecode_Cyrillic(t *testing.T) {
	const input = "REMARK структура белка\n"

	text, err := Decode([]byte(input))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if text != input {
		t.Errorf("текст изменён: %q", text)
	}
}
