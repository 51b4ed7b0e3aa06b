// Пакет dbclient — HTTP-клиент внешней базы структур (RCSB-совместимый
// файловый endpoint). Скачивает структурный файл по 4-символьному
// идентификатору или по произвольному URL.
//
// Клиент не интерпретирует содержимое: скачанные байты проходят
// обычный конвейер ингестии (гейты, декодирование, валидация).
package dbclient

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// Client — HTTP-клиент внешней базы структур.
type Client struct {
	httpClient *http.Client
	baseURL    string
	maxBytes   int64
	logger     *slog.Logger
}

// New создаёт клиент внешней базы структур.
// baseURL — базовый URL файлового endpoint (например,
// https://files.rcsb.org/download); trailing slash отбрасывается.
// maxBytes — потолок размера ответа (совпадает с SV_MAX_FILE_SIZE),
// защита от неограниченного чтения тела.
func New(baseURL string, timeout time.Duration, maxBytes int64, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
			},
		},
		baseURL:  strings.TrimRight(baseURL, "/"),
		maxBytes: maxBytes,
		logger:   logger.With(slog.String("component", "db_client")),
	}
}

// FetchByID скачивает структуру по 4-символьному идентификатору.
// Формат запроса: GET {baseURL}/{ID}.pdb (идентификатор в верхнем регистре).
// Валидация формата идентификатора — обязанность вызывающего сервиса,
// выполняется до сетевого вызова.
func (c *Client) FetchByID(ctx context.Context, id string) ([]byte, error) {
	reqURL := fmt.Sprintf("%s/%s.pdb", c.baseURL, strings.ToUpper(id))
	return c.fetch(ctx, reqURL)
}

// FetchURL скачивает структуру по произвольному URL.
func (c *Client) FetchURL(ctx context.Context, rawURL string) ([]byte, error) {
	return c.fetch(ctx, rawURL)
}

// fetch выполняет GET и читает тело с потолком maxBytes.
func (c *Client) fetch(ctx context.Context, reqURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("создание запроса: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("запрос к %s: %w", reqURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("структура не найдена: %s", reqURL)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("неожиданный статус %d от %s", resp.StatusCode, reqURL)
	}

	// Читаем на один байт больше потолка, чтобы отличить
	// "ровно maxBytes" от "превышение"
	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("чтение ответа %s: %w", reqURL, err)
	}
	if int64(len(data)) > c.maxBytes {
		return nil, fmt.Errorf("ответ %s превышает потолок %d байт", reqURL, c.maxBytes)
	}

	c.logger.Debug("Структура скачана",
		slog.String("url", reqURL),
		slog.Int("size", len(data)),
	)

	return data, nil
}
