// Package scheduling — HTTP-клиент сервиса расписания клиники.
// Сервис — единственный источник истины по слотам; бот потребляет
// четыре операции: список за период, создание, смена статуса, удаление.
package scheduling

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"github.com/clinicdesk/availability_bot/internal/model"
)

const defaultTimeout = 15 * time.Second

// TokenProvider выдаёт bearer-токен врача для очередного вызова.
// Токен живёт у внешнего провайдера идентичности; клиент ничем,
// кроме подстановки в заголовок, не занимается.
type TokenProvider func(ctx context.Context) (string, error)

// Config настройки клиента
type Config struct {
	BaseURL    string
	Token      TokenProvider
	HTTPClient *http.Client // nil = клиент с таймаутом по умолчанию
}

// Client реализует schedule.RemoteAPI поверх HTTP API сервиса
type Client struct {
	baseURL string
	token   TokenProvider
	httpc   *http.Client
}

// New создаёт клиент сервиса расписания
func New(cfg Config) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, errors.New("scheduling: base url is required")
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("scheduling: invalid base url: %w", err)
	}
	if cfg.Token == nil {
		return nil, errors.New("scheduling: token provider is required")
	}

	httpc := cfg.HTTPClient
	if httpc == nil {
		httpc = &http.Client{Timeout: defaultTimeout}
	}

	return &Client{
		baseURL: base,
		token:   cfg.Token,
		httpc:   httpc,
	}, nil
}

// ListSlots возвращает слоты врача за период [from, to)
func (c *Client) ListSlots(ctx context.Context, from, to time.Time) ([]*model.ScheduleSlot, error) {
	endpoint := fmt.Sprintf("%s/api/v1/schedule/slots?from=%s&to=%s",
		c.baseURL,
		from.Format(dateFormat),
		to.Format(dateFormat))

	var payload struct {
		Slots []slotPayload `json:"slots"`
	}
	if err := c.do(ctx, http.MethodGet, endpoint, nil, &payload); err != nil {
		return nil, fmt.Errorf("list slots: %w", err)
	}

	slots := make([]*model.ScheduleSlot, 0, len(payload.Slots))
	for _, p := range payload.Slots {
		slot, err := p.toModel()
		if err != nil {
			return nil, fmt.Errorf("list slots: %w", err)
		}
		slots = append(slots, slot)
	}
	return slots, nil
}

// CreateSlot материализует новую запись слота со статусом RESERVED
func (c *Client) CreateSlot(ctx context.Context, date time.Time, slotID model.SlotID) (*model.ScheduleSlot, error) {
	body := map[string]string{
		"date":    date.Format(dateFormat),
		"slot_id": string(slotID),
		"status":  string(model.SlotStatusReserved),
	}

	var p slotPayload
	if err := c.do(ctx, http.MethodPost, c.baseURL+"/api/v1/schedule/slots", body, &p); err != nil {
		return nil, fmt.Errorf("create slot: %w", err)
	}

	slot, err := p.toModel()
	if err != nil {
		return nil, fmt.Errorf("create slot: %w", err)
	}
	return slot, nil
}

// UpdateSlotStatus меняет статус существующей записи слота
func (c *Client) UpdateSlotStatus(ctx context.Context, recordID string, status model.SlotStatus) (*model.ScheduleSlot, error) {
	body := map[string]string{"status": string(status)}
	endpoint := c.baseURL + "/api/v1/schedule/slots/" + url.PathEscape(recordID)

	var p slotPayload
	if err := c.do(ctx, http.MethodPatch, endpoint, body, &p); err != nil {
		return nil, fmt.Errorf("update slot status: %w", err)
	}

	slot, err := p.toModel()
	if err != nil {
		return nil, fmt.Errorf("update slot status: %w", err)
	}
	return slot, nil
}

// DeleteSlot удаляет запись слота
func (c *Client) DeleteSlot(ctx context.Context, recordID string) error {
	endpoint := c.baseURL + "/api/v1/schedule/slots/" + url.PathEscape(recordID)

	if err := c.do(ctx, http.MethodDelete, endpoint, nil, nil); err != nil {
		return fmt.Errorf("delete slot: %w", err)
	}
	return nil
}

// do выполняет запрос с bearer-токеном и разбирает ответ.
// Не-2xx ответ превращается в *APIError с текстом сервера, если тот его дал.
func (c *Client) do(ctx context.Context, method, endpoint string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	token, err := c.token(ctx)
	if err != nil {
		return fmt.Errorf("resolve token: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return parseAPIError(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
