package scheduling

import (
	"fmt"
	"io"
	"net/http"

	json "github.com/goccy/go-json"
)

// maxErrorBody сколько байт тела ошибки читаем, больше не нужно
const maxErrorBody = 4 << 10

// APIError ошибка сервиса расписания. Message — человекочитаемый текст
// сервера; пустой Message означает, что сервер текста не дал и наверху
// подставляется общий.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("scheduling api: status %d", e.StatusCode)
}

// parseAPIError извлекает текст ошибки из не-2xx ответа
func parseAPIError(resp *http.Response) *APIError {
	apiErr := &APIError{StatusCode: resp.StatusCode}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil || len(raw) == 0 {
		return apiErr
	}

	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return apiErr
	}

	switch {
	case body.Message != "":
		apiErr.Message = body.Message
	case body.Error != "":
		apiErr.Message = body.Error
	}
	return apiErr
}
