package translator

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/valpere/subtran/internal"
)

// classifyStatus maps a non-2xx response onto the error taxonomy. Only
// rate limiting and server faults are worth another attempt.
func classifyStatus(code int, status string, body []byte) *internal.TranslationError {
	msg, errCode := errorMessage(body)
	if msg == "" {
		msg = statusText(code, status)
	}

	switch {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return internal.NewTranslationError(internal.PermissionError, code, msg, false, nil)
	case code == http.StatusTooManyRequests:
		return internal.NewTranslationError(internal.RateLimitError, code, msg, true, nil)
	case code == http.StatusNotFound && unknownModel(msg, errCode):
		return internal.NewTranslationError(internal.ModelError, code, msg, false, nil)
	case code >= http.StatusInternalServerError:
		return internal.NewTranslationError(internal.ServerError, code, msg, true, nil)
	default:
		return internal.NewTranslationError(internal.APIError, code, msg, false, nil)
	}
}

// errorMessage pulls a message out of either {"error":{"message":..}} or
// {"message":..} bodies.
func errorMessage(body []byte) (string, string) {
	var wrapped struct {
		Error   *apiErrorBody `json:"error"`
		Message string        `json:"message"`
	}
	if err := json.Unmarshal(body, &wrapped); err != nil {
		return strings.TrimSpace(string(body)), ""
	}
	if wrapped.Error != nil && wrapped.Error.Message != "" {
		return wrapped.Error.Message, fmt.Sprint(wrapped.Error.Code)
	}
	return wrapped.Message, ""
}

func unknownModel(msg, code string) bool {
	lower := strings.ToLower(msg)
	return code == "model_not_found" ||
		strings.Contains(lower, "model not found") ||
		(strings.Contains(lower, "model") && strings.Contains(lower, "does not exist"))
}

func statusText(code int, status string) string {
	if status != "" {
		return status
	}
	if text := http.StatusText(code); text != "" {
		return fmt.Sprintf("%d %s", code, text)
	}
	return fmt.Sprintf("HTTP %d", code)
}
