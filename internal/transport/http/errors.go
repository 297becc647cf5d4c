package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/pribylovaa/go-realty-platform/auth-service/internal/service"
)

// Нестандартный код, часто используемый для "клиент закрыл соединение".
const statusClientClosedRequest = 499

// APIError — единый формат ошибки для клиента.
// Code — короткий стабильный код для машиночитаемой обработки.
// Message — безопасное человекочитаемое описание.
// RequestID — прокидывается из X-Request-Id, если есть (для трассировки).
type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// ErrorResponse — корневой объект в ответе.
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// toHTTP конвертирует ошибку сервисного слоя в HTTP-статус и тело ответа.
//
// Маппинг:
//   - криптографические/структурные отказы и отказы checklist
//     (invalid/expired/revoked/stale/not found, исчезнувший пользователь) -> 401;
//   - ErrPermissionDenied -> 403;
//   - отмена/дедлайн контекста -> 499/504;
//   - ErrJTICollision -> 500;
//   - прочее (недоступное хранилище) -> 503, детали остаются в логах.
func toHTTP(err error) (int, ErrorResponse) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrInvalidToken),
		errors.Is(err, service.ErrTokenExpired),
		errors.Is(err, service.ErrTokenRevoked),
		errors.Is(err, service.ErrTokenNotFound),
		errors.Is(err, service.ErrStaleToken),
		errors.Is(err, service.ErrUserNotFound):
		return http.StatusUnauthorized, errResponse("unauthenticated", "unauthenticated")

	case errors.Is(err, service.ErrPermissionDenied):
		return http.StatusForbidden, errResponse("permission_denied", "permission denied")

	case errors.Is(err, context.Canceled):
		return statusClientClosedRequest, errResponse("canceled", "canceled")

	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, errResponse("deadline_exceeded", "deadline exceeded")

	case errors.Is(err, service.ErrJTICollision):
		return http.StatusInternalServerError, errResponse("internal", "internal error")

	default:
		return http.StatusServiceUnavailable, errResponse("unavailable", "service unavailable")
	}
}

func errResponse(code, message string) ErrorResponse {
	return ErrorResponse{Error: APIError{Code: code, Message: message}}
}

// writeError пишет корректный статус/тело, добавляет request_id из заголовка.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, resp := toHTTP(err)

	if rid := r.Header.Get("X-Request-Id"); rid != "" {
		resp.Error.RequestID = rid
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}
