// transport/http содержит REST-эндпоинты auth-сервиса.
// Здесь выполняется только маппинг данных и ошибок доменного слоя (service)
// в HTTP. Вся валидация и бизнес-логика находятся в пакете service.
//
// Контракт:
//   - POST /login          {email, password}  -> 200 пара | 401 | 403;
//   - POST /token/refresh  {access, refresh}  -> 200 новая пара | 401;
//   - POST /logout         {access}           -> 204 | 401;
//   - POST /token/validate {access}           -> 200 {valid,...}; невалидный
//     токен НЕ считается ошибкой RPC — отдаётся {valid:false}.
//
// Безопасность: детали внутренних ошибок наружу не утекают — клиент видит
// нейтральное сообщение, подробности пишутся в лог мидлваром/сервисом.
package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/pribylovaa/go-realty-platform/auth-service/internal/service"
)

// Handlers агрегирует зависимости эндпоинтов.
type Handlers struct {
	service *service.Service
}

// NewHandlers создаёт HTTP-обработчики поверх сервисного слоя.
func NewHandlers(service *service.Service) *Handlers {
	return &Handlers{service: service}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

type logoutRequest struct {
	Access string `json:"access"`
}

type validateRequest struct {
	Access string `json:"access"`
}

type tokenPairResponse struct {
	Access          string `json:"access"`
	Refresh         string `json:"refresh"`
	AccessExpiresAt int64  `json:"access_expires_at"`
}

type validateResponse struct {
	Valid    bool   `json:"valid"`
	UserUUID string `json:"user_uuid,omitempty"`
	Role     string `json:"role,omitempty"`
}

// Login аутентифицирует пользователя и возвращает новую пару токенов.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var in loginRequest
	if err := decodeStrict(r, &in); err != nil {
		writeBadRequest(w, r)
		return
	}

	pair, err := h.service.Login(r.Context(), in.Email, in.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, tokenPairResponse{
		Access:          pair.AccessToken,
		Refresh:         pair.RefreshToken,
		AccessExpiresAt: pair.AccessExpiresAt.Unix(),
	})
}

// Refresh выпускает новую пару токенов, отзывая предъявленную.
func (h *Handlers) Refresh(w http.ResponseWriter, r *http.Request) {
	var in refreshRequest
	if err := decodeStrict(r, &in); err != nil {
		writeBadRequest(w, r)
		return
	}

	pair, err := h.service.Refresh(r.Context(), in.Access, in.Refresh)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, tokenPairResponse{
		Access:          pair.AccessToken,
		Refresh:         pair.RefreshToken,
		AccessExpiresAt: pair.AccessExpiresAt.Unix(),
	})
}

// Logout отзывает access-токен сессии. Повторный вызов тоже отвечает 204.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	var in logoutRequest
	if err := decodeStrict(r, &in); err != nil {
		writeBadRequest(w, r)
		return
	}

	if err := h.service.Logout(r.Context(), in.Access); err != nil {
		writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Validate проверяет access-токен. Невалидный/просроченный/отозванный токен
// не является ошибкой запроса — возвращается {valid:false}.
func (h *Handlers) Validate(w http.ResponseWriter, r *http.Request) {
	var in validateRequest
	if err := decodeStrict(r, &in); err != nil {
		writeBadRequest(w, r)
		return
	}

	claims, err := h.service.ValidateAccess(r.Context(), in.Access)
	if err != nil {
		if errors.Is(err, service.ErrInvalidToken) ||
			errors.Is(err, service.ErrTokenExpired) ||
			errors.Is(err, service.ErrTokenRevoked) {
			writeJSON(w, http.StatusOK, validateResponse{Valid: false})
			return
		}

		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, validateResponse{
		Valid:    true,
		UserUUID: claims.UserUUID,
		Role:     claims.Role,
	})
}

// decodeStrict разбирает JSON-тело, запрещая неизвестные поля.
func decodeStrict(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		return err
	}

	// Ровно один JSON-объект в теле.
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return errors.New("unexpected trailing data")
	}

	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeBadRequest(w http.ResponseWriter, r *http.Request) {
	resp := errResponse("invalid_argument", "invalid argument")
	if rid := r.Header.Get("X-Request-Id"); rid != "" {
		resp.Error.RequestID = rid
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	_ = json.NewEncoder(w).Encode(resp)
}
