// service содержит бизнес-логику auth-сервиса: аутентификацию по учётным
// данным, выпуск/проверку/ротацию/отзыв пар токенов и работу с хранилищем
// через интерфейсы из пакета storage.
//
// Основные аспекты:
//   - Пакет не хранит состояние запроса внутри Service; экземпляр Service
//     безопасен для конкурентного использования из разных горутин при условии,
//     что переданное хранилище (storage.Storage) потокобезопасно.
//   - Политика "latest tokens only": у пользователя одновременно валидна не
//     более одной пары access/refresh; предъявление токена из вытесненной
//     пары отклоняется независимо от криптографической валидности.
//   - Ошибки возвращаются и далее маппятся транспортом
//     на HTTP-статусы (см. комментарии к переменным ошибок ниже).
package service

import (
	"errors"

	"github.com/pribylovaa/go-realty-platform/auth-service/internal/cache"
	"github.com/pribylovaa/go-realty-platform/auth-service/internal/config"
	"github.com/pribylovaa/go-realty-platform/auth-service/internal/events"
	"github.com/pribylovaa/go-realty-platform/auth-service/internal/storage"
	"github.com/pribylovaa/go-realty-platform/auth-service/internal/tokens"
)

var (
	// ErrInvalidCredentials — пара логин/пароль неверна, пользователь не найден
	// или учётная запись неактивна. Транспорт: HTTP 401.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrPermissionDenied — роли пользователя не разрешён выпуск токенов.
	// Транспорт: HTTP 403.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrInvalidToken — токен (access/refresh) некорректен по формату/подписи.
	// Транспорт: HTTP 401.
	ErrInvalidToken = errors.New("invalid token")

	// ErrTokenExpired — срок действия токена истёк.
	// Транспорт: HTTP 401.
	ErrTokenExpired = errors.New("token expired")

	// ErrTokenRevoked — токен в blacklist и недействителен независимо
	// от срока. Транспорт: HTTP 401.
	ErrTokenRevoked = errors.New("token revoked")

	// ErrTokenNotFound — запись о токене отсутствует в checklist
	// (никогда не выпускался, уже удалён sweeper'ом, либо сессия
	// завершена в другом месте). Транспорт: HTTP 401.
	ErrTokenNotFound = errors.New("token not found")

	// ErrStaleToken — предъявленные jti не совпадают с последней парой
	// пользователя: пара была вытеснена ротацией. Транспорт: HTTP 401.
	ErrStaleToken = errors.New("stale token")

	// ErrUserNotFound — пользователь из payload токена больше не существует
	// или деактивирован. Транспорт: HTTP 401.
	ErrUserNotFound = errors.New("token user not found")

	// ErrJTICollision — исчерпаны попытки сгенерировать уникальный jti
	// (теоретический случай коллизии uuid). Транспорт: HTTP 500.
	ErrJTICollision = errors.New("jti collision")
)

// Service описывает бизнес-логику auth-сервиса.
type Service struct {
	storage storage.Storage
	codec   *tokens.Codec
	cfg     config.AuthConfig
	rcache  cache.RevocationCache // может быть nil, если кэш не сконфигурирован
	events  events.Dispatcher     // может быть nil; тогда события не доставляются
}

// New создаёт новый экземпляр Service.
func New(storage storage.Storage, codec *tokens.Codec, cfg config.AuthConfig) *Service {
	return &Service{
		storage: storage,
		codec:   codec,
		cfg:     cfg,
	}
}

// SetRevocationCache устанавливает кэш отозванных токенов (опционально).
func (s *Service) SetRevocationCache(c cache.RevocationCache) {
	s.rcache = c
}

// SetEventDispatcher устанавливает диспетчер доменных событий (опционально).
func (s *Service) SetEventDispatcher(d events.Dispatcher) {
	s.events = d
}
