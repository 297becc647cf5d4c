package models

import "fmt"

// Role — роль пользователя. Значение попадает в payload access-токена,
// чтобы авторизация по ролям не требовала похода в БД на каждый запрос.
type Role string

const (
	RoleSearcher Role = "searcher"
	RoleRealtor  Role = "realtor"
	RoleAdmin    Role = "admin"
)

// Permission — именованное действие, доступное роли.
type Permission string

const (
	// PermIssueJWT — право на выпуск пары токенов (вход в систему).
	PermIssueJWT Permission = "issue_jwt"
)

// rolePermissions — статическая карта роль -> набор разрешений.
// Карта закрыта для изменения в рантайме; полнота проверяется на старте
// сервиса через ValidateRolePermissions.
var rolePermissions = map[Role]map[Permission]struct{}{
	RoleSearcher: {
		PermIssueJWT: {},
	},
	RoleRealtor: {
		PermIssueJWT: {},
	},
	RoleAdmin: {
		PermIssueJWT: {},
	},
}

// allRoles — полный перечень ролей, известных системе.
var allRoles = []Role{RoleSearcher, RoleRealtor, RoleAdmin}

// Valid сообщает, известна ли роль системе.
func (r Role) Valid() bool {
	for _, known := range allRoles {
		if r == known {
			return true
		}
	}

	return false
}

// HasPermission проверяет, что роли разрешено действие.
// Неизвестная роль не имеет разрешений.
func (r Role) HasPermission(p Permission) bool {
	perms, ok := rolePermissions[r]
	if !ok {
		return false
	}

	_, ok = perms[p]
	return ok
}

// ValidateRolePermissions проверяет полноту карты разрешений:
// каждая известная роль обязана иметь запись. Вызывается на старте сервиса.
func ValidateRolePermissions() error {
	for _, r := range allRoles {
		if _, ok := rolePermissions[r]; !ok {
			return fmt.Errorf("role %q has no permission entry", r)
		}
	}

	return nil
}
