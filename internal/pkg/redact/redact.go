// redact — помощники для безопасного логирования чувствительных значений.
//
// Сервис пишет в лог e-mail при попытках входа и предъявленные токены при
// отказах — и то и другое попадает в лог только в урезанном виде.
package redact

import "strings"

// Email оставляет первые две руны локальной части и домен целиком:
// "foobar@example.com" -> "fo***@example.com". Всё, что не похоже на
// адрес, схлопывается в "***".
func Email(s string) string {
	local, domain, ok := strings.Cut(s, "@")
	if !ok || strings.Contains(domain, "@") {
		return "***"
	}

	r := []rune(local)
	if len(r) <= 2 {
		return "***@" + domain
	}

	return string(r[:2]) + "***@" + domain
}

// Token оставляет короткий префикс подписанного токена для корреляции
// записей лога; по префиксу токен невосстановим.
func Token(signed string) string {
	const keep = 6

	r := []rune(signed)
	if len(r) <= keep {
		return "[REDACTED_TOKEN]"
	}

	return string(r[:keep]) + "***"
}

// Password никогда не раскрывает значение.
func Password() string { return "[REDACTED_PASSWORD]" }
