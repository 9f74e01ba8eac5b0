// redact содержит помощники для безопасного логирования идентификаторов:
// e-mail и username маскируются, токены и пароли в логи не попадают вовсе.
package redact

import "strings"

// Email маскирует локальную часть адреса, сохраняя домен.
// Срез по рунам: многобайтовые локальные части не ломаются.
func Email(s string) string {
	parts := strings.Split(s, "@")
	if len(parts) != 2 {
		return "***"
	}

	local, domain := []rune(parts[0]), parts[1]
	if len(local) > 2 {
		return string(local[:2]) + "***@" + domain
	}

	return "***@" + domain
}

// Username оставляет первую руну имени пользователя.
func Username(s string) string {
	r := []rune(s)
	if len(r) <= 1 {
		return "***"
	}

	return string(r[:1]) + "***"
}

func Token() string    { return "[REDACTED_TOKEN]" }
func Password() string { return "[REDACTED_PASSWORD]" }
