// migrations содержит встраиваемые SQL-миграции схемы БД (goose).
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
