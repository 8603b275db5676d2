// Package migrations embeds the SQL schema shared by the postgres, mysql and
// sqlite leave stores.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
