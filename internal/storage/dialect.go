package storage

import (
	"strconv"
	"strings"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// dialect holds what differs between the supported SQL engines.
type dialect struct {
	schema string
	// numbered placeholders ($1, $2, ...) instead of '?'
	numbered bool
}

var dialects = map[string]dialect{
	DriverSQLite: {
		schema: `CREATE TABLE IF NOT EXISTS corredor (
	seq             INTEGER PRIMARY KEY AUTOINCREMENT,
	numero_corredor INTEGER NOT NULL UNIQUE,
	monitor         TEXT    NOT NULL DEFAULT '',
	tempo_de_atraso TEXT,
	tempo_final     TEXT
)`,
	},
	DriverPostgres: {
		schema: `CREATE TABLE IF NOT EXISTS corredor (
	seq             BIGSERIAL PRIMARY KEY,
	numero_corredor INTEGER NOT NULL UNIQUE,
	monitor         TEXT    NOT NULL DEFAULT '',
	tempo_de_atraso TEXT,
	tempo_final     TEXT
)`,
		numbered: true,
	},
}

// rebind rewrites '?' placeholders for engines that number them.
func (d dialect) rebind(query string) string {
	if !d.numbered {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
