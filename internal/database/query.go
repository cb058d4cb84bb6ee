package database

import (
	"strings"
)

// QueryBuilder converts SQL written with ? placeholders to the dialect's
// placeholder syntax.
type QueryBuilder struct {
	dialect Dialect
}

// NewQueryBuilder creates a new QueryBuilder for the given dialect.
func NewQueryBuilder(dialect Dialect) *QueryBuilder {
	return &QueryBuilder{dialect: dialect}
}

// Build converts ? placeholders. Question marks inside single-quoted
// literals are left alone.
//
// Example:
//
//	input:    "SELECT * FROM generation_log WHERE entry_id = ? AND success = ?"
//	SQLite:   unchanged
//	Postgres: "SELECT * FROM generation_log WHERE entry_id = $1 AND success = $2"
func (qb *QueryBuilder) Build(query string) string {
	if _, ok := qb.dialect.(*SQLiteDialect); ok {
		return query
	}

	var result strings.Builder
	position := 1
	inLiteral := false

	for i := 0; i < len(query); i++ {
		switch {
		case query[i] == '\'':
			inLiteral = !inLiteral
			result.WriteByte(query[i])
		case query[i] == '?' && !inLiteral:
			result.WriteString(qb.dialect.Placeholder(position))
			position++
		default:
			result.WriteByte(query[i])
		}
	}

	return result.String()
}

// BuildWithReturning appends a RETURNING clause if the dialect requires it.
//
// Example:
//
//	input:    "INSERT INTO generation_log (entry_id) VALUES (?)", "id"
//	SQLite:   "INSERT INTO generation_log (entry_id) VALUES (?)"
//	Postgres: "INSERT INTO generation_log (entry_id) VALUES ($1) RETURNING id"
func (qb *QueryBuilder) BuildWithReturning(query string, column string) string {
	converted := qb.Build(query)
	if !qb.dialect.SupportsLastInsertID() {
		converted += qb.dialect.ReturningClause(column)
	}
	return converted
}
