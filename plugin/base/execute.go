package base

import (
	"context"
	"database/sql"
	"strings"
	"unicode"

	"github.com/viant/dbkit/plugin"
)

var queryKeywords = map[string]bool{
	"select":   true,
	"with":     true,
	"show":     true,
	"describe": true,
	"desc":     true,
	"explain":  true,
	"pragma":   true,
	"values":   true,
}

var callKeywords = map[string]bool{
	"call":    true,
	"exec":    true,
	"execute": true,
}

// Execute runs command on db. Statements producing a result set return rows,
// others return the write outcome. The command runs as given; scope is not
// applied to unqualified names.
func (p *Plugin) Execute(ctx context.Context, db *sql.DB, scope plugin.Scope, command string, args ...interface{}) (*plugin.Result, error) {
	if IsQuery(command) {
		rows, err := p.query.Query(ctx, db, command, args...)
		if err != nil {
			return nil, err
		}
		return &plugin.Result{Rows: rows}, nil
	}
	if IsCall(command) {
		rows, err := p.query.Run(ctx, db, command, args...)
		if err != nil {
			return nil, err
		}
		return &plugin.Result{Rows: rows}, nil
	}
	if Returns(command) {
		rows, err := p.query.Run(ctx, db, command, args...)
		if err != nil {
			return nil, err
		}
		return &plugin.Result{Rows: rows, RowsAffected: int64(len(rows))}, nil
	}
	result, err := db.ExecContext(ctx, command, args...)
	if err != nil {
		return nil, err
	}
	ret := &plugin.Result{}
	ret.RowsAffected, _ = result.RowsAffected()
	ret.LastInsertID, _ = result.LastInsertId()
	return ret, nil
}

// IsQuery reports whether command starts with a keyword producing rows.
func IsQuery(command string) bool {
	return queryKeywords[leadingKeyword(command)]
}

// IsCall reports whether command invokes a stored procedure.
func IsCall(command string) bool {
	return callKeywords[leadingKeyword(command)]
}

func leadingKeyword(command string) string {
	command = strings.TrimLeftFunc(command, func(r rune) bool {
		return unicode.IsSpace(r) || r == '('
	})
	end := strings.IndexFunc(command, func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	if end == -1 {
		end = len(command)
	}
	return strings.ToLower(command[:end])
}

// Returns reports whether a write statement hands back rows through a
// RETURNING or OUTPUT INSERTED/DELETED clause. Quoted text is ignored.
func Returns(command string) bool {
	words := strings.FieldsFunc(unquoted(command), func(r rune) bool {
		return !unicode.IsLetter(r) && r != '_'
	})
	for i, word := range words {
		switch strings.ToLower(word) {
		case "returning":
			return i > 0
		case "output":
			if i+1 < len(words) {
				next := strings.ToLower(words[i+1])
				if next == "inserted" || next == "deleted" {
					return true
				}
			}
		}
	}
	return false
}

// unquoted blanks out string literals and quoted identifiers.
func unquoted(command string) string {
	ret := []rune(command)
	var quote rune
	for i, r := range ret {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			}
			ret[i] = ' '
		case r == '\'' || r == '"' || r == '`':
			quote = r
			ret[i] = ' '
		}
	}
	return string(ret)
}
