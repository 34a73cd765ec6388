package benchmark

import "strings"

// SplitStatements splits SQL text on semicolons, dropping empty statements.
func SplitStatements(sqlText string) []string {
	var stmts []string
	for _, s := range strings.Split(sqlText, ";") {
		if s = strings.TrimSpace(s); s != "" {
			stmts = append(stmts, s)
		}
	}
	return stmts
}

// Statements returns the statements of the query in order.
func (q Query) Statements() []string {
	return SplitStatements(q.SQL)
}
