// Package partiql builds the parameterized PartiQL statements issued
// against the backing table. Arguments are always positional (?), never
// spliced into the statement text.
package partiql

import "strings"

// Comparison operators accepted by SelectRange.
const (
	OpGT  = ">"
	OpGTE = ">="
	OpLT  = "<"
	OpLTE = "<="
)

// Quote returns the table name quoted for PartiQL, with embedded quotes
// doubled.
func Quote(table string) string {
	return `"` + strings.ReplaceAll(table, `"`, `""`) + `"`
}

// Get selects the value cell for one key.
// Parameters: partition, key.
func Get(table string) string {
	return "SELECT v FROM " + Quote(table) + " WHERE p = ? AND k = ?"
}

// Insert adds a row, failing on a duplicate key.
// Parameters: partition, key, value.
func Insert(table string) string {
	return "INSERT INTO " + Quote(table) + " VALUE {'p': ?, 'k': ?, 'v': ?}"
}

// Update replaces the value cell of an existing row, failing when the
// row is absent.
// Parameters: value, partition, key.
func Update(table string) string {
	return "UPDATE " + Quote(table) + " SET v = ? WHERE p = ? AND k = ?"
}

// Delete removes one row, failing when the row is absent.
// Parameters: partition, key.
func Delete(table string) string {
	return "DELETE FROM " + Quote(table) + " WHERE p = ? AND k = ?"
}

// SelectRange selects all rows whose key satisfies every listed
// comparison, ordered by key. Each op in ops appends one "AND k <op> ?"
// clause, so the statement takes one positional argument per op after
// the partition argument.
// Parameters: partition, then one key bound per op.
func SelectRange(table string, ops []string, reverse bool) string {
	var sb strings.Builder
	sb.WriteString("SELECT k, v FROM ")
	sb.WriteString(Quote(table))
	sb.WriteString(" WHERE p = ?")
	for _, op := range ops {
		sb.WriteString(" AND k ")
		sb.WriteString(op)
		sb.WriteString(" ?")
	}
	sb.WriteString(" ORDER BY k")
	if reverse {
		sb.WriteString(" DESC")
	}
	return sb.String()
}
