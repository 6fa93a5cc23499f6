// internal/models/answer.go
package models

// Table is a columnar result set: ordered column names and one tuple of scalars per row.
type Table struct {
	Columns []string        `json:"columns"`
	Rows    [][]interface{} `json:"rows"`
}

// RowCount returns the number of rows, treating a nil table as empty.
func (t *Table) RowCount() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// AnswerResult is what every caller of the interpreter receives. Rows is nil when the
// question was not understood or the query could not be executed.
type AnswerResult struct {
	Success        bool    `json:"success"`
	Answer         string  `json:"answer"`
	Interpretation string  `json:"interpretation"`
	Intent         Intent  `json:"intent"`
	Fallback       bool    `json:"fallback,omitempty"`
	QueryTrace     *string `json:"queryTrace,omitempty"`
	Rows           *Table  `json:"rows,omitempty"`
	ErrorCode      string  `json:"errorCode,omitempty"`
}
