package store

// Table is the result of an ad hoc query. Columns keep the order the query
// selected them in, which a map per row would lose.
type Table struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

func NewTable(columns []string) *Table {
	return &Table{Columns: columns, Rows: [][]any{}}
}

// Append adds one row. Byte slices are stored as strings since SQL drivers
// hand TEXT back as bytes.
func (t *Table) Append(values []any) {
	row := make([]any, len(values))
	for i, v := range values {
		if b, ok := v.([]byte); ok {
			row[i] = string(b)
			continue
		}
		row[i] = v
	}
	t.Rows = append(t.Rows, row)
}

// Records returns the rows keyed by column name.
func (t *Table) Records() []map[string]any {
	out := make([]map[string]any, 0, len(t.Rows))
	for _, row := range t.Rows {
		rec := make(map[string]any, len(t.Columns))
		for i, col := range t.Columns {
			if i < len(row) {
				rec[col] = row[i]
			}
		}
		out = append(out, rec)
	}
	return out
}

// Column returns the values of one column, or nil if the table has no
// column by that name.
func (t *Table) Column(name string) []any {
	idx := -1
	for i, col := range t.Columns {
		if col == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil
	}
	out := make([]any, 0, len(t.Rows))
	for _, row := range t.Rows {
		out = append(out, row[idx])
	}
	return out
}
