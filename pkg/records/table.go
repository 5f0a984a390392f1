package records

// Table is an immutable, ordered sequence of records. The zero value is an
// empty table. Every method that changes contents returns a new Table.
type Table struct {
	rows []Record
}

// NewTable copies rows into a new Table.
func NewTable(rows []Record) Table {
	cp := make([]Record, len(rows))
	copy(cp, rows)
	return Table{rows: cp}
}

// Len returns the number of records.
func (t Table) Len() int { return len(t.rows) }

// At returns the i-th record by value.
func (t Table) At(i int) Record { return t.rows[i] }

// Rows returns a copy of the records.
func (t Table) Rows() []Record {
	cp := make([]Record, len(t.rows))
	copy(cp, t.rows)
	return cp
}

// Each calls fn for every record in order.
func (t Table) Each(fn func(Record)) {
	for _, r := range t.rows {
		fn(r)
	}
}

// Filter returns the records for which keep reports true.
func (t Table) Filter(keep func(Record) bool) Table {
	out := make([]Record, 0, len(t.rows))
	for _, r := range t.rows {
		if keep(r) {
			out = append(out, r)
		}
	}
	return Table{rows: out}
}

// Map returns a new table with fn applied to every record. The first error
// aborts the map.
func (t Table) Map(fn func(Record) (Record, error)) (Table, error) {
	out := make([]Record, 0, len(t.rows))
	for _, r := range t.rows {
		nr, err := fn(r)
		if err != nil {
			return Table{}, err
		}
		out = append(out, nr)
	}
	return Table{rows: out}, nil
}

// Values returns the non-null values of a numeric column in row order.
func (t Table) Values(c Column) []float64 {
	out := make([]float64, 0, len(t.rows))
	for _, r := range t.rows {
		if v, ok := r.Number(c); ok {
			out = append(out, v)
		}
	}
	return out
}

// Distinct returns the distinct values of a key column in first-seen order.
func (t Table) Distinct(c Column) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, r := range t.rows {
		v, ok := r.Text(c)
		if !ok {
			return nil
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// InMonths returns the records whose month number lies in [from, to].
func (t Table) InMonths(from, to int) Table {
	return t.Filter(func(r Record) bool {
		return r.MonthNumber >= from && r.MonthNumber <= to
	})
}
