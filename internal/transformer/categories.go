package transformer

import "labourstat/pkg/records"

// Categories is an open-world categorical dictionary: every distinct value of
// a categorical column gets a stable code in first-seen order. Unseen values
// are always accepted.
type Categories struct {
	codes  map[records.Column]map[string]int
	values map[records.Column][]string
}

// NewCategories returns an empty dictionary.
func NewCategories() *Categories {
	return &Categories{
		codes:  make(map[records.Column]map[string]int),
		values: make(map[records.Column][]string),
	}
}

// Intern registers v under c and returns its code.
func (c *Categories) Intern(col records.Column, v string) int {
	m, ok := c.codes[col]
	if !ok {
		m = make(map[string]int)
		c.codes[col] = m
	}
	if code, ok := m[v]; ok {
		return code
	}
	code := len(c.values[col])
	m[v] = code
	c.values[col] = append(c.values[col], v)
	return code
}

// Values returns the categories of col in first-seen order.
func (c *Categories) Values(col records.Column) []string {
	return append([]string(nil), c.values[col]...)
}

// Len returns the number of categories of col.
func (c *Categories) Len(col records.Column) int { return len(c.values[col]) }
