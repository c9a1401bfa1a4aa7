package export

// Column describes one tabular field. Width is a relative weight used by the
// PDF renderer; zero means an even share.
type Column struct {
	Key   string
	Label string
	Width float64
	Align string
}

// Dataset defines tabular export content.
type Dataset struct {
	Title   string
	Columns []Column
	Rows    []map[string]string
}

// Field is a labelled value printed above or below a document table.
type Field struct {
	Label string
	Value string
}

// Document is a single-record printout such as a quotation.
type Document struct {
	Title    string
	Subtitle string
	Fields   []Field
	Items    Dataset
	Totals   []Field
	Footer   string
}

func (c Column) label() string {
	if c.Label != "" {
		return c.Label
	}
	return c.Key
}
