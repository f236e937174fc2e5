package domain

// Record is one row of the converter output. Records are values and are never
// mutated after loading; every stage derives new slices from them.
type Record struct {
	TimeIssued string
	TimeValid  string
	Variable   string
	Level      string
	Lon        float64
	Lat        float64
	Value      float64
}

// RecordTable is the loaded tabular input in file order.
type RecordTable struct {
	Records []Record

	// Rejected counts rows skipped by a lenient parse.
	Rejected int
}

// Len returns the number of loaded records.
func (t RecordTable) Len() int {
	return len(t.Records)
}

// ParseMode selects how the table reader treats rows that do not fit the
// seven-column schema.
type ParseMode string

const (
	// ParseStrict aborts the load at the first malformed row.
	ParseStrict ParseMode = "strict"
	// ParseLenient skips malformed rows and counts them in RecordTable.Rejected.
	ParseLenient ParseMode = "lenient"
)

// Valid reports whether m is a known parse mode.
func (m ParseMode) Valid() bool {
	return m == ParseStrict || m == ParseLenient
}
