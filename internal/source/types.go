package source

// Table names one of the three raw tables of the dataset.
type Table string

// The three tables of the tutorial dataset.
const (
	TableSessions  Table = "sessions"
	TableTutorials Table = "tutorials"
	TableTags      Table = "tags"
)

// Tables lists every table in load order.
var Tables = []Table{TableSessions, TableTutorials, TableTags}

// FileName returns the CSV file name the table is stored under.
func (t Table) FileName() string {
	return string(t) + ".csv"
}

// Kind is the declared type of a raw column.
type Kind int

// Column kinds.
const (
	KindString Kind = iota
	KindInt
	KindTimestamp
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindTimestamp:
		return "timestamp"
	default:
		return "string"
	}
}

// Column declares one raw column. Dropped columns are never coerced.
type Column struct {
	Name     string
	Kind     Kind
	Required bool
	Drop     bool
}

// Schema is the fixed column-type map of a table.
type Schema struct {
	Table   Table
	Columns []Column
}

// SessionsSchema is the column map of sessions.csv.
var SessionsSchema = Schema{
	Table: TableSessions,
	Columns: []Column{
		{Name: "user_id", Kind: KindString, Required: true},
		{Name: "tutorial_id", Kind: KindInt, Required: true},
		{Name: "session_start_at", Kind: KindTimestamp, Required: true},
		{Name: "session_end_at", Kind: KindTimestamp, Required: true},
	},
}

// TutorialsSchema is the column map of tutorials.csv.
var TutorialsSchema = Schema{
	Table: TableTutorials,
	Columns: []Column{
		{Name: "tutorial_id", Kind: KindInt, Required: true},
		{Name: "title", Kind: KindString, Required: true},
		{Name: "slug", Kind: KindString, Drop: true},
		{Name: "description", Kind: KindString, Drop: true},
		{Name: "created_at", Kind: KindTimestamp, Drop: true},
		{Name: "tag_id", Kind: KindInt, Required: true},
	},
}

// TagsSchema is the column map of tags.csv.
var TagsSchema = Schema{
	Table: TableTags,
	Columns: []Column{
		{Name: "id", Kind: KindInt, Required: true},
		{Name: "name", Kind: KindString, Required: true},
		{Name: "description", Kind: KindString, Drop: true},
		{Name: "tag_type", Kind: KindString, Drop: true},
	},
}

// Options controls parsing behavior.
type Options struct {
	// RejectNegativeDurations drops sessions whose end precedes their start.
	RejectNegativeDurations bool
}

// DefaultOptions returns the default parse options.
func DefaultOptions() Options {
	return Options{RejectNegativeDurations: true}
}
