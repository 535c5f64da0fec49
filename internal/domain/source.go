package domain

// TableSpec is one row of the table listing of a row source.
type TableSpec struct {
	Name   string
	IsView bool
}

// ColumnSpec is one row of the column listing of a row source.
type ColumnSpec struct {
	Table    string
	Name     string
	Position int
	Type     string
	Nullable bool
}

// PrimaryKeySpec names one primary key column.
type PrimaryKeySpec struct {
	Table  string
	Column string
}
