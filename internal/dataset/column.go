package dataset

// Column type names used by the dictionary and the codebook.
const (
	TypeInteger = "integer"
	TypeNumber  = "number"
	TypeBoolean = "boolean"
	TypeDate    = "date"
	TypeString  = "string"
)

// ColumnInfo is one entry of a per-file column dictionary. Min and Max are
// set for numeric columns only.
type ColumnInfo struct {
	Name        string   `json:"name"`
	Type        string   `json:"type"`
	Description string   `json:"description,omitempty"`
	UniqueCount int      `json:"uniqueCount"`
	Min         *float64 `json:"min,omitempty"`
	Max         *float64 `json:"max,omitempty"`
	NACount     int      `json:"naCount"`
}

// Numeric reports whether the column holds integer or number values.
func (c ColumnInfo) Numeric() bool {
	return c.Type == TypeInteger || c.Type == TypeNumber
}
