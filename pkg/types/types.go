package types

// UnauthorizedColumn is a column read outside its table's allowlist.
type UnauthorizedColumn struct {
	Table  string `json:"table"`
	Column string `json:"column"`
}

// ValidationResult is the verdict on one query for one user.
type ValidationResult struct {
	IsAuthorized        bool                 `json:"isAuthorized"`
	UnauthorizedTables  []string             `json:"unauthorizedTables"`
	UnauthorizedColumns []UnauthorizedColumn `json:"unauthorizedColumns,omitempty"`
	Error               string               `json:"error,omitempty"`
	// Kind is the error code of a rejected query.
	Kind string `json:"kind,omitempty"`
}

// Authorized returns the verdict for a query that may run.
func Authorized() ValidationResult {
	return ValidationResult{IsAuthorized: true, UnauthorizedTables: []string{}}
}
