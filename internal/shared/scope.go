package shared

import "fmt"

// Scope identifies the company (and optionally branch) a request acts within.
// Every repository query filters on it; no operation may cross it.
type Scope struct {
	CompanyID int64
	BranchID  int64
}

// Valid reports whether the scope carries a usable company id.
func (s Scope) Valid() bool {
	return s.CompanyID > 0
}

// RequireBranch validates that the scope is branch-qualified.
func (s Scope) RequireBranch() error {
	if !s.Valid() {
		return fmt.Errorf("company scope required: %w", ErrValidation)
	}
	if s.BranchID <= 0 {
		return fmt.Errorf("branch scope required: %w", ErrValidation)
	}
	return nil
}

func (s Scope) String() string {
	if s.BranchID > 0 {
		return fmt.Sprintf("company=%d branch=%d", s.CompanyID, s.BranchID)
	}
	return fmt.Sprintf("company=%d", s.CompanyID)
}
