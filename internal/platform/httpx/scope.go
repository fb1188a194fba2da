package httpx

import (
	"net/http"
	"strconv"

	"github.com/fixpoint-erp/fixpoint/internal/shared"
)

// Header names carrying the tenant scope. The auth gateway in front of this
// service sets both after verifying the caller.
const (
	HeaderCompanyID = "X-Company-ID"
	HeaderBranchID  = "X-Branch-ID"
)

// ScopeFrom reads the tenant scope from request headers. A missing or
// malformed company id yields an invalid scope; handlers reject it.
func ScopeFrom(r *http.Request) shared.Scope {
	companyID, _ := strconv.ParseInt(r.Header.Get(HeaderCompanyID), 10, 64)
	branchID, _ := strconv.ParseInt(r.Header.Get(HeaderBranchID), 10, 64)
	return shared.Scope{CompanyID: companyID, BranchID: branchID}
}
