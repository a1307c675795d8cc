package repositories

import (
	"fmt"
	"strings"

	"site_stores_backend/internal/models"
)

// Site predicates for requestWhere. The placeholder is substituted with $N.
const (
	siteIDPredicate       = "site_id = %[1]s"
	transferSitePredicate = "(from_site_id = %[1]s OR to_site_id = %[1]s)"
)

// requestWhere renders the shared request-listing filters. It returns the clause
// (with leading WHERE when non-empty) and its args.
func requestWhere(f models.RequestFilters, sitePredicate string) (string, []interface{}) {
	var conds []string
	var args []interface{}
	if f.SiteID != nil {
		args = append(args, *f.SiteID)
		conds = append(conds, fmt.Sprintf(sitePredicate, fmt.Sprintf("$%d", len(args))))
	}
	if f.Status != nil {
		args = append(args, string(*f.Status))
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if f.RequestedBy != nil {
		args = append(args, *f.RequestedBy)
		conds = append(conds, fmt.Sprintf("requested_by = $%d", len(args)))
	}
	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func limitClause(limit int, args []interface{}) (string, []interface{}) {
	if limit <= 0 {
		return "", args
	}
	args = append(args, limit)
	return fmt.Sprintf(" LIMIT $%d", len(args)), args
}

// pendingWhere counts pending rows optionally scoped to a site and requester.
func pendingWhere(sitePredicate string, siteID, requestedBy *int64) (string, []interface{}) {
	status := models.RequestPending
	return requestWhere(models.RequestFilters{SiteID: siteID, Status: &status, RequestedBy: requestedBy}, sitePredicate)
}
