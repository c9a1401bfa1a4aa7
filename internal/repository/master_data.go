package repository

import (
	"strings"

	"github.com/noah-isme/freightdesk-api/internal/models"
)

// masterDataWhere builds the shared WHERE clause for reference-data lists.
func masterDataWhere(filter models.MasterDataFilter, searchColumns ...string) (string, []interface{}) {
	where := "WHERE 1=1"
	var args []interface{}
	if filter.Active != nil {
		where += " AND active = ?"
		args = append(args, *filter.Active)
	}
	if strings.TrimSpace(filter.Search) != "" && len(searchColumns) > 0 {
		parts := make([]string, len(searchColumns))
		pattern := likePattern(filter.Search)
		for i, col := range searchColumns {
			parts[i] = "LOWER(" + col + ") LIKE ?"
			args = append(args, pattern)
		}
		where += " AND (" + strings.Join(parts, " OR ") + ")"
	}
	return where, args
}
