package repository

import (
	"fmt"
	"strings"

	"github.com/yourusername/machinery-pricer/internal/models"
	"github.com/yourusername/machinery-pricer/internal/pricing"
)

// relevanceExpr mirrors pricing.MatchModel in SQL. $1 is the trimmed query
// model and $2 its family token.
const relevanceExpr = `CASE
		WHEN btrim(%[1]s) = $1::text THEN 100
		WHEN left(btrim(%[1]s), length($1::text)) = $1::text
		  OR left($1::text, length(btrim(%[1]s))) = btrim(%[1]s) THEN 90
		WHEN $2::text <> '' AND split_part(btrim(%[1]s), '-', 1) = $2::text THEN 85
		WHEN $2::text <> '' AND strpos(btrim(%[1]s), $2::text) > 0 THEN 80
		WHEN split_part(btrim(%[1]s), '-', 1) <> ''
		  AND strpos($1::text, split_part(btrim(%[1]s), '-', 1)) > 0 THEN 80
		ELSE 0
	END`

// matchTarget describes the table a comparable-record query reads from.
// Columns must expose the price as "price".
type matchTarget struct {
	Table      string
	Columns    string
	ModelCol   string
	DateExpr   string
	Conditions []string
}

// buildMatchQuery renders the candidate query for q against t. Rows with an
// unusable price sort last so a LIMIT keeps as many usable rows as possible.
func buildMatchQuery(t matchTarget, q models.QuerySpec, limit int) (string, []interface{}) {
	q = q.Normalized()
	args := []interface{}{q.Model, pricing.FamilyToken(q.Model)}
	relevance := fmt.Sprintf(relevanceExpr, t.ModelCol)

	where := []string{fmt.Sprintf("btrim(%s) <> ''", t.ModelCol)}
	where = append(where, t.Conditions...)

	addArg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if lo, hi := q.YearBounds(); lo != nil {
		where = append(where, fmt.Sprintf("(year IS NULL OR year BETWEEN %s AND %s)", addArg(*lo), addArg(*hi)))
	}
	if lo, hi := q.HoursBounds(); lo != nil {
		where = append(where, fmt.Sprintf("(hours IS NULL OR hours BETWEEN %s AND %s)", addArg(*lo), addArg(*hi)))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "SELECT * FROM (\n\tSELECT %s,\n\t%s AS relevance,\n\t%s AS reference_date\n\tFROM %s\n\tWHERE %s\n) matched\nWHERE relevance > 0\n",
		t.Columns, relevance, t.DateExpr, t.Table, strings.Join(where, "\n\t  AND "))
	b.WriteString("ORDER BY (price IS NULL OR price <= 0) ASC, relevance DESC, reference_date DESC NULLS LAST")
	if limit > 0 {
		fmt.Fprintf(&b, "\nLIMIT %s", addArg(limit))
	}
	return b.String(), args
}
