package repository

import (
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

func toNumeric(d decimal.NullDecimal) (pgtype.Numeric, error) {
	var n pgtype.Numeric
	if !d.Valid {
		return n, nil
	}
	err := n.Scan(d.Decimal.String())
	return n, err
}

// fromNumeric maps NULL, NaN and infinities to an invalid NullDecimal so the
// estimator reports them as unusable prices.
func fromNumeric(n pgtype.Numeric) decimal.NullDecimal {
	if !n.Valid || n.NaN || n.InfinityModifier != pgtype.Finite || n.Int == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(decimal.NewFromBigInt(n.Int, n.Exp))
}
