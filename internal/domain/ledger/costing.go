package ledger

import (
	"invenda/internal/core/types"
)

// WeightedAverage computes the new average unit cost after an inbound
// movement:
//
//	(previousStock*previousAvg + incomingQty*incomingCost) / (previousStock + incomingQty)
//
// Degenerate case: when the divisor is zero (stock was exactly the
// negative of the incoming quantity, typically both zero), the incoming
// unit cost becomes the new average.
//
// Pure function of its four inputs. No rounding happens here: results
// keep full precision and are rounded to the tenant's currency exponent
// only at persist time, so rounding error never compounds across
// movements.
func WeightedAverage(previousStock types.Qty, previousAvg types.Money, incomingQty types.Qty, incomingCost types.Money) types.Money {
	divisor := previousStock.Add(incomingQty)
	if divisor.IsZero() {
		return incomingCost
	}

	existingValue := previousStock.Mul(previousAvg)
	incomingValue := incomingQty.Mul(incomingCost)

	return existingValue.Add(incomingValue).Div(divisor)
}
