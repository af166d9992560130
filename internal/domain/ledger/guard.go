package ledger

import (
	"invenda/internal/core/apperror"
	"invenda/internal/core/types"
)

// CheckOutbound validates that an outbound quantity does not drive stock
// negative, unless negative stock is explicitly allowed for the product.
//
// Pure predicate: currentStock - quantity >= 0 OR allowNegative.
// Orchestrators may pre-validate multi-line documents for friendlier
// aggregate errors, but this check runs again at write time under the
// product row lock; pre-validation is never a substitute.
func CheckOutbound(productName string, currentStock, quantity types.Qty, allowNegative bool) error {
	if allowNegative {
		return nil
	}

	if currentStock.Sub(quantity).IsNegative() {
		return apperror.NewInsufficientStock(
			productName,
			quantity.String(),
			currentStock.String(),
		)
	}

	return nil
}
