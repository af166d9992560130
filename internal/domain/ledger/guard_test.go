package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invenda/internal/core/apperror"
)

func TestCheckOutbound(t *testing.T) {
	tests := []struct {
		name          string
		currentStock  string
		quantity      string
		allowNegative bool
		wantErr       bool
	}{
		{name: "enough stock", currentStock: "15", quantity: "10", wantErr: false},
		{name: "exact drain to zero is allowed", currentStock: "15", quantity: "15", wantErr: false},
		{name: "overdraw rejected", currentStock: "15", quantity: "20", wantErr: true},
		{name: "overdraw allowed with negative stock flag", currentStock: "15", quantity: "20", allowNegative: true, wantErr: false},
		{name: "zero stock rejects any outbound", currentStock: "0", quantity: "0.001", wantErr: true},
		{name: "already negative with flag", currentStock: "-3", quantity: "1", allowNegative: true, wantErr: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckOutbound("Widget", d(tt.currentStock), d(tt.quantity), tt.allowNegative)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, apperror.IsInsufficientStock(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCheckOutbound_ErrorDetails(t *testing.T) {
	err := CheckOutbound("Widget", d("15"), d("20"), false)
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInsufficientStock, appErr.Code)
	assert.Equal(t, "Widget", appErr.Details["product"])
	assert.Equal(t, "20", appErr.Details["requested"])
	assert.Equal(t, "15", appErr.Details["available"])
}
