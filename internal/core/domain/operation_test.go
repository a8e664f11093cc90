package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOperation_IsRefundable(t *testing.T) {
	tests := []struct {
		name   string
		opType OperationType
		status OperationStatus
		want   bool
	}{
		{"done card transaction", OperationTypeCardTransaction, OperationStatusDone, true},
		{"denied card transaction", OperationTypeCardTransaction, OperationStatusDenied, false},
		{"refunded card transaction", OperationTypeCardTransaction, OperationStatusRefunded, false},
		{"done withdraw", OperationTypeWithdraw, OperationStatusDone, false},
		{"done deposit", OperationTypeDeposit, OperationStatusDone, false},
		{"done refund", OperationTypeRefund, OperationStatusDone, false},
		{"done transfer_out", OperationTypeTransferOut, OperationStatusDone, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			op := Operation{Type: tt.opType, Status: tt.status}
			assert.Equal(t, tt.want, op.IsRefundable())
		})
	}
}

func TestData_Int64_ToleratesDecodedWidths(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  int64
	}{
		{"int64", int64(5000), 5000},
		{"int", 5000, 5000},
		{"int8", int8(42), 42},
		{"int16", int16(1200), 1200},
		{"int32", int32(70000), 70000},
		{"uint8", uint8(200), 200},
		{"uint16", uint16(60000), 60000},
		{"uint64", uint64(5000), 5000},
		{"float64", float64(5000), 5000},
		{"missing", nil, 0},
		{"wrong type", "5000", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Data{}
			if tt.value != nil {
				d["amount"] = tt.value
			}
			assert.Equal(t, tt.want, d.Amount())
		})
	}
}

func TestData_Merge(t *testing.T) {
	general := Data{"a": 1, "b": 2}
	specific := Data{"b": 3, "c": 4}

	merged := general.Merge(specific)

	assert.Equal(t, Data{"a": 1, "b": 3, "c": 4}, merged)
	// Inputs are untouched.
	assert.Equal(t, Data{"a": 1, "b": 2}, general)
	assert.Equal(t, Data{"b": 3, "c": 4}, specific)
}

func TestData_String(t *testing.T) {
	d := Data{"message": "No BRL funds", "amount": int64(10)}

	assert.Equal(t, "No BRL funds", d.String("message"))
	assert.Equal(t, "", d.String("amount"))
	assert.Equal(t, "", d.String("missing"))
}
