package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpenseCategory_AttributesSerializeInline(t *testing.T) {
	t.Parallel()

	km := int64(42)
	details := TripDetails{
		Fuel: &ExpenseCategory{
			Amount:     []float64{500, 300},
			Attributes: map[string]any{"station": "X"},
		},
		VehicleServicing: &ExpenseCategory{
			Meter:       []float64{100, 142},
			KmTravelled: &km,
			Attributes:  map[string]any{"garage": "Fixit", "bay": float64(3)},
		},
	}

	data, err := json.Marshal(details)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"fuel": {"amount": [500, 300], "station": "X"},
		"vehicleServicing": {"meter": [100, 142], "kmTravelled": 42, "garage": "Fixit", "bay": 3}
	}`, string(data))

	var decoded TripDetails
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, details, decoded)
}

func TestExpenseCategory_SequenceKeysNeverBecomeAttributes(t *testing.T) {
	t.Parallel()

	var c ExpenseCategory
	require.NoError(t, json.Unmarshal([]byte(`{"amount": [75], "receiptImage": ["uploads/a.jpg"], "provider": "ICICI"}`), &c))

	assert.Equal(t, []float64{75}, c.Amount)
	assert.Equal(t, []string{"uploads/a.jpg"}, c.ReceiptImage)
	assert.Equal(t, map[string]any{"provider": "ICICI"}, c.Attributes)
}

func TestExpenseCategory_SequenceWinsOverClashingAttribute(t *testing.T) {
	t.Parallel()

	c := ExpenseCategory{
		Amount:     []float64{10},
		Attributes: map[string]any{"amount": "bogus"},
	}

	data, err := json.Marshal(c)
	require.NoError(t, err)
	assert.JSONEq(t, `{"amount": [10]}`, string(data))
}

func TestExpenseCategory_EmptyMarshalsToEmptyObject(t *testing.T) {
	t.Parallel()

	data, err := json.Marshal(ExpenseCategory{})
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(data))

	var c ExpenseCategory
	require.NoError(t, json.Unmarshal(data, &c))
	assert.Nil(t, c.Attributes)
}
