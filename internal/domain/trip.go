package domain

import "encoding/json"

// TripCategory names one section of an assignment's trip details.
type TripCategory string

const (
	TripCategoryLocation         TripCategory = "location"
	TripCategoryFuel             TripCategory = "fuel"
	TripCategoryFastTag          TripCategory = "fastTag"
	TripCategoryTyrePuncture     TripCategory = "tyrePuncture"
	TripCategoryVehicleServicing TripCategory = "vehicleServicing"
	TripCategoryOtherProblems    TripCategory = "otherProblems"
)

// TripCategories lists every category in the order updates are applied.
var TripCategories = []TripCategory{
	TripCategoryLocation,
	TripCategoryFuel,
	TripCategoryFastTag,
	TripCategoryTyrePuncture,
	TripCategoryVehicleServicing,
	TripCategoryOtherProblems,
}

// TripDetails accumulates everything a driver reports over the life of a trip.
type TripDetails struct {
	Location         map[string]any   `json:"location,omitempty"`
	Fuel             *ExpenseCategory `json:"fuel,omitempty"`
	FastTag          *ExpenseCategory `json:"fastTag,omitempty"`
	TyrePuncture     *ExpenseCategory `json:"tyrePuncture,omitempty"`
	VehicleServicing *ExpenseCategory `json:"vehicleServicing,omitempty"`
	OtherProblems    *ExpenseCategory `json:"otherProblems,omitempty"`
}

// ExpenseCategory holds the append-only sequences and the shallow-merged
// scalar attributes of one expense category. Attributes are serialized
// inline, next to the sequences.
type ExpenseCategory struct {
	Amount           []float64      `json:"amount,omitempty"`
	RepairAmount     []float64      `json:"repairAmount,omitempty"`
	Meter            []float64      `json:"meter,omitempty"`
	KmTravelled      *int64         `json:"kmTravelled,omitempty"`
	Image            []string       `json:"image,omitempty"`
	ReceiptImage     []string       `json:"receiptImage,omitempty"`
	TransactionImage []string       `json:"transactionImage,omitempty"`
	Attributes       map[string]any `json:"-"`
}

// expenseSequences carries the typed fields without the custom codec.
type expenseSequences ExpenseCategory

// MarshalJSON writes attributes at category level. Sequence keys win over
// an attribute of the same name.
func (c ExpenseCategory) MarshalJSON() ([]byte, error) {
	seqs, err := json.Marshal(expenseSequences(c))
	if err != nil {
		return nil, err
	}
	if len(c.Attributes) == 0 {
		return seqs, nil
	}

	out := make(map[string]any, len(c.Attributes))
	for k, v := range c.Attributes {
		out[k] = v
	}
	var typed map[string]json.RawMessage
	if err := json.Unmarshal(seqs, &typed); err != nil {
		return nil, err
	}
	for k, v := range typed {
		out[k] = v
	}
	return json.Marshal(out)
}

// UnmarshalJSON routes the sequence keys to their fields and every other
// key into Attributes.
func (c *ExpenseCategory) UnmarshalJSON(data []byte) error {
	var seqs expenseSequences
	if err := json.Unmarshal(data, &seqs); err != nil {
		return err
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for k, v := range raw {
		if IsSequenceKey(k) {
			continue
		}
		var value any
		if err := json.Unmarshal(v, &value); err != nil {
			return err
		}
		if seqs.Attributes == nil {
			seqs.Attributes = make(map[string]any)
		}
		seqs.Attributes[k] = value
	}

	*c = ExpenseCategory(seqs)
	return nil
}

// IsSequenceKey reports whether key names one of the typed sequences of an
// expense category rather than a free-form attribute.
func IsSequenceKey(key string) bool {
	return sequenceKeys[key]
}

var sequenceKeys = map[string]bool{
	"amount":           true,
	"repairAmount":     true,
	"meter":            true,
	"kmTravelled":      true,
	"image":            true,
	"receiptImage":     true,
	"transactionImage": true,
}

// Category returns the expense category stored under name, or nil.
// Location is not an expense category and always yields nil.
func (t *TripDetails) Category(name TripCategory) *ExpenseCategory {
	switch name {
	case TripCategoryFuel:
		return t.Fuel
	case TripCategoryFastTag:
		return t.FastTag
	case TripCategoryTyrePuncture:
		return t.TyrePuncture
	case TripCategoryVehicleServicing:
		return t.VehicleServicing
	case TripCategoryOtherProblems:
		return t.OtherProblems
	}
	return nil
}

// SetCategory replaces the expense category stored under name.
func (t *TripDetails) SetCategory(name TripCategory, c *ExpenseCategory) {
	switch name {
	case TripCategoryFuel:
		t.Fuel = c
	case TripCategoryFastTag:
		t.FastTag = c
	case TripCategoryTyrePuncture:
		t.TyrePuncture = c
	case TripCategoryVehicleServicing:
		t.VehicleServicing = c
	case TripCategoryOtherProblems:
		t.OtherProblems = c
	}
}
