// Package accumulator folds driver trip submissions into an assignment's
// trip details. Every function here is pure: inputs are never mutated.
package accumulator

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"fleetops/internal/domain"
)

// Files maps a multipart file field (for example "receiptImage") to the
// stored references of the files uploaded under it, in upload order.
type Files map[string][]string

// sequence names one of the append-only image sequences of a category.
type sequence int

const (
	seqImage sequence = iota
	seqReceiptImage
	seqTransactionImage
)

// rule describes how one category consumes a submission.
type rule struct {
	amountField string
	meter       bool
	files       map[string]sequence
}

var rules = map[domain.TripCategory]rule{
	domain.TripCategoryFuel: {
		amountField: "amount",
		files: map[string]sequence{
			"receiptImage":     seqReceiptImage,
			"transactionImage": seqTransactionImage,
		},
	},
	domain.TripCategoryFastTag: {
		amountField: "amount",
	},
	domain.TripCategoryTyrePuncture: {
		amountField: "repairAmount",
		files: map[string]sequence{
			"punctureImage": seqImage,
		},
	},
	domain.TripCategoryVehicleServicing: {
		amountField: "amount",
		meter:       true,
		files: map[string]sequence{
			"vehicleServicingImage":        seqImage,
			"vehicleServicingReceiptImage": seqReceiptImage,
		},
	},
	domain.TripCategoryOtherProblems: {
		amountField: "amount",
		files: map[string]sequence{
			"otherProblemsImage": seqImage,
		},
	},
}

// FileFields returns every multipart file field consumed by some category.
func FileFields() []string {
	var fields []string
	for _, category := range domain.TripCategories {
		for field := range rules[category].files {
			fields = append(fields, field)
		}
	}
	return fields
}

// Apply merges a whole driver submission into existing. fields holds the raw
// form values keyed by category name; keys are trimmed before matching. A
// category is processed when its key is present or any of its file fields
// carries attachments. The returned slice lists the categories touched.
func Apply(existing domain.TripDetails, fields map[string]string, files Files) (domain.TripDetails, []domain.TripCategory) {
	sanitized := make(map[string]string, len(fields))
	for k, v := range fields {
		sanitized[strings.TrimSpace(k)] = v
	}

	out := Clone(existing)
	var touched []domain.TripCategory
	for _, category := range domain.TripCategories {
		payload, ok := sanitized[string(category)]
		if !ok && !hasFiles(category, files) {
			continue
		}
		out = Merge(out, category, payload, files)
		touched = append(touched, category)
	}
	return out, touched
}

// Merge folds one category payload and its attachments into existing and
// returns the new trip details. A payload that is not a JSON object is
// treated as empty, so scalars are left alone while files still append.
func Merge(existing domain.TripDetails, category domain.TripCategory, payload string, files Files) domain.TripDetails {
	out := Clone(existing)
	incoming := parseObject(payload)

	if category == domain.TripCategoryLocation {
		out.Location = mergeAttributes(out.Location, incoming)
		return out
	}

	r, ok := rules[category]
	if !ok {
		return out
	}

	c := out.Category(category)
	if c == nil {
		c = &domain.ExpenseCategory{}
	}

	attrs := make(map[string]any, len(incoming))
	for k, v := range incoming {
		if !domain.IsSequenceKey(k) {
			attrs[k] = v
		}
	}
	c.Attributes = mergeAttributes(c.Attributes, attrs)

	if v, ok := incoming[r.amountField]; ok {
		if r.amountField == "repairAmount" {
			c.RepairAmount = append(c.RepairAmount, numbers(v)...)
		} else {
			c.Amount = append(c.Amount, numbers(v)...)
		}
	}

	if r.meter {
		if v, ok := incoming["meter"]; ok {
			c.Meter = append(c.Meter, numbers(v)...)
		}
		km := KmTravelled(c.Meter)
		c.KmTravelled = &km
	}

	for field, seq := range r.files {
		refs := files[field]
		if len(refs) == 0 {
			continue
		}
		switch seq {
		case seqImage:
			c.Image = append(c.Image, refs...)
		case seqReceiptImage:
			c.ReceiptImage = append(c.ReceiptImage, refs...)
		case seqTransactionImage:
			c.TransactionImage = append(c.TransactionImage, refs...)
		}
	}

	out.SetCategory(category, c)
	return out
}

// KmTravelled sums every strictly positive forward difference of the meter
// readings and rounds the result. Resets and misreads contribute nothing.
func KmTravelled(meter []float64) int64 {
	var total float64
	for i := 1; i < len(meter); i++ {
		if diff := meter[i] - meter[i-1]; diff > 0 {
			total += diff
		}
	}
	return int64(math.Round(total))
}

// Clone returns a deep copy of t.
func Clone(t domain.TripDetails) domain.TripDetails {
	out := domain.TripDetails{Location: cloneMap(t.Location)}
	for _, category := range domain.TripCategories {
		if c := t.Category(category); c != nil {
			out.SetCategory(category, cloneCategory(c))
		}
	}
	return out
}

func cloneCategory(c *domain.ExpenseCategory) *domain.ExpenseCategory {
	out := &domain.ExpenseCategory{
		Amount:           append([]float64(nil), c.Amount...),
		RepairAmount:     append([]float64(nil), c.RepairAmount...),
		Meter:            append([]float64(nil), c.Meter...),
		Image:            append([]string(nil), c.Image...),
		ReceiptImage:     append([]string(nil), c.ReceiptImage...),
		TransactionImage: append([]string(nil), c.TransactionImage...),
		Attributes:       cloneMap(c.Attributes),
	}
	if c.KmTravelled != nil {
		km := *c.KmTravelled
		out.KmTravelled = &km
	}
	return out
}

// cloneMap copies m through JSON so nested objects are not shared.
func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		out := make(map[string]any, len(m))
		for k, v := range m {
			out[k] = v
		}
		return out
	}
	var out map[string]any
	_ = json.Unmarshal(data, &out)
	return out
}

func mergeAttributes(existing, incoming map[string]any) map[string]any {
	if len(incoming) == 0 {
		return existing
	}
	out := make(map[string]any, len(existing)+len(incoming))
	for k, v := range existing {
		out[k] = v
	}
	for k, v := range incoming {
		out[k] = v
	}
	return out
}

func parseObject(payload string) map[string]any {
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return map[string]any{}
	}
	var obj map[string]any
	if err := json.Unmarshal([]byte(payload), &obj); err != nil || obj == nil {
		return map[string]any{}
	}
	return obj
}

// numbers coerces a scalar or an array of scalars into numbers.
// Entries that are not numeric are dropped.
func numbers(v any) []float64 {
	switch val := v.(type) {
	case []any:
		var out []float64
		for _, item := range val {
			out = append(out, numbers(item)...)
		}
		return out
	case float64:
		return []float64{val}
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return nil
		}
		return []float64{f}
	}
	return nil
}

func hasFiles(category domain.TripCategory, files Files) bool {
	for field := range rules[category].files {
		if len(files[field]) > 0 {
			return true
		}
	}
	return false
}
