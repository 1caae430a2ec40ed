package validation

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestValidators(t *testing.T) {
	v := make(Violations)
	Required("content", "   ", v)
	PositiveInt(Item("items", 1, "quantity"), 0, v)
	PositiveID("sku_id", 0, v)
	NonNegativeInt("new_quantity", -1, v)
	NonNegativeDecimal("unit_price", decimal.NewFromFloat(-0.01), v)
	OneOf("direction", "SIDEWAYS", []string{"INBOUND", "OUTBOUND"}, v)

	want := map[string]string{
		"content":            "required",
		"items[1].quantity":  "must_be_positive",
		"sku_id":             "required",
		"new_quantity":       "must_not_be_negative",
		"unit_price":         "must_not_be_negative",
		"direction":          "invalid",
	}
	if len(v) != len(want) {
		t.Fatalf("got %d violations want %d: %v", len(v), len(want), v)
	}
	for k, code := range want {
		if v[k] != code {
			t.Errorf("%s = %q, want %q", k, v[k], code)
		}
	}
}

func TestAddKeepsFirstViolation(t *testing.T) {
	v := make(Violations)
	v.Add("items", "required")
	v.Add("items", "invalid")
	if v["items"] != "required" {
		t.Fatalf("expected first violation to win, got %q", v["items"])
	}
	if v.Empty() {
		t.Fatalf("expected non-empty violations")
	}
}

func TestValidValuesPass(t *testing.T) {
	v := make(Violations)
	Required("content", "sent quote", v)
	PositiveInt("quantity", 3, v)
	NonNegativeInt("old_quantity", 0, v)
	NonNegativeDecimal("unit_price", decimal.Zero, v)
	OneOf("direction", "INBOUND", []string{"INBOUND", "OUTBOUND"}, v)
	if !v.Empty() {
		t.Fatalf("expected no violations, got %v", v)
	}
}
