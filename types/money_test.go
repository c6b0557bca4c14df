package types

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
)

func TestMoneyConstructors(t *testing.T) {
	tests := []struct {
		name     string
		money    Money
		amount   int64
		currency string
		display  string
	}{
		{"THB", THB(47450), 47450, "thb", "฿474.50"},
		{"USD", USD(4900), 4900, "usd", "$49.00"},
		{"EUR", EUR(19900), 19900, "eur", "€199.00"},
		{"JPY", JPY(100), 100, "jpy", "¥100"},
		{"New lowercases", New(250, "THB"), 250, "thb", "฿2.50"},
		{"Zero THB", Zero("THB"), 0, "thb", "฿0.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.money.Amount != tt.amount {
				t.Errorf("Amount: got %d, want %d", tt.money.Amount, tt.amount)
			}
			if tt.money.Currency != tt.currency {
				t.Errorf("Currency: got %s, want %s", tt.money.Currency, tt.currency)
			}
			if tt.money.String() != tt.display {
				t.Errorf("Display: got %s, want %s", tt.money.String(), tt.display)
			}
		})
	}
}

func TestParseMoney(t *testing.T) {
	tests := []struct {
		in       string
		currency string
		want     Money
	}{
		{"35", "thb", THB(3500)},
		{"35.0", "thb", THB(3500)},
		{" 1,250.50 ", "thb", THB(125050)},
		{"0.005", "thb", THB(1)},
		{"-12.345", "thb", THB(-1235)},
		{"", "thb", THB(0)},
		{"100", "jpy", JPY(100)},
		{"99.5", "jpy", JPY(100)},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMoney(tt.in, tt.currency)
			if err != nil {
				t.Fatalf("ParseMoney(%q): %v", tt.in, err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("ParseMoney(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseMoneyRejectsGarbage(t *testing.T) {
	if _, err := ParseMoney("twelve", "thb"); err == nil {
		t.Error("expected error for non-numeric input")
	}
}

func TestMoneyArithmetic(t *testing.T) {
	tests := []struct {
		name     string
		op       func() Money
		expected Money
	}{
		{"Add", func() Money { return THB(100).Add(THB(200)) }, THB(300)},
		{"Subtract", func() Money { return THB(500).Subtract(THB(200)) }, THB(300)},
		{"Subtract below zero", func() Money { return THB(100).Subtract(THB(500)) }, THB(-400)},
		{"Multiply", func() Money { return THB(3500).Multiply(10) }, THB(35000)},
		{"Negate", func() Money { return THB(100).Negate() }, THB(-100)},
		{"Complex", func() Money {
			return THB(35000).Add(THB(2450)).Add(THB(10000)).Subtract(THB(0))
		}, THB(47450)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.op()
			if !result.Equal(tt.expected) {
				t.Errorf("Got %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestMoneyMulRate(t *testing.T) {
	seven := decimal.RequireFromString("0.07")
	tests := []struct {
		name string
		in   Money
		rate decimal.Decimal
		want Money
	}{
		{"Pallet subtotal", THB(35000), seven, THB(2450)},
		{"Rounds half up", THB(50), seven, THB(4)},    // 3.5 -> 4
		{"Rounds down", THB(49), seven, THB(3)},       // 3.43 -> 3
		{"Negative rounds away", THB(-50), seven, THB(-4)},
		{"Zero rate", THB(35000), decimal.Zero, THB(0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.in.MulRate(tt.rate); !got.Equal(tt.want) {
				t.Errorf("MulRate: got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMoneyDecimalRoundTrip(t *testing.T) {
	m := THB(47450)
	if got := FromDecimal(m.Decimal(), "thb"); !got.Equal(m) {
		t.Errorf("round trip: got %v, want %v", got, m)
	}
	if got := m.Decimal().StringFixed(2); got != "474.50" {
		t.Errorf("Decimal: got %s, want 474.50", got)
	}
}

func TestMoneyCurrencyMismatch(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("Expected panic for currency mismatch")
		}
	}()

	_ = THB(100).Add(USD(100))
}

func TestMoneyPredicates(t *testing.T) {
	tests := []struct {
		name       string
		money      Money
		isZero     bool
		isPositive bool
		isNegative bool
	}{
		{"Zero", THB(0), true, false, false},
		{"Positive", THB(100), false, true, false},
		{"Negative", THB(-100), false, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.money.IsZero(); got != tt.isZero {
				t.Errorf("IsZero: got %v, want %v", got, tt.isZero)
			}
			if got := tt.money.IsPositive(); got != tt.isPositive {
				t.Errorf("IsPositive: got %v, want %v", got, tt.isPositive)
			}
			if got := tt.money.IsNegative(); got != tt.isNegative {
				t.Errorf("IsNegative: got %v, want %v", got, tt.isNegative)
			}
		})
	}
}

func TestMoneyFormatMajor(t *testing.T) {
	tests := []struct {
		money    Money
		expected string
	}{
		{THB(47450), "474.50"},
		{THB(100), "1.00"},
		{THB(1), "0.01"},
		{THB(0), "0.00"},
		{THB(-4900), "-49.00"},
		{THB(-1), "-0.01"},
		{JPY(12345), "12345"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := tt.money.FormatMajor(); got != tt.expected {
				t.Errorf("FormatMajor: got %s, want %s", got, tt.expected)
			}
		})
	}
}

func TestMoneyJSON(t *testing.T) {
	data, err := json.Marshal(THB(47450))
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}

	expected := `{"amount":47450,"currency":"thb","display":"฿474.50"}`
	if string(data) != expected {
		t.Errorf("JSON: got %s, want %s", string(data), expected)
	}
}

func TestSum(t *testing.T) {
	tests := []struct {
		name     string
		values   []Money
		expected Money
	}{
		{"Empty", nil, Zero("thb")},
		{"Single", []Money{THB(100)}, THB(100)},
		{"Multiple", []Money{THB(100), THB(200), THB(300)}, THB(600)},
		{"With negatives", []Money{THB(100), THB(-50), THB(200)}, THB(250)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Sum("thb", tt.values...)
			if !result.Equal(tt.expected) {
				t.Errorf("Sum: got %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestCurrencySymbols(t *testing.T) {
	tests := []struct {
		currency string
		symbol   string
	}{
		{"thb", "฿"},
		{"usd", "$"},
		{"jpy", "¥"},
		{"unknown", "UNKNOWN "},
	}

	for _, tt := range tests {
		t.Run(tt.currency, func(t *testing.T) {
			if got := currencySymbol(tt.currency); got != tt.symbol {
				t.Errorf("Symbol for %s: got %s, want %s", tt.currency, got, tt.symbol)
			}
		})
	}
}

func BenchmarkMoneyMulRate(b *testing.B) {
	m := THB(35000)
	rate := decimal.RequireFromString("0.07")
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = m.MulRate(rate)
	}
}
