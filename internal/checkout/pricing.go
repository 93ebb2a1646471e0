package checkout

import (
	"fmt"
	"math"
	"strings"

	"specflow/internal/domain"
)

const (
	BasePrice      = 24.0
	YearlyDiscount = 0.20
	MonthsPerYear  = 12
)

// TaxRateFor es una tabla de impuestos simplificada: dos paises y cero para el resto.
// No sirve como calculo fiscal real.
func TaxRateFor(country string) float64 {
	c := strings.ToLower(strings.TrimSpace(country))
	switch {
	case strings.Contains(c, "united kingdom") || c == "uk":
		return 0.20
	case strings.Contains(c, "canada"):
		return 0.13
	default:
		return 0
	}
}

// Quote es el desglose mostrado al usuario. El cargo real lo calcula el servidor.
type Quote struct {
	Cycle         domain.BillingCycle
	PricePerMonth float64
	Subtotal      float64
	TaxRate       float64
	Tax           float64
	Total         float64
}

func QuoteFor(cycle domain.BillingCycle, country string) Quote {
	q := Quote{Cycle: cycle, PricePerMonth: BasePrice, Subtotal: BasePrice}
	if cycle == domain.BillingYearly {
		q.PricePerMonth = BasePrice * (1 - YearlyDiscount)
		q.Subtotal = BasePrice * MonthsPerYear * (1 - YearlyDiscount)
	}
	q.TaxRate = TaxRateFor(country)
	q.Tax = q.Subtotal * q.TaxRate
	q.Total = q.Subtotal * (1 + q.TaxRate)
	return q
}

// FormatUSD redondea a centavos para mostrar.
func FormatUSD(amount float64) string {
	return fmt.Sprintf("$%.2f", math.Round(amount*100)/100)
}
