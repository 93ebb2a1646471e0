package domain

import "strings"

// BillingCycle es la periodicidad de cobro de la suscripcion.
type BillingCycle string

const (
	BillingMonthly BillingCycle = "monthly"
	BillingYearly  BillingCycle = "yearly"
)

// ParseBillingCycle trata cualquier valor distinto de "yearly" como mensual.
func ParseBillingCycle(s string) BillingCycle {
	if strings.EqualFold(strings.TrimSpace(s), string(BillingYearly)) {
		return BillingYearly
	}
	return BillingMonthly
}
