package engine

import "finguard/internal/core"

// Simplified progressive-slab tax model. Illustrative only; this is
// explicitly not a real tax-law calculator.
const (
	slab1 = 400000
	slab2 = 800000
	slab3 = 1200000

	StandardDeductionOld = 50000
	StandardDeductionNew = 75000
	Cap80C               = 150000
	Cap80D               = 25000
)

// EstimateTax computes the slab tax for a taxable income. Roundings are
// half-up at the integer level.
func EstimateTax(taxable float64) int64 {
	switch {
	case taxable <= slab1:
		return 0
	case taxable <= slab2:
		return core.RoundHalfUp((taxable - slab1) * 0.05)
	case taxable <= slab3:
		return core.RoundHalfUp(20000 + (taxable-slab2)*0.10)
	default:
		return core.RoundHalfUp(60000 + (taxable-slab3)*0.15)
	}
}

// TaxInput is one tax-form submission.
type TaxInput struct {
	Income float64        `json:"income"`
	Ded80C float64        `json:"ded80c"`
	Ded80D float64        `json:"ded80d"`
	Regime core.TaxRegime `json:"regime"`
}

// RegimeComparison reports the slab tax under both regimes and which one
// comes out cheaper.
type RegimeComparison struct {
	OldTaxable float64        `json:"oldTaxable"`
	NewTaxable float64        `json:"newTaxable"`
	OldTax     int64          `json:"oldTax"`
	NewTax     int64          `json:"newTax"`
	Better     core.TaxRegime `json:"better"`
	Savings    int64          `json:"savings"`
}

// TaxableIncome applies the selected regime's deductions: the old regime
// itemizes capped deduction categories on top of its standard deduction,
// the new regime takes a flat standard deduction only.
func TaxableIncome(in TaxInput) float64 {
	var taxable float64
	if in.Regime == core.RegimeOld {
		taxable = in.Income - StandardDeductionOld - min(in.Ded80C, Cap80C) - min(in.Ded80D, Cap80D)
	} else {
		taxable = in.Income - StandardDeductionNew
	}
	if taxable < 0 {
		return 0
	}
	return taxable
}

// CompareRegimes computes the slab tax twice, once per regime, and
// reports the cheaper one with the absolute difference as savings.
func CompareRegimes(in TaxInput) RegimeComparison {
	oldIn := in
	oldIn.Regime = core.RegimeOld
	newIn := in
	newIn.Regime = core.RegimeNew

	c := RegimeComparison{
		OldTaxable: TaxableIncome(oldIn),
		NewTaxable: TaxableIncome(newIn),
	}
	c.OldTax = EstimateTax(c.OldTaxable)
	c.NewTax = EstimateTax(c.NewTaxable)
	c.Better = core.RegimeNew
	if c.OldTax < c.NewTax {
		c.Better = core.RegimeOld
	}
	c.Savings = c.OldTax - c.NewTax
	if c.Savings < 0 {
		c.Savings = -c.Savings
	}
	return c
}

// NewTaxSnapshot builds the TaxSnapshot persisted by the store for a
// submission: taxable income under the selected regime and its estimate.
func NewTaxSnapshot(in TaxInput) core.TaxSnapshot {
	taxable := TaxableIncome(in)
	return core.TaxSnapshot{
		Income:   in.Income,
		Taxable:  taxable,
		Regime:   in.Regime,
		Estimate: EstimateTax(taxable),
	}
}
