package resources

import (
	"github.com/shopspring/decimal"
	"github.com/warp/capacity-engine/workday"
)

// factorScale is the precision of the proportional factors.
const factorScale = 4

// =============================================================================
// DISTRIBUTOR - Proportional split by fixed ratios
// =============================================================================

// Distributor splits an amount proportionally to the ratios it was built
// with. Each share is rounded on its own, so shares need not add up to the
// total exactly; the residue is left as is.
//
// EXAMPLE:
//
//	d, _ := NewDistributor(MustAmount("0.8"), MustAmount("0.2"))
//	d.Distribute(MustAmount("10"))  // [8.00 2.00]
//	d.Distribute(MustAmount("1"))   // [0.80 0.20]
type Distributor struct {
	factors []decimal.Decimal
}

// NewDistributor needs at least one ratio. When all ratios are zero the
// amount is split in equal parts.
func NewDistributor(ratios ...ResourcesPerDay) (*Distributor, error) {
	if len(ratios) == 0 {
		return nil, workday.NewArgumentError("resources.NewDistributor", "no ratios given")
	}

	sum := decimal.Zero
	for _, r := range ratios {
		sum = sum.Add(r.amount)
	}

	factors := make([]decimal.Decimal, len(ratios))
	for i, r := range ratios {
		if sum.IsZero() {
			factors[i] = decimal.NewFromInt(1).DivRound(decimal.NewFromInt(int64(len(ratios))), factorScale)
			continue
		}
		factors[i] = r.amount.DivRound(sum, factorScale)
	}
	return &Distributor{factors: factors}, nil
}

// Len is the number of shares Distribute returns.
func (d *Distributor) Len() int { return len(d.factors) }

// Distribute returns one share per ratio, in ratio order.
func (d *Distributor) Distribute(total ResourcesPerDay) []ResourcesPerDay {
	shares := make([]ResourcesPerDay, len(d.factors))
	for i, f := range d.factors {
		// product of two non-negatives, Amount cannot fail
		shares[i] = ResourcesPerDay{amount: total.amount.Mul(f).Round(Scale)}
	}
	return shares
}
