package risk

import "fmt"

// Base ceilings applied to every account; a crisis regime halves all three.
const (
	BaseMaxDailyLossPct      = 0.03
	BaseMaxTotalExposurePct  = 0.80
	BaseMaxSinglePositionPct = 0.10

	// Assumed adverse move used to reserve daily-loss budget per order.
	assumedAdverseMovePct = 0.03
)

// Limits evaluates orders and the whole account against exposure, loss and
// position ceilings. All percentages are fractions of TotalCapital.
type Limits struct {
	TotalCapital         float64
	MaxDailyLossPct      float64
	MaxTotalExposurePct  float64
	MaxSinglePositionPct float64
}

// NewLimits builds limits from total capital. Crisis regimes halve every
// ceiling.
func NewLimits(totalCapital float64, crisis bool) Limits {
	l := Limits{
		TotalCapital:         totalCapital,
		MaxDailyLossPct:      BaseMaxDailyLossPct,
		MaxTotalExposurePct:  BaseMaxTotalExposurePct,
		MaxSinglePositionPct: BaseMaxSinglePositionPct,
	}
	if crisis {
		l.MaxDailyLossPct /= 2
		l.MaxTotalExposurePct /= 2
		l.MaxSinglePositionPct /= 2
	}
	return l
}

// MaxDailyLoss returns the daily loss ceiling in currency units.
func (l Limits) MaxDailyLoss() float64 {
	return l.TotalCapital * l.MaxDailyLossPct
}

// MaxSinglePosition returns the single-position ceiling in currency units.
func (l Limits) MaxSinglePosition() float64 {
	return l.TotalCapital * l.MaxSinglePositionPct
}

// MaxTotalExposure returns the total exposure ceiling in currency units.
func (l Limits) MaxTotalExposure() float64 {
	return l.TotalCapital * l.MaxTotalExposurePct
}

// OrderCheck is the verdict on one proposed order.
type OrderCheck struct {
	Approved    bool
	CappedValue float64
	Reason      string
}

// CheckOrder evaluates one order against the account state. A breached daily
// loss rejects outright; otherwise the order value is capped to the smallest
// of the remaining exposure budget, the single-position ceiling, and the
// daily-loss margin left at the assumed adverse move.
func (l Limits) CheckOrder(orderValue, currentExposure, dailyPnL float64) OrderCheck {
	if dailyPnL <= -l.MaxDailyLoss() {
		return OrderCheck{
			Approved: false,
			Reason: fmt.Sprintf("daily loss limit breached: %.0f of %.0f",
				-dailyPnL, l.MaxDailyLoss()),
		}
	}

	exposureBudget := l.MaxTotalExposure() - currentExposure
	if exposureBudget <= 0 {
		return OrderCheck{Approved: false, Reason: "total exposure budget exhausted"}
	}

	lossMargin := l.MaxDailyLoss() + dailyPnL // dailyPnL is negative when losing
	lossCap := lossMargin / assumedAdverseMovePct

	capped := orderValue
	for _, ceiling := range []float64{exposureBudget, l.MaxSinglePosition(), lossCap} {
		if ceiling < capped {
			capped = ceiling
		}
	}
	if capped <= 0 {
		return OrderCheck{Approved: false, Reason: "no risk budget remaining"}
	}

	return OrderCheck{Approved: true, CappedValue: capped}
}
