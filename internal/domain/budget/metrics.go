package budget

import (
	"github.com/bizledger/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// Metrics are the derived figures every consumer shows for a budget
type Metrics struct {
	PercentageAchieved decimal.Decimal   `json:"percentage_achieved"`
	AmountToAchieve    valueobject.Money `json:"amount_to_achieve"`
}

// ComputeMetrics derives percentage achieved (0 when budgeted is zero,
// truncated to two digits) and amount to achieve, which goes negative once
// the target is overshot.
func ComputeMetrics(budgeted, achieved valueobject.Money) Metrics {
	pct := achieved.Percentage(budgeted)
	if pct.IsNegative() {
		pct = decimal.Zero
	}
	return Metrics{
		PercentageAchieved: pct,
		AmountToAchieve:    budgeted.Subtract(achieved),
	}
}

// Status buckets a budget by how much of it has been achieved
type Status string

const (
	StatusSafe     Status = "safe"
	StatusOnTrack  Status = "on_track"
	StatusWarning  Status = "warning"
	StatusCritical Status = "critical"
)

var (
	criticalThreshold = decimal.NewFromInt(100)
	warningThreshold  = decimal.NewFromInt(80)
	onTrackThreshold  = decimal.NewFromInt(50)
)

// ClassifyStatus maps a percentage to a Status. Boundaries belong to the
// higher-severity bucket: exactly 100 is critical, 80 warning, 50 on track.
func ClassifyStatus(percentage decimal.Decimal) Status {
	switch {
	case percentage.GreaterThanOrEqual(criticalThreshold):
		return StatusCritical
	case percentage.GreaterThanOrEqual(warningThreshold):
		return StatusWarning
	case percentage.GreaterThanOrEqual(onTrackThreshold):
		return StatusOnTrack
	default:
		return StatusSafe
	}
}
