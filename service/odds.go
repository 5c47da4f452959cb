package service

import (
	"brawler/models"

	"github.com/shopspring/decimal"
)

var minimumOdds = decimal.RequireFromString("1.10")

// SideScore is a side's aggregate skill estimate: the mean member
// record score (wins+1)/(losses+1).
func SideScore(side []*models.Fighter) decimal.Decimal {
	if len(side) == 0 {
		return decimal.Zero
	}
	total := decimal.Zero
	for _, f := range side {
		total = total.Add(decimal.NewFromFloat(f.SkillScore()))
	}
	return total.Div(decimal.NewFromInt(int64(len(side))))
}

// ComputeOdds maps the two sides' scores to a pair of decimal odds.
// The stronger side gets lower odds: odds[i] = (scoreA + scoreB) / score[i],
// rounded to 2 places and floored at 1.10. Odds are computed once per
// match and never change for its lifetime.
func ComputeOdds(sideA, sideB []*models.Fighter) [2]decimal.Decimal {
	scores := [2]decimal.Decimal{SideScore(sideA), SideScore(sideB)}
	total := scores[0].Add(scores[1])

	var odds [2]decimal.Decimal
	for i, score := range scores {
		if score.IsZero() {
			odds[i] = minimumOdds
			continue
		}
		o := total.Div(score).Round(2)
		if o.LessThan(minimumOdds) {
			o = minimumOdds
		}
		odds[i] = o
	}
	return odds
}

// PoolSeed is the house's initial pool contribution:
// sum of participant popularity * 100, with zero popularity counted as 1.
func PoolSeed(participants []*models.Fighter) int64 {
	var total int64
	for _, f := range participants {
		pop := int64(f.Popularity)
		if pop < 1 {
			pop = 1
		}
		total += pop
	}
	return total * 100
}
