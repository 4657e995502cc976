// Package scoring derives scoring facts (per-question counts, per-cell
// points, per-team totals, standings) from an answer grid. Everything here
// is pure: no I/O, no errors, deterministic for a given input.
package scoring

import (
	"math"

	"github.com/jodyrakow/triviavanguard-show-mode-sub000/internal/domain"
)

// AnsweredAll reports, per question, whether every team has a judged cell
// for it. A question with any unjudged or missing cell is not fully
// answered.
func AnsweredAll(teams []domain.Team, questions []domain.Question, grid domain.Grid) map[string]bool {
	out := make(map[string]bool, len(questions))
	for _, q := range questions {
		answered := true
		for _, t := range teams {
			cell, ok := grid.CellFor(t.ShowTeamID, q.ShowQuestionID)
			if !ok || !cell.Judged() {
				answered = false
				break
			}
		}
		out[q.ShowQuestionID] = answered
	}
	return out
}

// CorrectCount counts, per question, how many teams were judged correct.
func CorrectCount(teams []domain.Team, questions []domain.Question, grid domain.Grid) map[string]int {
	out := make(map[string]int, len(questions))
	for _, q := range questions {
		count := 0
		for _, t := range teams {
			if cell, ok := grid.CellFor(t.ShowTeamID, q.ShowQuestionID); ok && cell.Correct() {
				count++
			}
		}
		out[q.ShowQuestionID] = count
	}
	return out
}

// SoloDetect finds, per question, the single team that got it right when
// exactly one did. Only fully answered questions are eligible; everything
// else maps to the empty string. The inner loop bails as soon as a second
// correct team turns up.
func SoloDetect(teams []domain.Team, questions []domain.Question, grid domain.Grid, answeredAll map[string]bool) map[string]string {
	out := make(map[string]string, len(questions))
	for _, q := range questions {
		out[q.ShowQuestionID] = ""
		if !answeredAll[q.ShowQuestionID] {
			continue
		}
		solo := ""
		count := 0
		for _, t := range teams {
			cell, ok := grid.CellFor(t.ShowTeamID, q.ShowQuestionID)
			if !ok || !cell.Correct() {
				continue
			}
			count++
			if count > 1 {
				solo = ""
				break
			}
			solo = t.ShowTeamID
		}
		if count == 1 {
			out[q.ShowQuestionID] = solo
		}
	}
	return out
}

// AutoEarned computes the automatic point value for a correct cell, before
// bonuses. Pooled modes split a pool evenly among every team that got the
// question right and round to the nearest integer, half away from zero.
func AutoEarned(cell domain.Cell, cfg domain.ScoringConfig, correctCount int) float64 {
	if !cell.Correct() {
		return 0
	}
	divisor := float64(correctCount)
	if divisor < 1 {
		divisor = 1
	}
	switch cfg.Mode {
	case domain.ModePub:
		return num(cfg.PubPoints)
	case domain.ModePooledAdaptive:
		pool := float64(cfg.TeamCount) * num(cfg.PoolContribution)
		return math.Round(pool / divisor)
	default:
		// Static pool is also the fallback for unknown modes.
		return math.Round(num(cfg.PoolPerQuestion) / divisor)
	}
}

// CellPoints computes the point value of one cell. A nil cell scores zero.
// A partial-credit override wins over the correctness flag: the judge's
// number plus any bonus, even on a cell judged incorrect.
func CellPoints(cell *domain.Cell, cfg domain.ScoringConfig, correctCount int) float64 {
	if cell == nil {
		return 0
	}
	if cell.PartialCredit != nil {
		return num(*cell.PartialCredit) + num(cell.BonusPoints)
	}
	if !cell.Correct() {
		return 0
	}
	return AutoEarned(*cell, cfg, correctCount) + num(cell.BonusPoints)
}

// TeamTotals sums each team's cell points across all questions plus its
// show bonus. A team with no cells at all totals exactly its show bonus.
func TeamTotals(teams []domain.Team, questions []domain.Question, grid domain.Grid, cfg domain.ScoringConfig, correctCount map[string]int) map[string]float64 {
	out := make(map[string]float64, len(teams))
	for _, t := range teams {
		total := num(t.ShowBonus)
		for _, q := range questions {
			var cellRef *domain.Cell
			if cell, ok := grid.CellFor(t.ShowTeamID, q.ShowQuestionID); ok {
				c := cell
				cellRef = &c
			}
			total += CellPoints(cellRef, cfg, correctCount[q.ShowQuestionID])
		}
		out[t.ShowTeamID] = total
	}
	return out
}

// num coerces NaN and infinities to zero so bad input degrades to "no
// points" instead of poisoning a total.
func num(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
