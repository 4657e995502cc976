package scoring

import (
	"sort"

	"github.com/jodyrakow/triviavanguard-show-mode-sub000/internal/domain"
)

// Standing is one row of the ranked scoreboard shown to the audience.
type Standing struct {
	ShowTeamID string  `json:"showTeamId"`
	TeamName   string  `json:"teamName"`
	Total      float64 `json:"total"`
	Rank       int     `json:"rank"`
	Tied       bool    `json:"tied"`
	Answered   int     `json:"answered"`
}

// Standings ranks all teams by total points, descending. Teams on the same
// total share a rank (standard competition ranking: 1, 1, 3) and are
// flagged as tied; team name breaks ties for display order only.
func Standings(teams []domain.Team, questions []domain.Question, grid domain.Grid, cfg domain.ScoringConfig) []Standing {
	counts := CorrectCount(teams, questions, grid)
	totals := TeamTotals(teams, questions, grid, cfg, counts)

	rows := make([]Standing, 0, len(teams))
	for _, t := range teams {
		rows = append(rows, Standing{
			ShowTeamID: t.ShowTeamID,
			TeamName:   t.TeamName,
			Total:      totals[t.ShowTeamID],
			Answered:   answeredBy(t.ShowTeamID, questions, grid),
		})
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Total != rows[j].Total {
			return rows[i].Total > rows[j].Total
		}
		return rows[i].TeamName < rows[j].TeamName
	})

	for i := range rows {
		if i > 0 && rows[i].Total == rows[i-1].Total {
			rows[i].Rank = rows[i-1].Rank
			rows[i].Tied = true
			rows[i-1].Tied = true
		} else {
			rows[i].Rank = i + 1
		}
	}
	return rows
}

// answeredBy counts how many questions a team has a judged cell for.
func answeredBy(teamID string, questions []domain.Question, grid domain.Grid) int {
	n := 0
	for _, q := range questions {
		if cell, ok := grid.CellFor(teamID, q.ShowQuestionID); ok && cell.Judged() {
			n++
		}
	}
	return n
}
