package domain

// ScoringMode selects how automatic points are computed for a correct cell.
const (
	ModePub            = "pub"
	ModePooled         = "pooled"
	ModePooledAdaptive = "pooled-adaptive"
)

// Team is one competing team in a show.
type Team struct {
	ShowTeamID string  `json:"showTeamId"`
	TeamName   string  `json:"teamName"`
	ShowBonus  float64 `json:"showBonus"`
}

// Question is one scoreable question. Order is an opaque display label
// ("1", "2a", "Final"); scoring never interprets it.
type Question struct {
	ShowQuestionID string `json:"showQuestionId"`
	Order          string `json:"order"`
}

// Cell is the judged state of one team on one question. A nil IsCorrect
// means the answer has not been judged yet. A non-nil PartialCredit
// overrides the computed point value entirely; BonusPoints are added on
// top of whichever path applies.
type Cell struct {
	IsCorrect     *bool    `json:"isCorrect,omitempty"`
	BonusPoints   float64  `json:"bonusPoints,omitempty"`
	PartialCredit *float64 `json:"partialCredit,omitempty"`
}

// Judged reports whether the cell has been marked correct or incorrect.
func (c Cell) Judged() bool {
	return c.IsCorrect != nil
}

// Correct reports whether the cell has been judged correct.
func (c Cell) Correct() bool {
	return c.IsCorrect != nil && *c.IsCorrect
}

// Grid maps team id to question id to cell. Sparse: a missing cell means
// unanswered and scores zero.
type Grid map[string]map[string]Cell

// CellFor looks up the cell for a team/question pair.
func (g Grid) CellFor(teamID, questionID string) (Cell, bool) {
	row, ok := g[teamID]
	if !ok {
		return Cell{}, false
	}
	cell, ok := row[questionID]
	return cell, ok
}

// SetCell writes the cell for a team/question pair, allocating the row
// if needed.
func (g Grid) SetCell(teamID, questionID string, cell Cell) {
	row, ok := g[teamID]
	if !ok {
		row = make(map[string]Cell)
		g[teamID] = row
	}
	row[questionID] = cell
}

// ScoringConfig is the per-show scoring policy. Read-only to the scoring
// library; set when the show is built.
type ScoringConfig struct {
	Mode             string  `json:"mode"`
	PubPoints        float64 `json:"pubPoints"`
	PoolPerQuestion  float64 `json:"poolPerQuestion"`
	PoolContribution float64 `json:"poolContribution"`
	TeamCount        int     `json:"teamCount"`
}

// LiveState is the mutable payload of a live document: the team roster as
// entered, the answer grid, and the order teams were entered in.
type LiveState struct {
	Teams      []Team   `json:"teams"`
	Grid       Grid     `json:"grid"`
	EntryOrder []string `json:"entryOrder"`
}

// EmptyLiveState returns the zero state a show starts from before any
// document has been saved.
func EmptyLiveState() LiveState {
	return LiveState{
		Teams:      []Team{},
		Grid:       Grid{},
		EntryOrder: []string{},
	}
}

// LiveDocument is the versioned synchronization unit for one show's live
// scoring session. Version starts at 0 and every accepted save increments
// it by exactly one. By records the last writer and is advisory only.
type LiveDocument struct {
	Version   int64     `json:"version"`
	UpdatedAt int64     `json:"updatedAt"`
	State     LiveState `json:"state"`
	By        *string   `json:"by"`
}

// ZeroDocument is the document materialized for a show nobody has saved
// yet: version 0, empty state. Reading it is not an error.
func ZeroDocument() LiveDocument {
	return LiveDocument{Version: 0, State: EmptyLiveState()}
}

// ShowContent is the read-only content package for a show: the scoring
// config plus the teams and questions built during show prep.
type ShowContent struct {
	ShowID    string        `json:"showId"`
	Config    ScoringConfig `json:"config"`
	Teams     []Team        `json:"teams"`
	Questions []Question    `json:"questions"`
}
