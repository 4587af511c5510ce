package replay

import "fmt"

// Reasons carried by ReplayError. Setup failures use StepIndex -1.
const (
	ReasonInvalidConfig = "invalid_config"
	ReasonInvalidMove   = "invalid_move"
	ReasonOutOfBounds   = "out_of_bounds"
	ReasonEngineInit    = "engine_init_failed"
	ReasonOracleInit    = "oracle_init_failed"
	ReasonGameOver      = "game_over"
	ReasonCellNotHidden = "cell_not_hidden"
	ReasonCellRevealed  = "cell_revealed"
	ReasonNoMove        = "no_move"
	ReasonOracleFailed  = "oracle_failed"
)

// ReplayError reports the first scripted move that could not be applied.
type ReplayError struct {
	StepIndex int32          `json:"step_index"`
	Reason    string         `json:"reason"`
	Message   string         `json:"message"`
	Expected  *ExpectedState `json:"expected,omitempty"`
}

// ExpectedState describes the game the failing step ran against.
type ExpectedState struct {
	Rows    int    `json:"rows,omitempty"`
	Cols    int    `json:"cols,omitempty"`
	Phase   string `json:"phase,omitempty"`
	Outcome string `json:"outcome,omitempty"`
	Status  string `json:"status,omitempty"`
}

func (e *ReplayError) Error() string {
	if e == nil {
		return ""
	}
	if e.StepIndex < 0 {
		return fmt.Sprintf("replay %s: %s", e.Reason, e.Message)
	}
	return fmt.Sprintf("replay step %d %s: %s", e.StepIndex, e.Reason, e.Message)
}
