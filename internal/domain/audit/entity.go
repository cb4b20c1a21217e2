package audit

import "time"

// RecordID identifier type
type RecordID string

// Outcome of one generation call.
const (
	OutcomeSuccess     = "success"
	OutcomeUnavailable = "unavailable"
)

// Record is one generation call stored for auditing and retrieval
type Record struct {
	ID        RecordID  `json:"id"`
	SessionID string    `json:"session_id,omitempty"`
	Role      string    `json:"role"`
	Client    string    `json:"client"`
	Model     string    `json:"model"`
	Outcome   string    `json:"outcome"`
	Attempts  int       `json:"attempts"`
	Continued bool      `json:"continued"`
	Reason    string    `json:"reason,omitempty"`
	Response  string    `json:"response,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
