package event

import "time"

// LoginEventDestination is the subject that receives admin login audit events.
const LoginEventDestination string = "adminotp.login.events"

// LoginEventMessage is the payload published for every login gate transition.
type LoginEventMessage struct {
	PrincipalID int64     `json:"principal_id,omitempty"`
	Mobile      string    `json:"mobile,omitempty"`
	Outcome     string    `json:"outcome"`
	Attempts    int       `json:"attempts,omitempty"`
	ClientIP    string    `json:"client_ip,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
}
