// Package queue defines message payloads exchanged over the message broker.
package queue

// EmailRequestedEvent is published whenever a confirmation email should be
// sent: on signup and on an explicit re-request. It carries everything the
// consumer needs to compose the message without querying the primary
// database. Token is the signed email-confirmation JWT embedded in the
// link; BaseURL is the public origin the link points back to.
type EmailRequestedEvent struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	BaseURL  string `json:"base_url"`
	Token    string `json:"token"`
}
