package models

// Message is a plain informational response body.
type Message struct {
	Message string `json:"message"`
}
