package domain

import "time"

// Message es un registro inmutable una vez creado. IsBot marca el unico
// mensaje sintetico de saludo que se inserta cuando el historial esta vacio.
type Message struct {
	ID        string    `json:"id"`
	ThreadID  string    `json:"thread"`
	Sender    User      `json:"sender"`
	Text      string    `json:"text"`
	IsBot     bool      `json:"is_bot"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
