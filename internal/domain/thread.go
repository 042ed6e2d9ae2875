package domain

import (
	"fmt"
	"time"
)

type ThreadType string

const (
	ThreadTypePersonal ThreadType = "personal"
	ThreadTypeGroup    ThreadType = "group"
)

// Thread es la conversacion entre un conjunto fijo de usuarios. Para el tipo
// personal el conjunto tiene exactamente dos miembros.
type Thread struct {
	ID        string     `json:"id"`
	Type      ThreadType `json:"type"`
	UserIDs   []string   `json:"users"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// RoomName deriva el nombre de sala del thread. Es una funcion pura del ID:
// toda sesion que resuelva el mismo thread cae en la misma sala, en cualquier
// proceso.
func (t Thread) RoomName() string {
	return fmt.Sprintf("personal_thread_%s", t.ID)
}
