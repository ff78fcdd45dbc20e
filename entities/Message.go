package entities

import "time"

const (
	FromPatient    = "patient"
	FromConseiller = "conseiller"
)

type Message struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	From      string    `json:"from"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}
