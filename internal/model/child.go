package model

import "time"

type Child struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Avatar      string    `json:"avatar"`
	ParentEmail string    `json:"parent_email,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
