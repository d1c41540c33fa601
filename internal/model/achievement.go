package model

import "time"

type Achievement struct {
	ID           string     `json:"id"`
	ChildID      string     `json:"child_id"`
	TypeKey      string     `json:"type_key"`
	Progress     int        `json:"progress"`
	TargetValue  int        `json:"target_value"`
	UnlockedDate *time.Time `json:"unlocked_date"`
}

func (a Achievement) IsUnlocked() bool {
	return a.UnlockedDate != nil
}
