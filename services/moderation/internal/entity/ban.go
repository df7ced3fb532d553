package entity

import "time"

type Ban struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	Reason    string     `json:"reason"`
	CreatedBy string     `json:"created_by"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt *time.Time `json:"expires_at"`
	LiftedAt  *time.Time `json:"lifted_at,omitempty"`
}

// BanStatus is what clients poll to learn whether their account is suspended.
type BanStatus struct {
	UserID    string     `json:"user_id"`
	Banned    bool       `json:"banned"`
	Reason    string     `json:"reason"`
	ExpiresAt *time.Time `json:"expires_at"`
}
