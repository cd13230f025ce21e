package models

import "time"

// TokenRecord is one capability token as persisted in the token store.
// A token grants its bearer the right to submit exactly one order.
type TokenRecord struct {
	Token           string     `json:"token"`
	CustomerName    string     `json:"customerName"`
	CreatedAt       time.Time  `json:"createdAt"`
	ExpiresAt       time.Time  `json:"expiresAt"`
	Used            bool       `json:"used"`
	UsedAt          *time.Time `json:"usedAt"`
	OrderID         *string    `json:"orderId"`
	Link            string     `json:"link,omitempty"`
	WhatsappMessage string     `json:"whatsappMessage,omitempty"`
	Deleted         bool       `json:"deleted,omitempty"`
	DeletedAt       *time.Time `json:"deletedAt,omitempty"`
}

// Expired reports whether the token's lifetime has elapsed at the given
// instant. ExpiresAt is fixed at creation and never extended.
func (t *TokenRecord) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}
