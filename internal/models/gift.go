package models

import (
	"encoding/json"
	"time"
)

type GiftStatus string

const (
	GiftPending   GiftStatus = "pending"
	GiftConfirmed GiftStatus = "confirmed"
	GiftDisputed  GiftStatus = "disputed"
	GiftCancelled GiftStatus = "cancelled"
)

// PaymentMethodUPI is the only payment method gifts use.
const PaymentMethodUPI = "upi"

// ManualTransactionID is the transaction id of a gift recorded without a
// dispatched payment link. Many gifts share it, so it never identifies one.
const ManualTransactionID = "manual-entry-required"

// Gift is a user-to-user payment record tied to a post. Its status is owned by the server.
type Gift struct {
	ID            string     `json:"_id"`
	Sender        *User      `json:"sender,omitempty"`
	Recipient     *User      `json:"recipient,omitempty"`
	PostID        string     `json:"postId"`
	Amount        float64    `json:"amount"`
	TransactionID string     `json:"transactionId"`
	Status        GiftStatus `json:"status"`
	Message       string     `json:"message,omitempty"`
	PaymentMethod string     `json:"paymentMethod"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// UnmarshalJSON accepts "post" as either an id or an embedded post.
func (g *Gift) UnmarshalJSON(data []byte) error {
	type plain Gift
	var raw struct {
		plain
		Post json.RawMessage `json:"post"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*g = Gift(raw.plain)

	if g.PostID == "" && len(raw.Post) > 0 {
		var id string
		if err := json.Unmarshal(raw.Post, &id); err == nil {
			g.PostID = id
		} else {
			var ref struct {
				ID string `json:"_id"`
			}
			if err := json.Unmarshal(raw.Post, &ref); err == nil {
				g.PostID = ref.ID
			}
		}
	}
	return nil
}

// CreateGiftInput is the body of POST /gifts. TransactionID is self-reported and unverified.
type CreateGiftInput struct {
	PostID        string  `json:"postId"`
	Amount        float64 `json:"amount"`
	TransactionID string  `json:"transactionId"`
	Message       string  `json:"message,omitempty"`
}

// GiftDirection selects sent or received gifts of a user.
type GiftDirection string

const (
	GiftsSent     GiftDirection = "sent"
	GiftsReceived GiftDirection = "received"
)

type GiftFilters struct {
	Status GiftStatus
	Page   int
	Limit  int
}

type GiftTotals struct {
	TotalAmount   float64 `json:"totalAmount"`
	TotalCount    int     `json:"totalCount"`
	AverageAmount float64 `json:"averageAmount"`
}

type GiftsPage struct {
	Gifts      []Gift      `json:"gifts"`
	Pagination Pagination  `json:"pagination"`
	Stats      *GiftTotals `json:"stats,omitempty"`
}

type GiftSummary struct {
	Total   int     `json:"total"`
	Amount  float64 `json:"amount"`
	Average float64 `json:"average"`
}

type GiftStats struct {
	Sent      GiftSummary `json:"sent"`
	Received  GiftSummary `json:"received"`
	ThisMonth struct {
		Sent     float64 `json:"sent"`
		Received float64 `json:"received"`
	} `json:"thisMonth"`
	Trend struct {
		Direction  string  `json:"direction"`
		Percentage float64 `json:"percentage"`
	} `json:"trend"`
}
