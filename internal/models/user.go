// Package models defines the wire types exchanged with the Smile & Gift API.
package models

import (
	"encoding/json"
	"time"
)

// Avatar is a hosted profile image. The API sends either an object or a bare URL.
type Avatar struct {
	URL      string `json:"url"`
	PublicID string `json:"publicId,omitempty"`
}

func (a *Avatar) UnmarshalJSON(data []byte) error {
	var url string
	if err := json.Unmarshal(data, &url); err == nil {
		*a = Avatar{URL: url}
		return nil
	}
	type plain Avatar
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*a = Avatar(p)
	return nil
}

type User struct {
	ID                 string     `json:"_id"`
	Username           string     `json:"username"`
	Email              string     `json:"email,omitempty"`
	FullName           string     `json:"fullName"`
	Avatar             *Avatar    `json:"avatar,omitempty"`
	UpiID              string     `json:"upiId,omitempty"`
	Bio                string     `json:"bio,omitempty"`
	TotalGiftsReceived float64    `json:"totalGiftsReceived"`
	TotalGiftsSent     float64    `json:"totalGiftsSent"`
	PostsCount         int        `json:"postsCount"`
	LikesReceived      int        `json:"likesReceived"`
	IsActive           bool       `json:"isActive"`
	LastLogin          *time.Time `json:"lastLogin,omitempty"`
	CreatedAt          time.Time  `json:"createdAt"`
	UpdatedAt          time.Time  `json:"updatedAt"`
}

// UserPatch carries the fields of a partial profile update. Nil fields are left alone.
type UserPatch struct {
	Username *string
	Email    *string
	FullName *string
	Bio      *string
	UpiID    *string
	Avatar   *Avatar
}

// Apply shallow-merges the non-nil fields of p into u.
func (u *User) Apply(p UserPatch) {
	if p.Username != nil {
		u.Username = *p.Username
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.FullName != nil {
		u.FullName = *p.FullName
	}
	if p.Bio != nil {
		u.Bio = *p.Bio
	}
	if p.UpiID != nil {
		u.UpiID = *p.UpiID
	}
	if p.Avatar != nil {
		avatar := *p.Avatar
		u.Avatar = &avatar
	}
}

// PatchFrom builds a patch that copies the profile fields of u.
func PatchFrom(u *User) UserPatch {
	p := UserPatch{
		Username: &u.Username,
		Email:    &u.Email,
		FullName: &u.FullName,
		Bio:      &u.Bio,
		UpiID:    &u.UpiID,
	}
	if u.Avatar != nil {
		p.Avatar = u.Avatar
	}
	return p
}

type GiftTrend struct {
	ThisWeek float64 `json:"thisWeek"`
	LastWeek float64 `json:"lastWeek"`
	Change   float64 `json:"change"`
}

type PostPerformance struct {
	AverageLikes    float64 `json:"averageLikes"`
	AverageGifts    float64 `json:"averageGifts"`
	TotalEngagement float64 `json:"totalEngagement"`
}

type UserStats struct {
	TotalGiftsReceived float64          `json:"totalGiftsReceived"`
	TotalGiftsSent     float64          `json:"totalGiftsSent"`
	PostsCount         int              `json:"postsCount"`
	LikesReceived      int              `json:"likesReceived"`
	Rank               *int             `json:"rank,omitempty"`
	GiftTrend          *GiftTrend       `json:"giftTrend,omitempty"`
	PostPerformance    *PostPerformance `json:"postPerformance,omitempty"`
}

// RegisterInput is the registration form payload.
type RegisterInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"fullName"`
	UpiID    string `json:"upiId,omitempty"`
}

// ProfileUpdate is the multipart profile update form.
type ProfileUpdate struct {
	FullName        string
	Username        string
	Email           string
	Bio             string
	UpiID           string
	CurrentPassword string
	NewPassword     string
}
