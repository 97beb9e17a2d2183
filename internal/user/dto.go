// AngelaMos | 2026
// dto.go

package user

import (
	"time"

	"github.com/shopspring/decimal"
)

type SubscribeRequest struct {
	UserID    string `json:"userId"    validate:"required,max=128"`
	IsPremium *bool  `json:"isPremium" validate:"required"`
}

type UserResponse struct {
	ID        string          `json:"id"`
	Balance   decimal.Decimal `json:"balance"`
	IsPremium bool            `json:"isPremium"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

type ListUsersParams struct {
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
	Premium  *bool `json:"premium"`
}

func (p *ListUsersParams) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = 20
	}
	if p.PageSize > 100 {
		p.PageSize = 100
	}
}

func (p *ListUsersParams) Offset() int {
	return (p.Page - 1) * p.PageSize
}

func ToUserResponse(u *User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Balance:   u.Balance,
		IsPremium: u.IsPremium,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func ToUserResponseList(users []User) []UserResponse {
	responses := make([]UserResponse, 0, len(users))
	for i := range users {
		responses = append(responses, ToUserResponse(&users[i]))
	}
	return responses
}
