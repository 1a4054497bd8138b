package users

import (
	"time"

	"github.com/ariefcatur/go-seller-marketplace/internal/auth"
	"github.com/shopspring/decimal"
)

type User struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Email         string          `json:"email"`
	Phone         string          `json:"phone"`
	ShopName      string          `json:"shopName"`
	Identity      string          `json:"identity"`
	Profile       string          `json:"profile"`
	Role          auth.Role       `json:"role"`
	Approved      bool            `json:"approved"`
	PasswordHash  string          `json:"-"`
	CreditAmount  decimal.Decimal `json:"creditAmount"`
	PendingAmount decimal.Decimal `json:"pendingAmount"`
	TotalOrders   int             `json:"totalOrders"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

func (u User) Actor() auth.Actor { return auth.Actor{ID: u.ID, Role: u.Role} }

// Summary is the public projection shown next to conversations.
type Summary struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Email    string    `json:"email"`
	Role     auth.Role `json:"role"`
	Profile  string    `json:"profile"`
	ShopName string    `json:"shopName"`
}

func (u User) Summary() Summary {
	return Summary{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role, Profile: u.Profile, ShopName: u.ShopName}
}

type SignupInput struct {
	Name     string `json:"name" validate:"required,min=2"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Phone    string `json:"phone" validate:"required"`
	ShopName string `json:"shopName" validate:"required"`
	Identity string `json:"identity" validate:"required"`
	Profile  string `json:"profile"`
}

type LoginResult struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}
