package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type User struct {
	ID           int64           `json:"id"`
	FullName     string          `json:"fullName"`
	Email        string          `json:"email"`
	StudentID    string          `json:"studentId"`
	PasswordHash string          `json:"-"`
	PhoneNumber  string          `json:"phoneNumber"`
	Department   string          `json:"department"`
	Level        string          `json:"level"`
	Balance      decimal.Decimal `json:"balance"`
	TotalRides   int             `json:"totalRides"`
	TotalSpent   decimal.Decimal `json:"totalSpent"`
	IsActive     bool            `json:"isActive"`
	CreatedAt    time.Time       `json:"createdAt"`
}

// UserStats is the dashboard summary shown on the profile page.
type UserStats struct {
	TotalRides     int             `json:"totalRides"`
	TotalSpent     decimal.Decimal `json:"totalSpent"`
	CurrentBalance decimal.Decimal `json:"currentBalance"`
	MemberSince    time.Time       `json:"memberSince"`
}

func (u User) Stats() UserStats {
	return UserStats{
		TotalRides:     u.TotalRides,
		TotalSpent:     u.TotalSpent,
		CurrentBalance: u.Balance,
		MemberSince:    u.CreatedAt,
	}
}
