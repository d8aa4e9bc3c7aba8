package models

import "time"

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleOperator Role = "operator"
	RoleUser     Role = "user"
)

// NormalizeRole folds legacy staff roles into operator. Unknown values return "".
func NormalizeRole(raw string) Role {
	switch raw {
	case "admin":
		return RoleAdmin
	case "operator", "moderator", "cashier":
		return RoleOperator
	case "user":
		return RoleUser
	}
	return ""
}

// User represents an account: customers and staff share one collection.
type User struct {
	ID             string    `bson:"_id" json:"id"`
	Name           string    `bson:"name" json:"name"`
	Phone          string    `bson:"phone" json:"phone"`
	PasswordHash   string    `bson:"passwordHash" json:"-"`
	Role           Role      `bson:"role" json:"role"`
	IsActive       bool      `bson:"isActive" json:"isActive"`
	Addresses      []Address `bson:"addresses" json:"addresses"`
	Wishlist       []string  `bson:"wishlist" json:"wishlist"`
	RecentlyViewed []string  `bson:"recentlyViewed" json:"recentlyViewed"`
	CreatedAt      time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time `bson:"updatedAt" json:"updatedAt"`
}
