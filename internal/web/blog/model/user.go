package model

import (
	"time"

	gutils "github.com/Laisky/go-utils/v6"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Laisky/laisky-blog-rest/library/media"
)

// Role user role
type Role string

const (
	// RoleUser normal user
	RoleUser Role = "User"
	// RoleAdmin may edit or delete anything
	RoleAdmin Role = "Admin"
)

// Valid whether r is a known role
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// User blog users
type User struct {
	// ID unique identifier for the user
	ID primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	// Name display name
	Name string `bson:"userName" json:"userName"`
	// Email login account, unique
	Email string `bson:"email" json:"email"`
	// Password bcrypt hash, never serialized to clients
	Password string `bson:"password" json:"-"`
	// Avatar uploaded avatar
	Avatar media.Asset `bson:"avatar" json:"avatar"`
	// Role user role
	Role Role `bson:"role" json:"role"`
	// BlogCount number of blogs written by the user
	BlogCount int `bson:"blogCount" json:"blogCount"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// GetID get id
func (u *User) GetID() string {
	return u.ID.Hex()
}

// IsAdmin is admin
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Profile public part of the user
func (u *User) Profile() *Profile {
	return &Profile{
		ID:     u.ID,
		Name:   u.Name,
		Avatar: u.Avatar,
	}
}

// Profile author info embedded into blogs and comments
type Profile struct {
	ID     primitive.ObjectID `json:"_id"`
	Name   string             `json:"userName"`
	Avatar media.Asset        `json:"avatar"`
}

// NewUser create a new user
func NewUser() *User {
	now := gutils.Clock.GetUTCNow()
	return &User{
		ID:        primitive.NewObjectID(),
		Role:      RoleUser,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
