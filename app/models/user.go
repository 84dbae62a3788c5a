package models

import "time"

// User is an account that can authenticate against the API.
type User struct {
	ID          uint    `gorm:"primaryKey"`
	Username    string  `gorm:"size:150;uniqueIndex;not null"`
	Email       string  `gorm:"size:254;not null;default:''"`
	FirstName   string  `gorm:"size:150;not null;default:''"`
	LastName    string  `gorm:"size:150;not null;default:''"`
	Password    string  `gorm:"size:255;not null"` // bcrypt hash
	IsSuperuser bool    `gorm:"not null;default:false"`
	Groups      []Group `gorm:"many2many:user_groups;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Group is a named role membership ("Manager", "Delivery Crew").
type Group struct {
	ID   uint   `gorm:"primaryKey"`
	Name string `gorm:"size:150;uniqueIndex;not null"`
}

// TableName avoids GROUPS, a reserved word in MySQL 8.
func (Group) TableName() string { return "auth_groups" }

// GroupNames returns the names of the groups loaded on u.
func (u User) GroupNames() []string {
	out := make([]string, len(u.Groups))
	for i, g := range u.Groups {
		out[i] = g.Name
	}
	return out
}
