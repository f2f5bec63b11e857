package model

import "time"

// User 账号
type User struct {
	ID           int64     `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"size:64;uniqueIndex;not null" json:"username"`
	Email        string    `gorm:"size:128;uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"size:100;not null" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

func (User) TableName() string { return "users" }

// Profile 个人资料，每个用户至多一条
type Profile struct {
	ID          int64     `gorm:"primaryKey" json:"id"`
	UserID      int64     `gorm:"uniqueIndex;not null" json:"user_id"`
	User        *User     `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	DisplayName string    `gorm:"size:100" json:"display_name"`
	Bio         string    `gorm:"type:text" json:"bio"`
	PictureURL  string    `gorm:"size:512" json:"picture_url"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (Profile) TableName() string { return "profiles" }
