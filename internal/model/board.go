package model

import "time"

// Board 画板
type Board struct {
	ID                  int64     `gorm:"primaryKey" json:"id"`
	UserID              int64     `gorm:"not null;index:idx_board_user" json:"user_id"`
	User                *User     `json:"-"`
	Name                string    `gorm:"size:100;not null" json:"name"`
	Description         string    `gorm:"type:text" json:"description"`
	FriendsOnlyComments bool      `gorm:"not null;default:false" json:"friends_only_comments"`
	CreatedAt           time.Time `json:"created_at"`
}

func (Board) TableName() string { return "boards" }

// FollowStream 用户自建的画板订阅流
type FollowStream struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	UserID    int64     `gorm:"not null;index:idx_stream_user" json:"user_id"`
	User      *User     `json:"-"`
	Name      string    `gorm:"size:100;not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

func (FollowStream) TableName() string { return "follow_streams" }

type StreamContent struct {
	ID       int64         `gorm:"primaryKey"`
	StreamID int64         `gorm:"not null;uniqueIndex:idx_stream_board"`
	Stream   *FollowStream `gorm:"foreignKey:StreamID"`
	BoardID  int64         `gorm:"not null;uniqueIndex:idx_stream_board;index:idx_stream_content_board"`
	Board    *Board
	AddedAt  time.Time
}

func (StreamContent) TableName() string { return "stream_contents" }
