package model

import "time"

type FriendshipStatus string

const (
	FriendshipPending  FriendshipStatus = "pending"
	FriendshipAccepted FriendshipStatus = "accepted"
)

// Friendship 好友关系（无序对，user_low_id < user_high_id）
// 拒绝 / 解除好友直接删除行，不保留状态
type Friendship struct {
	ID          int64            `gorm:"primaryKey"`
	UserLowID   int64            `gorm:"not null;uniqueIndex:idx_friend_pair;check:chk_friend_order,user_low_id < user_high_id"`
	UserHighID  int64            `gorm:"not null;uniqueIndex:idx_friend_pair;index:idx_friend_high"`
	RequesterID int64            `gorm:"not null"`
	Status      FriendshipStatus `gorm:"size:16;not null"`
	RequestedAt time.Time
	AcceptedAt  *time.Time

	UserLow   *User `gorm:"foreignKey:UserLowID"`
	UserHigh  *User `gorm:"foreignKey:UserHighID"`
	Requester *User `gorm:"foreignKey:RequesterID"`
}

func (Friendship) TableName() string { return "friendships" }

// OrderedPair 返回规范顺序的用户对
func OrderedPair(a, b int64) (low, high int64) {
	if a < b {
		return a, b
	}
	return b, a
}
