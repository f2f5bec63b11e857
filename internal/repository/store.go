package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// Store 聚合各仓储，可绑定到连接池或某个事务
type Store struct {
	db *gorm.DB

	Users       UserRepository
	Profiles    ProfileRepository
	Friendships FriendshipRepository
	Boards      BoardRepository
	Pictures    PictureRepository
	Tags        TagRepository
	Pins        PinRepository
	Comments    CommentRepository
	Likes       LikeRepository
	Streams     StreamRepository
}

func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:          db,
		Users:       NewUserRepository(db),
		Profiles:    NewProfileRepository(db),
		Friendships: NewFriendshipRepository(db),
		Boards:      NewBoardRepository(db),
		Pictures:    NewPictureRepository(db),
		Tags:        NewTagRepository(db),
		Pins:        NewPinRepository(db),
		Comments:    NewCommentRepository(db),
		Likes:       NewLikeRepository(db),
		Streams:     NewStreamRepository(db),
	}
}

func (s *Store) DB() *gorm.DB { return s.db }

// Transaction 在单个事务内执行 fn，fn 返回错误即整体回滚
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
}

// IsNotFound 判断是否为 gorm 的记录不存在
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
