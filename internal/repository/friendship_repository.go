package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/d60-Lab/pinboard/internal/model"
)

// PendingRow 待处理的好友请求
type PendingRow struct {
	RequesterID int64     `json:"requester_id"`
	Username    string    `json:"username"`
	DisplayName string    `json:"display_name"`
	RequestedAt time.Time `json:"requested_at"`
}

type FriendshipRepository interface {
	// Find 查询无序对对应的行，不存在时返回 (nil, nil)
	Find(ctx context.Context, a, b int64) (*model.Friendship, error)
	Create(ctx context.Context, f *model.Friendship) error
	// Accept 仅更新 pending 行，返回受影响行数
	Accept(ctx context.Context, id int64, at time.Time) (int64, error)
	Delete(ctx context.Context, id int64) (int64, error)
	ListFriends(ctx context.Context, userID int64) ([]UserRow, error)
	ListPending(ctx context.Context, userID int64) ([]PendingRow, error)
	ListFor(ctx context.Context, userID int64, others []int64) ([]model.Friendship, error)
	AreFriends(ctx context.Context, a, b int64) (bool, error)
}

type friendshipRepository struct {
	db *gorm.DB
}

func NewFriendshipRepository(db *gorm.DB) FriendshipRepository {
	return &friendshipRepository{db: db}
}

func (r *friendshipRepository) Find(ctx context.Context, a, b int64) (*model.Friendship, error) {
	low, high := model.OrderedPair(a, b)
	var f model.Friendship
	err := r.db.WithContext(ctx).
		Where("user_low_id = ? AND user_high_id = ?", low, high).
		Take(&f).Error
	if IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *friendshipRepository) Create(ctx context.Context, f *model.Friendship) error {
	f.UserLowID, f.UserHighID = model.OrderedPair(f.UserLowID, f.UserHighID)
	return r.db.WithContext(ctx).Create(f).Error
}

func (r *friendshipRepository) Accept(ctx context.Context, id int64, at time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.Friendship{}).
		Where("id = ? AND status = ?", id, model.FriendshipPending).
		Updates(map[string]any{"status": model.FriendshipAccepted, "accepted_at": at})
	return res.RowsAffected, res.Error
}

func (r *friendshipRepository) Delete(ctx context.Context, id int64) (int64, error) {
	res := r.db.WithContext(ctx).Delete(&model.Friendship{}, id)
	return res.RowsAffected, res.Error
}

func (r *friendshipRepository) ListFriends(ctx context.Context, userID int64) ([]UserRow, error) {
	var rows []UserRow
	err := r.db.WithContext(ctx).Table("friendships AS f").
		Select("u.id, u.username, COALESCE(p.display_name, '') AS display_name, COALESCE(p.picture_url, '') AS picture_url").
		Joins("JOIN users u ON u.id = CASE WHEN f.user_low_id = ? THEN f.user_high_id ELSE f.user_low_id END", userID).
		Joins("LEFT JOIN profiles p ON p.user_id = u.id").
		Where("(f.user_low_id = ? OR f.user_high_id = ?) AND f.status = ?", userID, userID, model.FriendshipAccepted).
		Order("u.username").
		Scan(&rows).Error
	return rows, err
}

// ListPending 只返回别人发给 userID 的请求
func (r *friendshipRepository) ListPending(ctx context.Context, userID int64) ([]PendingRow, error) {
	var rows []PendingRow
	err := r.db.WithContext(ctx).Table("friendships AS f").
		Select("f.requester_id, u.username, COALESCE(p.display_name, '') AS display_name, f.requested_at").
		Joins("JOIN users u ON u.id = f.requester_id").
		Joins("LEFT JOIN profiles p ON p.user_id = u.id").
		Where("(f.user_low_id = ? OR f.user_high_id = ?) AND f.requester_id <> ? AND f.status = ?",
			userID, userID, userID, model.FriendshipPending).
		Order("f.requested_at DESC").
		Scan(&rows).Error
	return rows, err
}

func (r *friendshipRepository) ListFor(ctx context.Context, userID int64, others []int64) ([]model.Friendship, error) {
	if len(others) == 0 {
		return nil, nil
	}
	var res []model.Friendship
	err := r.db.WithContext(ctx).
		Where("(user_low_id = ? AND user_high_id IN ?) OR (user_high_id = ? AND user_low_id IN ?)",
			userID, others, userID, others).
		Find(&res).Error
	return res, err
}

func (r *friendshipRepository) AreFriends(ctx context.Context, a, b int64) (bool, error) {
	low, high := model.OrderedPair(a, b)
	var cnt int64
	err := r.db.WithContext(ctx).Model(&model.Friendship{}).
		Where("user_low_id = ? AND user_high_id = ? AND status = ?", low, high, model.FriendshipAccepted).
		Count(&cnt).Error
	return cnt > 0, err
}
