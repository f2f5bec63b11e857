package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/d60-Lab/pinboard/internal/model"
)

type CommentRow struct {
	ID          int64     `json:"id"`
	PinID       int64     `json:"pin_id"`
	UserID      int64     `json:"user_id"`
	Username    string    `json:"username"`
	DisplayName string    `json:"display_name"`
	Content     string    `json:"content"`
	CreatedAt   time.Time `json:"created_at"`
}

type CommentRepository interface {
	Create(ctx context.Context, c *model.Comment) error
	Get(ctx context.Context, id int64) (*model.Comment, error)
	Delete(ctx context.Context, id int64) error
	DeleteByPins(ctx context.Context, pinIDs []int64) (int64, error)
	ListByPin(ctx context.Context, pinID int64) ([]CommentRow, error)
}

type commentRepository struct {
	db *gorm.DB
}

func NewCommentRepository(db *gorm.DB) CommentRepository { return &commentRepository{db: db} }

func (r *commentRepository) Create(ctx context.Context, c *model.Comment) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *commentRepository) Get(ctx context.Context, id int64) (*model.Comment, error) {
	var c model.Comment
	if err := r.db.WithContext(ctx).First(&c, id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *commentRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&model.Comment{}, id).Error
}

func (r *commentRepository) DeleteByPins(ctx context.Context, pinIDs []int64) (int64, error) {
	if len(pinIDs) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).Where("pin_id IN ?", pinIDs).Delete(&model.Comment{})
	return res.RowsAffected, res.Error
}

func (r *commentRepository) ListByPin(ctx context.Context, pinID int64) ([]CommentRow, error) {
	var rows []CommentRow
	err := r.db.WithContext(ctx).Table("comments AS c").
		Select("c.id, c.pin_id, c.user_id, u.username, COALESCE(p.display_name, '') AS display_name, c.content, c.created_at").
		Joins("JOIN users u ON u.id = c.user_id").
		Joins("LEFT JOIN profiles p ON p.user_id = u.id").
		Where("c.pin_id = ?", pinID).
		Order("c.created_at DESC, c.id DESC").
		Scan(&rows).Error
	return rows, err
}

type LikeRepository interface {
	// Create 幂等：重复点赞不报错
	Create(ctx context.Context, userID, pictureID int64) error
	Delete(ctx context.Context, userID, pictureID int64) error
	DeleteByPicture(ctx context.Context, pictureID int64) (int64, error)
	Count(ctx context.Context, pictureID int64) (int64, error)
}

type likeRepository struct {
	db *gorm.DB
}

func NewLikeRepository(db *gorm.DB) LikeRepository { return &likeRepository{db: db} }

func (r *likeRepository) Create(ctx context.Context, userID, pictureID int64) error {
	l := &model.Like{UserID: userID, PictureID: pictureID}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(l).Error
}

func (r *likeRepository) Delete(ctx context.Context, userID, pictureID int64) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND picture_id = ?", userID, pictureID).
		Delete(&model.Like{}).Error
}

func (r *likeRepository) DeleteByPicture(ctx context.Context, pictureID int64) (int64, error) {
	res := r.db.WithContext(ctx).Where("picture_id = ?", pictureID).Delete(&model.Like{})
	return res.RowsAffected, res.Error
}

func (r *likeRepository) Count(ctx context.Context, pictureID int64) (int64, error) {
	var cnt int64
	err := r.db.WithContext(ctx).Model(&model.Like{}).Where("picture_id = ?", pictureID).Count(&cnt).Error
	return cnt, err
}
