package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/d60-Lab/pinboard/internal/model"
)

// BoardRow 画板列表项
type BoardRow struct {
	ID                  int64     `json:"id"`
	UserID              int64     `json:"user_id"`
	Username            string    `json:"username"`
	Name                string    `json:"name"`
	Description         string    `json:"description"`
	FriendsOnlyComments bool      `json:"friends_only_comments"`
	PinCount            int64     `json:"pin_count"`
	CreatedAt           time.Time `json:"created_at"`
}

type BoardRepository interface {
	Create(ctx context.Context, b *model.Board) error
	Get(ctx context.Context, id int64) (*model.Board, error)
	Update(ctx context.Context, id int64, fields map[string]any) error
	Delete(ctx context.Context, id int64) error
	ListByUser(ctx context.Context, userID int64) ([]BoardRow, error)
	// PinIDs 原始 pin 在前，便于级联删除时先处理 lineage 根
	PinIDs(ctx context.Context, boardID int64) ([]int64, error)
}

type boardRepository struct {
	db *gorm.DB
}

func NewBoardRepository(db *gorm.DB) BoardRepository { return &boardRepository{db: db} }

func (r *boardRepository) Create(ctx context.Context, b *model.Board) error {
	return r.db.WithContext(ctx).Create(b).Error
}

func (r *boardRepository) Get(ctx context.Context, id int64) (*model.Board, error) {
	var b model.Board
	if err := r.db.WithContext(ctx).First(&b, id).Error; err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *boardRepository) Update(ctx context.Context, id int64, fields map[string]any) error {
	return r.db.WithContext(ctx).Model(&model.Board{}).Where("id = ?", id).Updates(fields).Error
}

func (r *boardRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&model.Board{}, id).Error
}

func (r *boardRepository) ListByUser(ctx context.Context, userID int64) ([]BoardRow, error) {
	var rows []BoardRow
	err := boardRows(r.db.WithContext(ctx)).
		Where("b.user_id = ?", userID).
		Order("b.created_at DESC, b.id DESC").
		Scan(&rows).Error
	return rows, err
}

func (r *boardRepository) PinIDs(ctx context.Context, boardID int64) ([]int64, error) {
	var ids []int64
	err := r.db.WithContext(ctx).Model(&model.Pin{}).
		Where("board_id = ?", boardID).
		Order("CASE WHEN original_pin_id IS NULL THEN 0 ELSE 1 END, id").
		Pluck("id", &ids).Error
	return ids, err
}

const boardColumns = "b.id, b.user_id, u.username, b.name, b.description, b.friends_only_comments, b.created_at, " +
	"(SELECT COUNT(*) FROM pins p WHERE p.board_id = b.id) AS pin_count"

func boardRows(db *gorm.DB) *gorm.DB {
	return db.Table("boards AS b").
		Select(boardColumns).
		Joins("JOIN users u ON u.id = b.user_id")
}
