package repository

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/d60-Lab/pinboard/internal/model"
)

// PinRow pin 的展示视图
type PinRow struct {
	PinID         int64     `json:"pin_id"`
	PictureID     int64     `json:"picture_id"`
	BoardID       int64     `json:"board_id"`
	BoardName     string    `json:"board_name"`
	UserID        int64     `json:"user_id"`
	Username      string    `json:"username"`
	OriginalPinID *int64    `json:"original_pin_id"`
	Description   string    `json:"description"`
	SystemURL     string    `json:"system_url"`
	OriginalURL   string    `json:"original_url"`
	SourceURL     string    `json:"source_url"`
	LikeCount     int64     `json:"like_count"`
	CommentCount  int64     `json:"comment_count"`
	CreatedAt     time.Time `json:"created_at"`
}

// SearchRow 搜索结果，MatchCount 为命中的不同标签数
type SearchRow struct {
	PinRow
	MatchCount int64 `json:"match_count"`
}

type SearchSort string

const (
	SortRelevance SearchSort = "relevance"
	SortTime      SearchSort = "time"
	SortLikes     SearchSort = "likes"
)

type PinRepository interface {
	Create(ctx context.Context, p *model.Pin) error
	Get(ctx context.Context, id int64) (*model.Pin, error)
	RepinIDs(ctx context.Context, originalID int64) ([]int64, error)
	Delete(ctx context.Context, ids []int64) (int64, error)
	Detail(ctx context.Context, id int64) (*PinRow, error)
	ListByBoard(ctx context.Context, boardID int64) ([]PinRow, error)
	ListByBoards(ctx context.Context, boardIDs []int64, offset, limit int) ([]PinRow, error)
	Search(ctx context.Context, tokens []string, sort SearchSort, offset, limit int) ([]SearchRow, error)
	CountByPicture(ctx context.Context, pictureID int64) (int64, error)
}

type pinRepository struct {
	db *gorm.DB
}

func NewPinRepository(db *gorm.DB) PinRepository { return &pinRepository{db: db} }

func (r *pinRepository) Create(ctx context.Context, p *model.Pin) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *pinRepository) Get(ctx context.Context, id int64) (*model.Pin, error) {
	var p model.Pin
	if err := r.db.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *pinRepository) RepinIDs(ctx context.Context, originalID int64) ([]int64, error) {
	var ids []int64
	err := r.db.WithContext(ctx).Model(&model.Pin{}).
		Where("original_pin_id = ?", originalID).
		Order("id").
		Pluck("id", &ids).Error
	return ids, err
}

func (r *pinRepository) Delete(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).Where("id IN ?", ids).Delete(&model.Pin{})
	return res.RowsAffected, res.Error
}

func (r *pinRepository) Detail(ctx context.Context, id int64) (*PinRow, error) {
	var rows []PinRow
	if err := pinRows(r.db.WithContext(ctx)).Where("p.id = ?", id).Limit(1).Scan(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &rows[0], nil
}

func (r *pinRepository) ListByBoard(ctx context.Context, boardID int64) ([]PinRow, error) {
	var rows []PinRow
	err := pinRows(r.db.WithContext(ctx)).
		Where("p.board_id = ?", boardID).
		Order("p.created_at DESC, p.id DESC").
		Scan(&rows).Error
	return rows, err
}

func (r *pinRepository) ListByBoards(ctx context.Context, boardIDs []int64, offset, limit int) ([]PinRow, error) {
	if len(boardIDs) == 0 {
		return nil, nil
	}
	var rows []PinRow
	err := pinRows(r.db.WithContext(ctx)).
		Where("p.board_id IN ?", boardIDs).
		Order("p.created_at DESC, p.id DESC").
		Offset(offset).Limit(limit).
		Scan(&rows).Error
	return rows, err
}

// Search 按标签子串匹配，只返回原始 pin
func (r *pinRepository) Search(ctx context.Context, tokens []string, sort SearchSort, offset, limit int) ([]SearchRow, error) {
	db := r.db.WithContext(ctx)

	conds := make([]string, len(tokens))
	args := make([]any, len(tokens))
	for i, tok := range tokens {
		conds[i] = "t.name LIKE ? ESCAPE '!'"
		args[i] = containsPattern(tok)
	}
	matches := db.Table("picture_tags AS pt").
		Select("pt.picture_id, COUNT(DISTINCT pt.tag_id) AS match_count").
		Joins("JOIN tags t ON t.id = pt.tag_id").
		Where(strings.Join(conds, " OR "), args...).
		Group("pt.picture_id")

	q := pinRows(db).
		Select(pinColumns+", m.match_count").
		Joins("JOIN (?) AS m ON m.picture_id = p.picture_id", matches).
		Where("p.original_pin_id IS NULL")

	switch sort {
	case SortTime:
		q = q.Order("p.created_at DESC")
	case SortLikes:
		q = q.Order("like_count DESC").Order("p.created_at DESC")
	default:
		q = q.Order("m.match_count DESC").Order("like_count DESC").Order("p.created_at DESC")
	}

	var rows []SearchRow
	err := q.Order("p.id DESC").Offset(offset).Limit(limit).Scan(&rows).Error
	return rows, err
}

func (r *pinRepository) CountByPicture(ctx context.Context, pictureID int64) (int64, error) {
	var cnt int64
	err := r.db.WithContext(ctx).Model(&model.Pin{}).Where("picture_id = ?", pictureID).Count(&cnt).Error
	return cnt, err
}

const pinColumns = "p.id AS pin_id, p.picture_id, p.board_id, b.name AS board_name, p.user_id, u.username, " +
	"p.original_pin_id, p.description, pic.system_url, pic.original_url, pic.source_url, p.created_at, " +
	"(SELECT COUNT(*) FROM likes l WHERE l.picture_id = p.picture_id) AS like_count, " +
	"(SELECT COUNT(*) FROM comments c WHERE c.pin_id = p.id) AS comment_count"

func pinRows(db *gorm.DB) *gorm.DB {
	return db.Table("pins AS p").
		Select(pinColumns).
		Joins("JOIN pictures pic ON pic.id = p.picture_id").
		Joins("JOIN boards b ON b.id = p.board_id").
		Joins("JOIN users u ON u.id = p.user_id")
}
