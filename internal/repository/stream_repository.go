package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/d60-Lab/pinboard/internal/model"
)

// StreamBoardRow 订阅流中的画板
type StreamBoardRow struct {
	BoardRow
	AddedAt time.Time `json:"added_at"`
}

type StreamRepository interface {
	Create(ctx context.Context, s *model.FollowStream) error
	Get(ctx context.Context, id int64) (*model.FollowStream, error)
	ListByUser(ctx context.Context, userID int64) ([]model.FollowStream, error)
	Delete(ctx context.Context, id int64) error
	HasBoard(ctx context.Context, streamID, boardID int64) (bool, error)
	AddBoard(ctx context.Context, streamID, boardID int64, at time.Time) error
	RemoveBoard(ctx context.Context, streamID, boardID int64) (int64, error)
	// DetachBoard 将画板从所有订阅流中移除
	DetachBoard(ctx context.Context, boardID int64) (int64, error)
	Boards(ctx context.Context, streamID int64) ([]StreamBoardRow, error)
	BoardIDs(ctx context.Context, streamID int64) ([]int64, error)
	Eligible(ctx context.Context, streamID, ownerID int64, term string, limit int) ([]BoardRow, error)
}

type streamRepository struct {
	db *gorm.DB
}

func NewStreamRepository(db *gorm.DB) StreamRepository { return &streamRepository{db: db} }

func (r *streamRepository) Create(ctx context.Context, s *model.FollowStream) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *streamRepository) Get(ctx context.Context, id int64) (*model.FollowStream, error) {
	var s model.FollowStream
	if err := r.db.WithContext(ctx).First(&s, id).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *streamRepository) ListByUser(ctx context.Context, userID int64) ([]model.FollowStream, error) {
	var res []model.FollowStream
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&res).Error
	return res, err
}

// Delete 先删成员再删流本身
func (r *streamRepository) Delete(ctx context.Context, id int64) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("stream_id = ?", id).Delete(&model.StreamContent{}).Error; err != nil {
		return err
	}
	return db.Delete(&model.FollowStream{}, id).Error
}

func (r *streamRepository) HasBoard(ctx context.Context, streamID, boardID int64) (bool, error) {
	var cnt int64
	err := r.db.WithContext(ctx).Model(&model.StreamContent{}).
		Where("stream_id = ? AND board_id = ?", streamID, boardID).
		Count(&cnt).Error
	return cnt > 0, err
}

func (r *streamRepository) AddBoard(ctx context.Context, streamID, boardID int64, at time.Time) error {
	sc := &model.StreamContent{StreamID: streamID, BoardID: boardID, AddedAt: at}
	return r.db.WithContext(ctx).Create(sc).Error
}

func (r *streamRepository) RemoveBoard(ctx context.Context, streamID, boardID int64) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("stream_id = ? AND board_id = ?", streamID, boardID).
		Delete(&model.StreamContent{})
	return res.RowsAffected, res.Error
}

func (r *streamRepository) DetachBoard(ctx context.Context, boardID int64) (int64, error) {
	res := r.db.WithContext(ctx).Where("board_id = ?", boardID).Delete(&model.StreamContent{})
	return res.RowsAffected, res.Error
}

func (r *streamRepository) Boards(ctx context.Context, streamID int64) ([]StreamBoardRow, error) {
	var rows []StreamBoardRow
	err := boardRows(r.db.WithContext(ctx)).
		Select(boardColumns+", sc.added_at").
		Joins("JOIN stream_contents sc ON sc.board_id = b.id").
		Where("sc.stream_id = ?", streamID).
		Order("sc.added_at DESC, sc.id DESC").
		Scan(&rows).Error
	return rows, err
}

func (r *streamRepository) BoardIDs(ctx context.Context, streamID int64) ([]int64, error) {
	var ids []int64
	err := r.db.WithContext(ctx).Model(&model.StreamContent{}).
		Where("stream_id = ?", streamID).
		Pluck("board_id", &ids).Error
	return ids, err
}

// Eligible 可加入该流的画板：排除已加入的，流主人自己的画板优先，其余按创建时间倒序
func (r *streamRepository) Eligible(ctx context.Context, streamID, ownerID int64, term string, limit int) ([]BoardRow, error) {
	db := r.db.WithContext(ctx)
	existing := db.Model(&model.StreamContent{}).Select("board_id").Where("stream_id = ?", streamID)

	q := boardRows(db).Where("b.id NOT IN (?)", existing)
	if term != "" {
		q = q.Where("LOWER(b.name) LIKE ? ESCAPE '!'", containsPattern(term))
	}
	var rows []BoardRow
	err := q.Order(clause.OrderBy{Expression: clause.Expr{
		SQL:                "CASE WHEN b.user_id = ? THEN 0 ELSE 1 END, b.created_at DESC, b.id DESC",
		Vars:               []any{ownerID},
		WithoutParentheses: true,
	}}).
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}
