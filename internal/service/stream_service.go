package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/d60-Lab/pinboard/internal/model"
	"github.com/d60-Lab/pinboard/internal/repository"
	"github.com/d60-Lab/pinboard/pkg/apperr"
)

const (
	eligibleBoardsLimit = 50
	defaultFeedLimit    = 30
)

type StreamDetail struct {
	Stream *model.FollowStream         `json:"stream"`
	Boards []repository.StreamBoardRow `json:"boards"`
}

// StreamService 订阅流：用户自建的画板集合
type StreamService interface {
	CreateStream(ctx context.Context, userID int64, name string) (*model.FollowStream, error)
	ListStreams(ctx context.Context, userID int64) ([]model.FollowStream, error)
	GetStream(ctx context.Context, streamID, userID int64) (*StreamDetail, error)
	AddBoard(ctx context.Context, streamID, boardID, userID int64) error
	RemoveBoard(ctx context.Context, streamID, boardID, userID int64) error
	DeleteStream(ctx context.Context, streamID, userID int64) error
	EligibleBoards(ctx context.Context, streamID, userID int64, term string) ([]repository.BoardRow, error)
	Feed(ctx context.Context, streamID, userID int64, limit, offset int) ([]repository.PinRow, error)
}

type streamService struct {
	store *repository.Store
	now   func() time.Time
}

func NewStreamService(store *repository.Store) StreamService {
	return &streamService{store: store, now: utcNow}
}

func (s *streamService) CreateStream(ctx context.Context, userID int64, name string) (*model.FollowStream, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.InvalidInput("stream name is required")
	}
	st := &model.FollowStream{UserID: userID, Name: name, CreatedAt: s.now()}
	if err := s.store.Streams.Create(ctx, st); err != nil {
		return nil, storeFailure(err, "failed to create stream", zap.Int64("user_id", userID))
	}
	return st, nil
}

func (s *streamService) ListStreams(ctx context.Context, userID int64) ([]model.FollowStream, error) {
	res, err := s.store.Streams.ListByUser(ctx, userID)
	if err != nil {
		return nil, storeFailure(err, "failed to list streams", zap.Int64("user_id", userID))
	}
	return res, nil
}

func (s *streamService) GetStream(ctx context.Context, streamID, userID int64) (*StreamDetail, error) {
	st, err := s.ownedStream(ctx, s.store, streamID, userID)
	if err != nil {
		return nil, err
	}
	boards, err := s.store.Streams.Boards(ctx, streamID)
	if err != nil {
		return nil, storeFailure(err, "failed to load stream boards", zap.Int64("stream_id", streamID))
	}
	return &StreamDetail{Stream: st, Boards: boards}, nil
}

// AddBoard 依次校验：流存在、调用者拥有该流、画板存在、画板未加入
func (s *streamService) AddBoard(ctx context.Context, streamID, boardID, userID int64) error {
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		if _, err := s.ownedStream(ctx, tx, streamID, userID); err != nil {
			return err
		}
		if _, err := tx.Boards.Get(ctx, boardID); err != nil {
			return lookup(err, "board not found", "failed to load board", zap.Int64("board_id", boardID))
		}
		exists, err := tx.Streams.HasBoard(ctx, streamID, boardID)
		if err != nil {
			return err
		}
		if exists {
			return apperr.Conflict("board is already in this stream")
		}
		if err := tx.Streams.AddBoard(ctx, streamID, boardID, s.now()); err != nil {
			if isDuplicate(err) {
				return apperr.Conflict("board is already in this stream")
			}
			return err
		}
		return nil
	})
	if err != nil {
		return storeFailure(err, "failed to add board to stream", zap.Int64("stream_id", streamID), zap.Int64("board_id", boardID))
	}
	return nil
}

func (s *streamService) RemoveBoard(ctx context.Context, streamID, boardID, userID int64) error {
	if _, err := s.ownedStream(ctx, s.store, streamID, userID); err != nil {
		return err
	}
	n, err := s.store.Streams.RemoveBoard(ctx, streamID, boardID)
	if err != nil {
		return storeFailure(err, "failed to remove board from stream", zap.Int64("stream_id", streamID), zap.Int64("board_id", boardID))
	}
	if n == 0 {
		return apperr.NotFound("board is not in this stream")
	}
	return nil
}

func (s *streamService) DeleteStream(ctx context.Context, streamID, userID int64) error {
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		if _, err := s.ownedStream(ctx, tx, streamID, userID); err != nil {
			return err
		}
		return tx.Streams.Delete(ctx, streamID)
	})
	if err != nil {
		return storeFailure(err, "failed to delete stream", zap.Int64("stream_id", streamID))
	}
	return nil
}

func (s *streamService) EligibleBoards(ctx context.Context, streamID, userID int64, term string) ([]repository.BoardRow, error) {
	if _, err := s.ownedStream(ctx, s.store, streamID, userID); err != nil {
		return nil, err
	}
	rows, err := s.store.Streams.Eligible(ctx, streamID, userID, strings.ToLower(strings.TrimSpace(term)), eligibleBoardsLimit)
	if err != nil {
		return nil, storeFailure(err, "failed to list eligible boards", zap.Int64("stream_id", streamID))
	}
	return rows, nil
}

func (s *streamService) Feed(ctx context.Context, streamID, userID int64, limit, offset int) ([]repository.PinRow, error) {
	if _, err := s.ownedStream(ctx, s.store, streamID, userID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultFeedLimit
	}
	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}
	if offset < 0 {
		offset = 0
	}
	ids, err := s.store.Streams.BoardIDs(ctx, streamID)
	if err != nil {
		return nil, storeFailure(err, "failed to load stream boards", zap.Int64("stream_id", streamID))
	}
	rows, err := s.store.Pins.ListByBoards(ctx, ids, offset, limit)
	if err != nil {
		return nil, storeFailure(err, "failed to load stream feed", zap.Int64("stream_id", streamID))
	}
	return rows, nil
}

func (s *streamService) ownedStream(ctx context.Context, st *repository.Store, streamID, userID int64) (*model.FollowStream, error) {
	fs, err := st.Streams.Get(ctx, streamID)
	if err != nil {
		return nil, lookup(err, "stream not found", "failed to load stream", zap.Int64("stream_id", streamID))
	}
	if fs.UserID != userID {
		return nil, apperr.Forbidden("you do not own this stream")
	}
	return fs, nil
}
