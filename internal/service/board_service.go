package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/d60-Lab/pinboard/internal/model"
	"github.com/d60-Lab/pinboard/internal/repository"
	"github.com/d60-Lab/pinboard/pkg/apperr"
	"github.com/d60-Lab/pinboard/pkg/logger"
)

type CreateBoardInput struct {
	UserID              int64
	Name                string
	Description         string
	FriendsOnlyComments bool
}

// UpdateBoardInput 为空的字段不修改
type UpdateBoardInput struct {
	Name                *string
	Description         *string
	FriendsOnlyComments *bool
}

type BoardDetail struct {
	Board *model.Board        `json:"board"`
	Pins  []repository.PinRow `json:"pins"`
}

type DeleteBoardResult struct {
	BoardID       int64 `json:"board_id"`
	PinsRemoved   int64 `json:"pins_removed"`
	RepinsRemoved int64 `json:"repins_removed"`
	StreamsLeft   int64 `json:"streams_left"`
}

type BoardService interface {
	CreateBoard(ctx context.Context, in CreateBoardInput) (*model.Board, error)
	UpdateBoard(ctx context.Context, boardID, userID int64, in UpdateBoardInput) (*model.Board, error)
	DeleteBoard(ctx context.Context, boardID, userID int64) (*DeleteBoardResult, error)
	ListUserBoards(ctx context.Context, userID int64) ([]repository.BoardRow, error)
	GetBoard(ctx context.Context, boardID int64) (*BoardDetail, error)
	FriendBoards(ctx context.Context, viewerID, friendID int64) ([]repository.BoardRow, error)
}

type boardService struct {
	store *repository.Store
	now   func() time.Time
}

func NewBoardService(store *repository.Store) BoardService {
	return &boardService{store: store, now: utcNow}
}

func (s *boardService) CreateBoard(ctx context.Context, in CreateBoardInput) (*model.Board, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperr.InvalidInput("board name is required")
	}
	b := &model.Board{
		UserID:              in.UserID,
		Name:                name,
		Description:         strings.TrimSpace(in.Description),
		FriendsOnlyComments: in.FriendsOnlyComments,
		CreatedAt:           s.now(),
	}
	if err := s.store.Boards.Create(ctx, b); err != nil {
		return nil, storeFailure(err, "failed to create board", zap.Int64("user_id", in.UserID))
	}
	return b, nil
}

func (s *boardService) UpdateBoard(ctx context.Context, boardID, userID int64, in UpdateBoardInput) (*model.Board, error) {
	b, err := s.ownedBoard(ctx, s.store, boardID, userID)
	if err != nil {
		return nil, err
	}
	fields := map[string]any{}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, apperr.InvalidInput("board name is required")
		}
		fields["name"] = name
		b.Name = name
	}
	if in.Description != nil {
		fields["description"] = strings.TrimSpace(*in.Description)
		b.Description = fields["description"].(string)
	}
	if in.FriendsOnlyComments != nil {
		fields["friends_only_comments"] = *in.FriendsOnlyComments
		b.FriendsOnlyComments = *in.FriendsOnlyComments
	}
	if len(fields) == 0 {
		return b, nil
	}
	if err := s.store.Boards.Update(ctx, boardID, fields); err != nil {
		return nil, storeFailure(err, "failed to update board", zap.Int64("board_id", boardID))
	}
	return b, nil
}

// DeleteBoard 画板上的每个 pin 按 lineage 规则删除：原始 pin 会带走其他画板上的 repin
func (s *boardService) DeleteBoard(ctx context.Context, boardID, userID int64) (*DeleteBoardResult, error) {
	res := &DeleteBoardResult{BoardID: boardID}
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		if _, err := s.ownedBoard(ctx, tx, boardID, userID); err != nil {
			return err
		}
		ids, err := tx.Boards.PinIDs(ctx, boardID)
		if err != nil {
			return err
		}
		for _, id := range ids {
			pin, err := tx.Pins.Get(ctx, id)
			if repository.IsNotFound(err) {
				// 已随前面的原始 pin 一起删除
				continue
			}
			if err != nil {
				return err
			}
			r, err := deleteLineage(ctx, tx, pin)
			if err != nil {
				return err
			}
			res.PinsRemoved += r.Removed["pin"]
			res.RepinsRemoved += r.RepinsRemoved
		}
		if res.StreamsLeft, err = tx.Streams.DetachBoard(ctx, boardID); err != nil {
			return err
		}
		return tx.Boards.Delete(ctx, boardID)
	})
	if err != nil {
		return nil, storeFailure(err, "failed to delete board", zap.Int64("board_id", boardID))
	}
	logger.Info("board deleted",
		zap.Int64("board_id", boardID),
		zap.Int64("pins_removed", res.PinsRemoved),
		zap.Int64("repins_removed", res.RepinsRemoved))
	return res, nil
}

func (s *boardService) ListUserBoards(ctx context.Context, userID int64) ([]repository.BoardRow, error) {
	rows, err := s.store.Boards.ListByUser(ctx, userID)
	if err != nil {
		return nil, storeFailure(err, "failed to list boards", zap.Int64("user_id", userID))
	}
	return rows, nil
}

func (s *boardService) GetBoard(ctx context.Context, boardID int64) (*BoardDetail, error) {
	b, err := s.store.Boards.Get(ctx, boardID)
	if err != nil {
		return nil, lookup(err, "board not found", "failed to load board", zap.Int64("board_id", boardID))
	}
	pins, err := s.store.Pins.ListByBoard(ctx, boardID)
	if err != nil {
		return nil, storeFailure(err, "failed to load pins", zap.Int64("board_id", boardID))
	}
	return &BoardDetail{Board: b, Pins: pins}, nil
}

func (s *boardService) FriendBoards(ctx context.Context, viewerID, friendID int64) ([]repository.BoardRow, error) {
	if viewerID != friendID {
		ok, err := s.store.Friendships.AreFriends(ctx, viewerID, friendID)
		if err != nil {
			return nil, storeFailure(err, "failed to check friendship", zap.Int64("user_id", viewerID))
		}
		if !ok {
			return nil, apperr.Forbidden("you can only view boards of your friends")
		}
	}
	return s.ListUserBoards(ctx, friendID)
}

func (s *boardService) ownedBoard(ctx context.Context, st *repository.Store, boardID, userID int64) (*model.Board, error) {
	b, err := st.Boards.Get(ctx, boardID)
	if err != nil {
		return nil, lookup(err, "board not found", "failed to load board", zap.Int64("board_id", boardID))
	}
	if b.UserID != userID {
		return nil, apperr.Forbidden("you do not own this board")
	}
	return b, nil
}
