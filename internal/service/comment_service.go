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

type CommentService interface {
	// CanComment 画板未限制评论、用户是画板主人、或与主人为好友时为 true
	CanComment(ctx context.Context, userID, pinID int64) (bool, error)
	AddComment(ctx context.Context, userID, pinID int64, content string) (*model.Comment, error)
	ListComments(ctx context.Context, pinID int64) ([]repository.CommentRow, error)
	DeleteComment(ctx context.Context, commentID, userID int64) error
}

type commentService struct {
	store *repository.Store
	now   func() time.Time
}

func NewCommentService(store *repository.Store) CommentService {
	return &commentService{store: store, now: utcNow}
}

func (s *commentService) CanComment(ctx context.Context, userID, pinID int64) (bool, error) {
	ok, err := canComment(ctx, s.store, userID, pinID)
	if err != nil {
		return false, lookup(err, "pin not found", "failed to check comment permission", zap.Int64("pin_id", pinID))
	}
	return ok, nil
}

func canComment(ctx context.Context, st *repository.Store, userID, pinID int64) (bool, error) {
	pin, err := st.Pins.Get(ctx, pinID)
	if err != nil {
		return false, err
	}
	board, err := st.Boards.Get(ctx, pin.BoardID)
	if err != nil {
		return false, err
	}
	if !board.FriendsOnlyComments || board.UserID == userID {
		return true, nil
	}
	return st.Friendships.AreFriends(ctx, userID, board.UserID)
}

func (s *commentService) AddComment(ctx context.Context, userID, pinID int64, content string) (*model.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperr.InvalidInput("comment cannot be empty")
	}

	c := &model.Comment{PinID: pinID, UserID: userID, Content: content}
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		ok, err := canComment(ctx, tx, userID, pinID)
		if err != nil {
			return lookup(err, "pin not found", "failed to check comment permission", zap.Int64("pin_id", pinID))
		}
		if !ok {
			return apperr.Forbidden("only friends of the board owner can comment on this pin")
		}
		c.CreatedAt = s.now()
		return tx.Comments.Create(ctx, c)
	})
	if err != nil {
		return nil, storeFailure(err, "failed to add comment", zap.Int64("pin_id", pinID), zap.Int64("user_id", userID))
	}
	return c, nil
}

func (s *commentService) ListComments(ctx context.Context, pinID int64) ([]repository.CommentRow, error) {
	if _, err := s.store.Pins.Get(ctx, pinID); err != nil {
		return nil, lookup(err, "pin not found", "failed to load pin", zap.Int64("pin_id", pinID))
	}
	rows, err := s.store.Comments.ListByPin(ctx, pinID)
	if err != nil {
		return nil, storeFailure(err, "failed to list comments", zap.Int64("pin_id", pinID))
	}
	return rows, nil
}

func (s *commentService) DeleteComment(ctx context.Context, commentID, userID int64) error {
	c, err := s.store.Comments.Get(ctx, commentID)
	if err != nil {
		return lookup(err, "comment not found", "failed to load comment", zap.Int64("comment_id", commentID))
	}
	if c.UserID != userID {
		return apperr.Forbidden("you can only delete your own comments")
	}
	if err := s.store.Comments.Delete(ctx, commentID); err != nil {
		return storeFailure(err, "failed to delete comment", zap.Int64("comment_id", commentID))
	}
	return nil
}
