package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/d60-Lab/pinboard/internal/repository"
)

// LikeService 点赞按图片计数，与具体 pin 无关
type LikeService interface {
	Like(ctx context.Context, userID, pictureID int64) (int64, error)
	Unlike(ctx context.Context, userID, pictureID int64) (int64, error)
	Count(ctx context.Context, pictureID int64) (int64, error)
}

type likeService struct {
	store *repository.Store
}

func NewLikeService(store *repository.Store) LikeService {
	return &likeService{store: store}
}

func (s *likeService) Like(ctx context.Context, userID, pictureID int64) (int64, error) {
	if err := s.ensurePicture(ctx, pictureID); err != nil {
		return 0, err
	}
	if err := s.store.Likes.Create(ctx, userID, pictureID); err != nil {
		return 0, storeFailure(err, "failed to like picture", zap.Int64("picture_id", pictureID), zap.Int64("user_id", userID))
	}
	return s.Count(ctx, pictureID)
}

func (s *likeService) Unlike(ctx context.Context, userID, pictureID int64) (int64, error) {
	if err := s.ensurePicture(ctx, pictureID); err != nil {
		return 0, err
	}
	if err := s.store.Likes.Delete(ctx, userID, pictureID); err != nil {
		return 0, storeFailure(err, "failed to unlike picture", zap.Int64("picture_id", pictureID), zap.Int64("user_id", userID))
	}
	return s.Count(ctx, pictureID)
}

func (s *likeService) Count(ctx context.Context, pictureID int64) (int64, error) {
	n, err := s.store.Likes.Count(ctx, pictureID)
	if err != nil {
		return 0, storeFailure(err, "failed to count likes", zap.Int64("picture_id", pictureID))
	}
	return n, nil
}

func (s *likeService) ensurePicture(ctx context.Context, pictureID int64) error {
	if _, err := s.store.Pictures.Get(ctx, pictureID); err != nil {
		return lookup(err, "picture not found", "failed to load picture", zap.Int64("picture_id", pictureID))
	}
	return nil
}
