package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"

	"github.com/d60-Lab/pinboard/internal/model"
	"github.com/d60-Lab/pinboard/internal/repository"
	"github.com/d60-Lab/pinboard/pkg/apperr"
	"github.com/d60-Lab/pinboard/pkg/logger"
)

// CreatePinInput 新建原始 pin 的参数
type CreatePinInput struct {
	UserID      int64
	BoardID     int64
	Image       []byte
	OriginalURL string
	SourceURL   string
	Description string
	Tags        []string
}

type CreatePinResult struct {
	PinID     int64  `json:"pin_id"`
	PictureID int64  `json:"picture_id"`
	ImageID   int64  `json:"image_id"`
	SystemURL string `json:"system_url"`
}

type RepinInput struct {
	UserID      int64
	SourcePinID int64
	BoardID     int64
	Description string
}

// PinDetail pin 详情，Tags 为该图片的全部标签
type PinDetail struct {
	repository.PinRow
	Tags []string `json:"tags"`
}

// PinService pin 生命周期：创建、转存、级联删除
type PinService interface {
	CreateOriginalPin(ctx context.Context, in CreatePinInput) (*CreatePinResult, error)
	Repin(ctx context.Context, in RepinInput) (*model.Pin, error)
	DeletePin(ctx context.Context, pinID, userID int64) (*DeletePinResult, error)
	GetPin(ctx context.Context, pinID int64) (*PinDetail, error)
	GetImage(ctx context.Context, imageID int64) (*model.ImageStorage, error)
}

type pinService struct {
	store *repository.Store
	now   func() time.Time
}

func NewPinService(store *repository.Store) PinService {
	return &pinService{store: store, now: utcNow}
}

func utcNow() time.Time { return time.Now().UTC() }

// ImageURL 图片对外访问地址
func ImageURL(imageID int64) string {
	return fmt.Sprintf("/api/v1/images/%d", imageID)
}

// DetectImage 返回图片的 MIME 类型，非图片返回 InvalidInput
func DetectImage(data []byte) (string, error) {
	if len(data) == 0 {
		return "", apperr.InvalidInput("image is empty")
	}
	mt := mimetype.Detect(data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return "", apperr.InvalidInput("file is not an image")
	}
	return mt.String(), nil
}

// NormalizeTags 小写、去空白、去重，保持首次出现的顺序
func NormalizeTags(raw []string) []string {
	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		t := strings.ToLower(strings.TrimSpace(r))
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

func (s *pinService) CreateOriginalPin(ctx context.Context, in CreatePinInput) (*CreatePinResult, error) {
	contentType, err := DetectImage(in.Image)
	if err != nil {
		return nil, err
	}
	tags := NormalizeTags(in.Tags)

	var res *CreatePinResult
	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		board, err := tx.Boards.Get(ctx, in.BoardID)
		if err != nil {
			return lookup(err, "board not found", "failed to load board", zap.Int64("board_id", in.BoardID))
		}
		if board.UserID != in.UserID {
			return apperr.Forbidden("you can only pin to your own boards")
		}

		now := s.now()
		img := &model.ImageStorage{ContentType: contentType, Data: in.Image, CreatedAt: now}
		if err := tx.Pictures.CreateImage(ctx, img); err != nil {
			return err
		}
		pic := &model.Picture{
			ImageID:     img.ID,
			OriginalURL: in.OriginalURL,
			SourceURL:   in.SourceURL,
			SystemURL:   ImageURL(img.ID),
			CreatedAt:   now,
		}
		if err := tx.Pictures.CreatePicture(ctx, pic); err != nil {
			return err
		}
		pin := &model.Pin{
			BoardID:     board.ID,
			PictureID:   pic.ID,
			UserID:      in.UserID,
			Description: in.Description,
			CreatedAt:   now,
		}
		if err := tx.Pins.Create(ctx, pin); err != nil {
			return err
		}

		rows, err := tx.Tags.Ensure(ctx, tags)
		if err != nil {
			return err
		}
		ids := make([]int64, len(rows))
		for i, t := range rows {
			ids[i] = t.ID
		}
		if err := tx.Tags.Link(ctx, pic.ID, ids); err != nil {
			return err
		}

		res = &CreatePinResult{PinID: pin.ID, PictureID: pic.ID, ImageID: img.ID, SystemURL: pic.SystemURL}
		return nil
	})
	if err != nil {
		return nil, storeFailure(err, "failed to create pin", zap.Int64("user_id", in.UserID), zap.Int64("board_id", in.BoardID))
	}
	logger.Info("pin created", zap.Int64("pin_id", res.PinID), zap.Int64("picture_id", res.PictureID), zap.Int("tags", len(tags)))
	return res, nil
}

// Repin 总是挂到根原始 pin 上，不复制图片与标签
func (s *pinService) Repin(ctx context.Context, in RepinInput) (*model.Pin, error) {
	src, err := s.store.Pins.Get(ctx, in.SourcePinID)
	if err != nil {
		return nil, lookup(err, "pin not found", "failed to load pin", zap.Int64("pin_id", in.SourcePinID))
	}
	board, err := s.store.Boards.Get(ctx, in.BoardID)
	if err != nil {
		return nil, lookup(err, "board not found", "failed to load board", zap.Int64("board_id", in.BoardID))
	}
	if board.UserID != in.UserID {
		return nil, apperr.Forbidden("you can only pin to your own boards")
	}

	root := src.RootID()
	pin := &model.Pin{
		BoardID:       board.ID,
		PictureID:     src.PictureID,
		UserID:        in.UserID,
		OriginalPinID: &root,
		Description:   in.Description,
		CreatedAt:     s.now(),
	}
	if err := s.store.Pins.Create(ctx, pin); err != nil {
		return nil, storeFailure(err, "failed to repin", zap.Int64("source_pin_id", in.SourcePinID), zap.Int64("board_id", in.BoardID))
	}
	return pin, nil
}

func (s *pinService) DeletePin(ctx context.Context, pinID, userID int64) (*DeletePinResult, error) {
	var res *DeletePinResult
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		pin, err := tx.Pins.Get(ctx, pinID)
		if err != nil {
			return lookup(err, "pin not found", "failed to load pin", zap.Int64("pin_id", pinID))
		}
		if pin.UserID != userID {
			return apperr.Forbidden("you can only delete your own pins")
		}
		res, err = deleteLineage(ctx, tx, pin)
		return err
	})
	if err != nil {
		return nil, storeFailure(err, "failed to delete pin", zap.Int64("pin_id", pinID))
	}
	logger.Info("pin deleted",
		zap.Int64("pin_id", pinID),
		zap.Bool("original", res.Original),
		zap.Int64("repins_removed", res.RepinsRemoved))
	return res, nil
}

func (s *pinService) GetPin(ctx context.Context, pinID int64) (*PinDetail, error) {
	row, err := s.store.Pins.Detail(ctx, pinID)
	if err != nil {
		return nil, lookup(err, "pin not found", "failed to load pin", zap.Int64("pin_id", pinID))
	}
	tags, err := s.store.Tags.ForPictures(ctx, []int64{row.PictureID})
	if err != nil {
		return nil, storeFailure(err, "failed to load tags", zap.Int64("picture_id", row.PictureID))
	}
	t := tags[row.PictureID]
	if t == nil {
		t = []string{}
	}
	return &PinDetail{PinRow: *row, Tags: t}, nil
}

func (s *pinService) GetImage(ctx context.Context, imageID int64) (*model.ImageStorage, error) {
	img, err := s.store.Pictures.GetImage(ctx, imageID)
	if err != nil {
		return nil, lookup(err, "image not found", "failed to load image", zap.Int64("image_id", imageID))
	}
	return img, nil
}
