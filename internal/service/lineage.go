package service

import (
	"context"

	"github.com/d60-Lab/pinboard/internal/model"
	"github.com/d60-Lab/pinboard/internal/repository"
)

// lineage 一次删除涉及的全部行
type lineage struct {
	pin       *model.Pin
	repinIDs  []int64
	pictureID int64
	imageID   int64
}

// deleteStep 删除计划中的一步，子表在前、父表在后
type deleteStep struct {
	name string
	run  func(ctx context.Context, tx *repository.Store, l *lineage) (int64, error)
}

var repinDeletePlan = []deleteStep{
	{"comments", func(ctx context.Context, tx *repository.Store, l *lineage) (int64, error) {
		return tx.Comments.DeleteByPins(ctx, []int64{l.pin.ID})
	}},
	{"pin", func(ctx context.Context, tx *repository.Store, l *lineage) (int64, error) {
		return tx.Pins.Delete(ctx, []int64{l.pin.ID})
	}},
}

var originalDeletePlan = []deleteStep{
	{"repin_comments", func(ctx context.Context, tx *repository.Store, l *lineage) (int64, error) {
		return tx.Comments.DeleteByPins(ctx, l.repinIDs)
	}},
	{"repins", func(ctx context.Context, tx *repository.Store, l *lineage) (int64, error) {
		return tx.Pins.Delete(ctx, l.repinIDs)
	}},
	repinDeletePlan[0],
	repinDeletePlan[1],
	{"likes", func(ctx context.Context, tx *repository.Store, l *lineage) (int64, error) {
		return tx.Likes.DeleteByPicture(ctx, l.pictureID)
	}},
	{"picture_tags", func(ctx context.Context, tx *repository.Store, l *lineage) (int64, error) {
		return tx.Tags.Unlink(ctx, l.pictureID)
	}},
	{"picture", func(ctx context.Context, tx *repository.Store, l *lineage) (int64, error) {
		return tx.Pictures.Delete(ctx, l.pictureID)
	}},
	{"image", func(ctx context.Context, tx *repository.Store, l *lineage) (int64, error) {
		return tx.Pictures.DeleteImage(ctx, l.imageID)
	}},
}

func deletePlan(p *model.Pin) []deleteStep {
	if p.IsOriginal() {
		return originalDeletePlan
	}
	return repinDeletePlan
}

// DeletePinResult 级联删除的结果，Removed 记录每一步删除的行数
type DeletePinResult struct {
	PinID         int64            `json:"pin_id"`
	Original      bool             `json:"original"`
	RepinsRemoved int64            `json:"repins_removed"`
	Removed       map[string]int64 `json:"removed"`
}

// deleteLineage 必须在事务内调用：原始 pin 会带走所有 repin 与图片，
// repin 只删除自身及其评论
func deleteLineage(ctx context.Context, tx *repository.Store, p *model.Pin) (*DeletePinResult, error) {
	l := &lineage{pin: p, pictureID: p.PictureID}
	if p.IsOriginal() {
		ids, err := tx.Pins.RepinIDs(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		pic, err := tx.Pictures.Get(ctx, p.PictureID)
		if err != nil {
			return nil, err
		}
		l.repinIDs = ids
		l.imageID = pic.ImageID
	}

	plan := deletePlan(p)
	res := &DeletePinResult{PinID: p.ID, Original: p.IsOriginal(), Removed: make(map[string]int64, len(plan))}
	for _, step := range plan {
		n, err := step.run(ctx, tx, l)
		if err != nil {
			return nil, err
		}
		res.Removed[step.name] = n
	}
	res.RepinsRemoved = res.Removed["repins"]
	return res, nil
}
