package service

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/d60-Lab/pinboard/internal/model"
	"github.com/d60-Lab/pinboard/pkg/apperr"
)

func TestCreateOriginalPin(t *testing.T) {
	f := newFixture(t)
	u := f.user(t, "alice")
	b := f.board(t, u.ID, "travel", false)

	res := f.pin(t, u.ID, b.ID, "Beach", " beach ", "")
	assert.Equal(t, ImageURL(res.ImageID), res.SystemURL)

	pin, err := f.store.Pins.Get(f.ctx, res.PinID)
	require.NoError(t, err)
	assert.Nil(t, pin.OriginalPinID)
	assert.Equal(t, res.PictureID, pin.PictureID)

	img, err := f.pins().GetImage(f.ctx, res.ImageID)
	require.NoError(t, err)
	assert.Equal(t, "image/png", img.ContentType)

	assert.Equal(t, int64(1), f.count(t, &model.Tag{}, ""))
	assert.Equal(t, int64(1), f.count(t, &model.PictureTag{}, "picture_id = ?", res.PictureID))
}

func TestCreateOriginalPin_Validation(t *testing.T) {
	f := newFixture(t)
	u := f.user(t, "alice")
	other := f.user(t, "bob")
	b := f.board(t, u.ID, "travel", false)

	_, err := f.pins().CreateOriginalPin(f.ctx, CreatePinInput{UserID: u.ID, BoardID: b.ID, Image: []byte("plain text")})
	assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(err))

	_, err = f.pins().CreateOriginalPin(f.ctx, CreatePinInput{UserID: other.ID, BoardID: b.ID, Image: pngBytes})
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))

	_, err = f.pins().CreateOriginalPin(f.ctx, CreatePinInput{UserID: u.ID, BoardID: 999, Image: pngBytes})
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	assert.Equal(t, int64(0), f.count(t, &model.ImageStorage{}, ""))
}

func TestCreateOriginalPin_RollsBackOnTagFailure(t *testing.T) {
	f := newFixture(t)
	u := f.user(t, "alice")
	b := f.board(t, u.ID, "travel", false)

	require.NoError(t, f.db.Callback().Create().Before("gorm:create").Register("test:fail_tags", func(db *gorm.DB) {
		if db.Statement.Table == "tags" {
			_ = db.AddError(errors.New("tag insert failed"))
		}
	}))

	_, err := f.pins().CreateOriginalPin(f.ctx, CreatePinInput{UserID: u.ID, BoardID: b.ID, Image: pngBytes, Tags: []string{"x"}})
	require.Error(t, err)
	assert.Equal(t, apperr.KindStoreFailure, apperr.KindOf(err))
	assert.Equal(t, "failed to create pin", apperr.Message(err))

	assert.Equal(t, int64(0), f.count(t, &model.ImageStorage{}, ""))
	assert.Equal(t, int64(0), f.count(t, &model.Picture{}, ""))
	assert.Equal(t, int64(0), f.count(t, &model.Pin{}, ""))
}

func TestTagIdempotence(t *testing.T) {
	f := newFixture(t)
	u := f.user(t, "alice")
	b := f.board(t, u.ID, "travel", false)

	p1 := f.pin(t, u.ID, b.ID, "Travel")
	p2 := f.pin(t, u.ID, b.ID, "travel ")

	var tags []model.Tag
	require.NoError(t, f.db.Find(&tags).Error)
	require.Len(t, tags, 1)
	assert.Equal(t, "travel", tags[0].Name)
	assert.Equal(t, int64(1), f.count(t, &model.PictureTag{}, "picture_id = ? AND tag_id = ?", p1.PictureID, tags[0].ID))
	assert.Equal(t, int64(1), f.count(t, &model.PictureTag{}, "picture_id = ? AND tag_id = ?", p2.PictureID, tags[0].ID))
}

func TestRepin_NormalizesToRoot(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")
	carol := f.user(t, "carol")
	ab := f.board(t, alice.ID, "a", false)
	bb := f.board(t, bob.ID, "b", false)
	cb := f.board(t, carol.ID, "c", false)

	orig := f.pin(t, alice.ID, ab.ID, "sun")
	first := f.repin(t, bob.ID, orig.PinID, bb.ID)
	second := f.repin(t, carol.ID, first.ID, cb.ID)

	require.NotNil(t, first.OriginalPinID)
	require.NotNil(t, second.OriginalPinID)
	assert.Equal(t, orig.PinID, *first.OriginalPinID)
	assert.Equal(t, orig.PinID, *second.OriginalPinID)
	assert.Equal(t, orig.PictureID, second.PictureID)

	assert.Equal(t, int64(1), f.count(t, &model.Picture{}, ""))
	assert.Equal(t, int64(1), f.count(t, &model.PictureTag{}, ""))
}

func TestRepin_Errors(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")
	ab := f.board(t, alice.ID, "a", false)
	bb := f.board(t, bob.ID, "b", false)
	orig := f.pin(t, alice.ID, ab.ID)

	_, err := f.pins().Repin(f.ctx, RepinInput{UserID: bob.ID, SourcePinID: 999, BoardID: bb.ID})
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	_, err = f.pins().Repin(f.ctx, RepinInput{UserID: bob.ID, SourcePinID: orig.PinID, BoardID: ab.ID})
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
}

func TestDeletePin_OriginalCascades(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")
	ab := f.board(t, alice.ID, "a", false)
	bb := f.board(t, bob.ID, "b", false)

	orig := f.pin(t, alice.ID, ab.ID, "beach", "sea")
	r1 := f.repin(t, bob.ID, orig.PinID, bb.ID)
	r2 := f.repin(t, alice.ID, r1.ID, ab.ID)

	comments := &commentService{store: f.store, now: f.clock.Now}
	for _, id := range []int64{orig.PinID, r1.ID, r2.ID} {
		_, err := comments.AddComment(f.ctx, bob.ID, id, "nice")
		require.NoError(t, err)
	}
	likes := NewLikeService(f.store)
	_, err := likes.Like(f.ctx, bob.ID, orig.PictureID)
	require.NoError(t, err)
	_, err = likes.Like(f.ctx, alice.ID, orig.PictureID)
	require.NoError(t, err)

	res, err := f.pins().DeletePin(f.ctx, orig.PinID, alice.ID)
	require.NoError(t, err)
	assert.True(t, res.Original)
	assert.Equal(t, int64(2), res.RepinsRemoved)
	assert.Equal(t, int64(2), res.Removed["repin_comments"])
	assert.Equal(t, int64(1), res.Removed["comments"])
	assert.Equal(t, int64(2), res.Removed["likes"])
	assert.Equal(t, int64(2), res.Removed["picture_tags"])

	assert.Equal(t, int64(0), f.count(t, &model.Pin{}, ""))
	assert.Equal(t, int64(0), f.count(t, &model.Comment{}, ""))
	assert.Equal(t, int64(0), f.count(t, &model.Like{}, ""))
	assert.Equal(t, int64(0), f.count(t, &model.PictureTag{}, ""))
	assert.Equal(t, int64(0), f.count(t, &model.ImageStorage{}, ""))
	assert.Equal(t, int64(2), f.count(t, &model.Tag{}, ""))

	_, err = likes.Like(f.ctx, bob.ID, orig.PictureID)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	_, err = f.pins().GetImage(f.ctx, orig.ImageID)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestDeletePin_RepinIsolation(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")
	ab := f.board(t, alice.ID, "a", false)
	bb := f.board(t, bob.ID, "b", false)

	orig := f.pin(t, alice.ID, ab.ID, "beach")
	r1 := f.repin(t, bob.ID, orig.PinID, bb.ID)
	r2 := f.repin(t, alice.ID, orig.PinID, ab.ID)

	comments := &commentService{store: f.store, now: f.clock.Now}
	_, err := comments.AddComment(f.ctx, alice.ID, r1.ID, "mine")
	require.NoError(t, err)
	_, err = comments.AddComment(f.ctx, alice.ID, r2.ID, "keep")
	require.NoError(t, err)
	_, err = NewLikeService(f.store).Like(f.ctx, alice.ID, orig.PictureID)
	require.NoError(t, err)

	res, err := f.pins().DeletePin(f.ctx, r1.ID, bob.ID)
	require.NoError(t, err)
	assert.False(t, res.Original)
	assert.Equal(t, int64(0), res.RepinsRemoved)
	assert.Equal(t, int64(1), res.Removed["comments"])

	assert.Equal(t, int64(2), f.count(t, &model.Pin{}, ""))
	assert.Equal(t, int64(1), f.count(t, &model.Comment{}, "pin_id = ?", r2.ID))
	assert.Equal(t, int64(1), f.count(t, &model.Picture{}, ""))
	assert.Equal(t, int64(1), f.count(t, &model.Like{}, ""))
	assert.Equal(t, int64(1), f.count(t, &model.PictureTag{}, ""))
}

func TestDeletePin_Authorization(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")
	ab := f.board(t, alice.ID, "a", false)
	orig := f.pin(t, alice.ID, ab.ID)

	_, err := f.pins().DeletePin(f.ctx, orig.PinID, bob.ID)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))

	_, err = f.pins().DeletePin(f.ctx, 999, alice.ID)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	assert.Equal(t, int64(1), f.count(t, &model.Pin{}, ""))
}

func TestDeletePin_RollsBackOnFailure(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")
	ab := f.board(t, alice.ID, "a", false)
	bb := f.board(t, bob.ID, "b", false)
	orig := f.pin(t, alice.ID, ab.ID, "beach")
	f.repin(t, bob.ID, orig.PinID, bb.ID)

	require.NoError(t, f.db.Callback().Delete().Before("gorm:delete").Register("test:fail_pictures", func(db *gorm.DB) {
		if db.Statement.Table == "pictures" {
			_ = db.AddError(errors.New("picture delete failed"))
		}
	}))

	_, err := f.pins().DeletePin(f.ctx, orig.PinID, alice.ID)
	assert.Equal(t, apperr.KindStoreFailure, apperr.KindOf(err))

	assert.Equal(t, int64(2), f.count(t, &model.Pin{}, ""))
	assert.Equal(t, int64(1), f.count(t, &model.PictureTag{}, ""))
	assert.Equal(t, int64(1), f.count(t, &model.ImageStorage{}, ""))
}

func TestDeletePlanOrder(t *testing.T) {
	names := func(plan []deleteStep) []string {
		out := make([]string, len(plan))
		for i, s := range plan {
			out[i] = s.name
		}
		return out
	}
	assert.Equal(t, []string{"comments", "pin"}, names(deletePlan(&model.Pin{OriginalPinID: new(int64)})))
	assert.Equal(t,
		[]string{"repin_comments", "repins", "comments", "pin", "likes", "picture_tags", "picture", "image"},
		names(deletePlan(&model.Pin{})))
}

func TestGetPin(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice")
	ab := f.board(t, alice.ID, "a", false)
	orig := f.pin(t, alice.ID, ab.ID, "sea", "beach")

	d, err := f.pins().GetPin(f.ctx, orig.PinID)
	require.NoError(t, err)
	assert.Equal(t, []string{"beach", "sea"}, d.Tags)
	assert.Equal(t, "alice", d.Username)
	assert.Equal(t, "a", d.BoardName)
	assert.Nil(t, d.OriginalPinID)

	_, err = f.pins().GetPin(f.ctx, 999)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestNormalizeTags(t *testing.T) {
	assert.Equal(t, []string{"travel", "sea"}, NormalizeTags([]string{" Travel", "travel ", "", "SEA", "  "}))
}
