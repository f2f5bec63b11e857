package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/d60-Lab/pinboard/internal/model"
	"github.com/d60-Lab/pinboard/internal/repository"
	"github.com/d60-Lab/pinboard/internal/testutil"
)

// pngBytes 最小的 PNG 文件头，足够被识别为 image/png
var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00\x1f\x15\xc4\x89")

// clock 每次调用前进一秒，保证时间排序稳定
type clock struct{ t time.Time }

func newClock() *clock { return &clock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)} }

func (c *clock) Now() time.Time {
	c.t = c.t.Add(time.Second)
	return c.t
}

type fixture struct {
	db    *gorm.DB
	store *repository.Store
	clock *clock
	ctx   context.Context
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewDB(t)
	return &fixture{db: db, store: repository.NewStore(db), clock: newClock(), ctx: context.Background()}
}

func (f *fixture) pins() *pinService {
	return &pinService{store: f.store, now: f.clock.Now}
}

func (f *fixture) user(t *testing.T, name string) *model.User {
	return testutil.SeedUser(t, f.db, name)
}

func (f *fixture) board(t *testing.T, owner int64, name string, friendsOnly bool) *model.Board {
	return testutil.SeedBoard(t, f.db, owner, name, friendsOnly)
}

func (f *fixture) pin(t *testing.T, user, board int64, tags ...string) *CreatePinResult {
	t.Helper()
	res, err := f.pins().CreateOriginalPin(f.ctx, CreatePinInput{
		UserID:  user,
		BoardID: board,
		Image:   pngBytes,
		Tags:    tags,
	})
	require.NoError(t, err)
	return res
}

func (f *fixture) repin(t *testing.T, user, source, board int64) *model.Pin {
	t.Helper()
	p, err := f.pins().Repin(f.ctx, RepinInput{UserID: user, SourcePinID: source, BoardID: board})
	require.NoError(t, err)
	return p
}

func (f *fixture) befriend(t *testing.T, a, b int64) {
	t.Helper()
	svc := &friendshipService{store: f.store, now: f.clock.Now}
	require.NoError(t, svc.SendRequest(f.ctx, a, b))
	require.NoError(t, svc.Respond(f.ctx, b, a, true))
}

func (f *fixture) count(t *testing.T, m any, query string, args ...any) int64 {
	return testutil.Count(t, f.db, m, query, args...)
}
