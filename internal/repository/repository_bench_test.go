package repository

import (
	"context"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/d60-Lab/pinboard/internal/model"
	"github.com/d60-Lab/pinboard/internal/testutil"
)

func seedUsers(b *testing.B, db *gorm.DB, n int) []model.User {
	b.Helper()
	users := make([]model.User, n)
	for i := range users {
		name := fmt.Sprintf("u%05d", i)
		users[i] = model.User{Username: name, Email: name + "@example.com", PasswordHash: "p"}
	}
	if err := db.CreateInBatches(&users, 500).Error; err != nil {
		b.Fatalf("seed users: %v", err)
	}
	return users
}

func BenchmarkFriendshipWrite(b *testing.B) {
	db := testutil.NewDB(b)
	st := NewStore(db)
	users := seedUsers(b, db, 1000)
	ctx := context.Background()
	rng := rand.New(rand.NewSource(1))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		a := users[rng.Intn(len(users))].ID
		c := users[rng.Intn(len(users))].ID
		if a == c {
			continue
		}
		// 重复的 pair 会撞唯一索引，忽略即可
		_ = st.Friendships.Create(ctx, &model.Friendship{
			UserLowID: a, UserHighID: c, RequesterID: a,
			Status: model.FriendshipPending, RequestedAt: time.Now(),
		})
	}
}

func BenchmarkFriendshipReads(b *testing.B) {
	db := testutil.NewDB(b)
	st := NewStore(db)
	ctx := context.Background()

	// u0 与其余所有人都是好友
	const N = 2000
	users := seedUsers(b, db, N+1)
	u0 := users[0].ID
	now := time.Now()
	rows := make([]model.Friendship, 0, N)
	for _, u := range users[1:] {
		low, high := model.OrderedPair(u0, u.ID)
		rows = append(rows, model.Friendship{
			UserLowID: low, UserHighID: high, RequesterID: u.ID,
			Status: model.FriendshipAccepted, RequestedAt: now, AcceptedAt: &now,
		})
	}
	if err := db.CreateInBatches(&rows, 500).Error; err != nil {
		b.Fatalf("seed friendships: %v", err)
	}

	b.ResetTimer()
	b.Run("ListFriends", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			_, _ = st.Friendships.ListFriends(ctx, u0)
		}
	})
	b.Run("AreFriends", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			_, _ = st.Friendships.AreFriends(ctx, users[1+i%N].ID, u0)
		}
	})
}

func BenchmarkTagSearch(b *testing.B) {
	db := testutil.NewDB(b)
	st := NewStore(db)
	ctx := context.Background()
	owner := seedUsers(b, db, 1)[0]
	board := model.Board{UserID: owner.ID, Name: "bench"}
	if err := db.Create(&board).Error; err != nil {
		b.Fatalf("seed board: %v", err)
	}

	names := []string{"cat", "dog", "bird", "tree", "sea", "city", "food", "art", "sky", "car"}
	tags, err := st.Tags.Ensure(ctx, names)
	if err != nil {
		b.Fatalf("seed tags: %v", err)
	}
	rng := rand.New(rand.NewSource(1))
	const N = 2000
	for i := 0; i < N; i++ {
		img := model.ImageStorage{ContentType: "image/png", Data: []byte{1}}
		if err := st.Pictures.CreateImage(ctx, &img); err != nil {
			b.Fatalf("seed image: %v", err)
		}
		pic := model.Picture{ImageID: img.ID}
		if err := st.Pictures.CreatePicture(ctx, &pic); err != nil {
			b.Fatalf("seed picture: %v", err)
		}
		ids := []int64{tags[rng.Intn(len(tags))].ID, tags[rng.Intn(len(tags))].ID}
		if err := st.Tags.Link(ctx, pic.ID, ids); err != nil {
			b.Fatalf("seed tags: %v", err)
		}
		if err := st.Pins.Create(ctx, &model.Pin{BoardID: board.ID, PictureID: pic.ID, UserID: owner.ID}); err != nil {
			b.Fatalf("seed pin: %v", err)
		}
	}

	b.ResetTimer()
	for _, sort := range []SearchSort{SortRelevance, SortLikes, SortTime} {
		b.Run(string(sort), func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				_, _ = st.Pins.Search(ctx, []string{"cat", "sky", "food"}, sort, 0, 20)
			}
		})
	}
}
