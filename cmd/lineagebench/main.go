package main

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"math/rand"
	"os"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc/pool"

	"github.com/d60-Lab/pinboard/config"
	"github.com/d60-Lab/pinboard/internal/model"
	"github.com/d60-Lab/pinboard/internal/repository"
	"github.com/d60-Lab/pinboard/internal/service"
	"github.com/d60-Lab/pinboard/pkg/database"
)

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

func envInt(key string, def int) int {
	if s := os.Getenv(key); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return def
}

type recorder struct {
	mu   sync.Mutex
	recs []time.Duration
	errs int
}

func (r *recorder) add(d time.Duration, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err != nil {
		r.errs++
		return
	}
	r.recs = append(r.recs, d)
}

func pct(vs []time.Duration, p float64) time.Duration {
	if len(vs) == 0 {
		return 0
	}
	xs := append([]time.Duration(nil), vs...)
	sort.Slice(xs, func(i, j int) bool { return xs[i] < xs[j] })
	k := int(math.Ceil(p*float64(len(xs)))) - 1
	if k < 0 {
		k = 0
	}
	if k >= len(xs) {
		k = len(xs) - 1
	}
	return xs[k]
}

func report(name string, total time.Duration, r *recorder) {
	n := len(r.recs)
	per := time.Duration(0)
	if n > 0 {
		per = total / time.Duration(n)
	}
	fmt.Printf("%-14s ops=%d errs=%d total=%v per op=%v p50=%v p95=%v p99=%v\n",
		name, n, r.errs, total, per, pct(r.recs, 0.50), pct(r.recs, 0.95), pct(r.recs, 0.99))
}

// runOps 用 conc 个 goroutine 执行 n 次 op 并记录耗时
func runOps(n, conc int, op func(i int) error) (time.Duration, *recorder) {
	rec := &recorder{}
	p := pool.New().WithMaxGoroutines(conc)
	t0 := time.Now()
	for i := 0; i < n; i++ {
		i := i
		p.Go(func() {
			st := time.Now()
			err := op(i)
			rec.add(time.Since(st), err)
		})
	}
	p.Wait()
	return time.Since(t0), rec
}

func samplePNG() []byte {
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for x := 0; x < 8; x++ {
		img.Set(x, x, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

func main() {
	cfg := must(config.Load())
	db := must(database.InitDB(cfg))
	store := repository.NewStore(db)
	pins := service.NewPinService(store)
	boards := service.NewBoardService(store)
	ctx := context.Background()

	// N 个原创 pin，每个被转存 REPINS 次
	N := envInt("N", 1000)
	REPINS := envInt("REPINS", 5)
	CONC := envInt("CONC", 8)
	USERS := envInt("USERS", 50)

	// seed users, one board each
	runID := uuid.NewString()[:8]
	boardIDs := make([]int64, USERS)
	userIDs := make([]int64, USERS)
	for i := 0; i < USERS; i++ {
		u := model.User{
			Username:     fmt.Sprintf("bench_%s_%d", runID, i),
			Email:        fmt.Sprintf("bench_%s_%d@example.com", runID, i),
			PasswordHash: "x",
		}
		if err := store.Users.Create(ctx, &u); err != nil {
			panic(err)
		}
		b := must(boards.CreateBoard(ctx, service.CreateBoardInput{UserID: u.ID, Name: "bench " + runID}))
		userIDs[i], boardIDs[i] = u.ID, b.ID
	}

	img := samplePNG()
	tags := []string{"cat", "dog", "bird", "tree", "sea", "city", "food", "art"}
	originals := make([]int64, N)

	createDur, createRec := runOps(N, CONC, func(i int) error {
		owner := i % USERS
		res, err := pins.CreateOriginalPin(ctx, service.CreatePinInput{
			UserID:      userIDs[owner],
			BoardID:     boardIDs[owner],
			Image:       img,
			OriginalURL: fmt.Sprintf("https://example.com/%s/%d.png", runID, i),
			Description: "bench",
			Tags:        []string{tags[i%len(tags)], tags[(i+3)%len(tags)]},
		})
		if err != nil {
			return err
		}
		originals[i] = res.PinID
		return nil
	})

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	targets := make([]int, N*REPINS)
	for i := range targets {
		targets[i] = rng.Intn(USERS)
	}
	repinDur, repinRec := runOps(N*REPINS, CONC, func(i int) error {
		src := originals[i/REPINS]
		if src == 0 {
			return fmt.Errorf("original %d missing", i/REPINS)
		}
		u := targets[i]
		_, err := pins.Repin(ctx, service.RepinInput{UserID: userIDs[u], SourcePinID: src, BoardID: boardIDs[u]})
		return err
	})

	deleteDur, deleteRec := runOps(N, CONC, func(i int) error {
		if originals[i] == 0 {
			return fmt.Errorf("original %d missing", i)
		}
		_, err := pins.DeletePin(ctx, originals[i], userIDs[i%USERS])
		return err
	})

	fmt.Printf("driver=%s N=%d REPINS=%d CONC=%d USERS=%d\n", cfg.Database.Driver, N, REPINS, CONC, USERS)
	report("create", createDur, createRec)
	report("repin", repinDur, repinRec)
	report("cascade delete", deleteDur, deleteRec)
}
