package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/pinboard/internal/api/handler"
	"github.com/d60-Lab/pinboard/internal/repository"
	"github.com/d60-Lab/pinboard/internal/service"
	"github.com/d60-Lab/pinboard/internal/testutil"
	"github.com/d60-Lab/pinboard/pkg/token"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00\x1f\x15\xc4\x89")

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type server struct {
	t *testing.T
	r *gin.Engine
}

func newServer(t *testing.T) *server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := testutil.NewDB(t)
	rdb, _ := testutil.NewRedis(t)
	store := repository.NewStore(db)
	users := service.NewUserService(store, token.NewManager("test-secret", time.Hour, "pinboard-test"), repository.NewSessionStore(rdb))
	h := handler.NewHandler(handler.Deps{
		Users:     users,
		Boards:    service.NewBoardService(store),
		Pins:      service.NewPinService(store),
		Comments:  service.NewCommentService(store),
		Likes:     service.NewLikeService(store),
		Friends:   service.NewFriendshipService(store),
		Search:    service.NewSearchService(store),
		Streams:   service.NewStreamService(store),
		Fetcher:   service.NewImageFetcher(time.Second, 1<<20),
		MaxUpload: 1 << 20,
	})
	return &server{t: t, r: NewRouter(h, users, Options{})}
}

func (s *server) do(method, path, tok string, body any) (*httptest.ResponseRecorder, envelope) {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	return s.send(req, tok)
}

func (s *server) send(req *http.Request, tok string) (*httptest.ResponseRecorder, envelope) {
	s.t.Helper()
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	w := httptest.NewRecorder()
	s.r.ServeHTTP(w, req)
	var env envelope
	if w.Header().Get("Content-Type") == "application/json; charset=utf-8" {
		require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

// signup 注册并登录，返回 token 与用户 ID
func (s *server) signup(name string) (string, int64) {
	s.t.Helper()
	w, _ := s.do(http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"username": name, "email": name + "@example.com", "password": "password123",
	})
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())

	w, env := s.do(http.MethodPost, "/api/v1/auth/login", "", gin.H{
		"email": name + "@example.com", "password": "password123",
	})
	require.Equal(s.t, http.StatusOK, w.Code, w.Body.String())
	var res struct {
		Token string `json:"token"`
		User  struct {
			ID int64 `json:"id"`
		} `json:"user"`
	}
	require.NoError(s.t, json.Unmarshal(env.Data, &res))
	return res.Token, res.User.ID
}

func (s *server) createBoard(tok, name string, friendsOnly bool) int64 {
	s.t.Helper()
	w, env := s.do(http.MethodPost, "/api/v1/boards", tok, gin.H{"name": name, "friends_only_comments": friendsOnly})
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())
	var b struct {
		ID int64 `json:"id"`
	}
	require.NoError(s.t, json.Unmarshal(env.Data, &b))
	return b.ID
}

func (s *server) upload(tok string, boardID int64, tags string) service.CreatePinResult {
	s.t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(s.t, mw.WriteField("board_id", fmt.Sprint(boardID)))
	require.NoError(s.t, mw.WriteField("description", "a pin"))
	require.NoError(s.t, mw.WriteField("tags", tags))
	fw, err := mw.CreateFormFile("image", "cat.png")
	require.NoError(s.t, err)
	_, err = fw.Write(pngBytes)
	require.NoError(s.t, err)
	require.NoError(s.t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/pins", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w, env := s.send(req, tok)
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())
	var res service.CreatePinResult
	require.NoError(s.t, json.Unmarshal(env.Data, &res))
	return res
}

func TestPing(t *testing.T) {
	s := newServer(t)
	w := httptest.NewRecorder()
	s.r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "pong")
}

func TestAuthFlow(t *testing.T) {
	s := newServer(t)
	tok, _ := s.signup("alice")

	w, env := s.do(http.MethodGet, "/api/v1/users/me", tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), `"username":"alice"`)
	assert.NotContains(t, string(env.Data), "password")

	w, _ = s.do(http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"username": "alice", "email": "other@example.com", "password": "password123",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	w, _ = s.do(http.MethodPost, "/api/v1/auth/login", "", gin.H{"email": "alice@example.com", "password": "wrong-password"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = s.do(http.MethodGet, "/api/v1/users/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = s.do(http.MethodPost, "/api/v1/auth/logout", tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w, _ = s.do(http.MethodGet, "/api/v1/users/me", tok, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestValidation(t *testing.T) {
	s := newServer(t)
	tok, _ := s.signup("alice")

	w, _ := s.do(http.MethodPost, "/api/v1/boards", tok, gin.H{"name": "   "})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = s.do(http.MethodGet, "/api/v1/pins/abc", tok, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = s.do(http.MethodGet, "/api/v1/pins/999", tok, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = s.do(http.MethodPost, "/api/v1/auth/register", "", gin.H{"username": "bob", "email": "not-an-email", "password": "password123"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRegisterValidators(t *testing.T) {
	registerValidators()
	// 重复调用不会重复注册
	registerValidators()

	type form struct {
		Name string `binding:"notblank"`
	}
	assert.Error(t, binding.Validator.ValidateStruct(&form{Name: " \t"}))
	assert.NoError(t, binding.Validator.ValidateStruct(&form{Name: "x"}))
}

func TestPinFromURLRejectsInternalAddress(t *testing.T) {
	var hit atomic.Bool
	internal := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hit.Store(true)
		_, _ = w.Write(pngBytes)
	}))
	defer internal.Close()

	s := newServer(t)
	tok, _ := s.signup("alice")
	board := s.createBoard(tok, "cats", false)

	w, _ := s.do(http.MethodPost, "/api/v1/pins/url", tok, gin.H{"board_id": board, "image_url": internal.URL + "/admin.png"})
	assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
	assert.False(t, hit.Load())
}

func TestPinLifecycle(t *testing.T) {
	s := newServer(t)
	alice, _ := s.signup("alice")
	bob, _ := s.signup("bob")
	aliceBoard := s.createBoard(alice, "cats", false)
	bobBoard := s.createBoard(bob, "saved", false)

	created := s.upload(alice, aliceBoard, "Cat, cute")

	// 图片接口公开
	w, _ := s.do(http.MethodGet, created.SystemURL, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.Equal(t, pngBytes, w.Body.Bytes())

	w, env := s.do(http.MethodGet, fmt.Sprintf("/api/v1/pins/%d", created.PinID), alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), `"tags":["cat","cute"]`)

	// bob 不能转存到 alice 的画板
	w, _ = s.do(http.MethodPost, fmt.Sprintf("/api/v1/pins/%d/repin", created.PinID), bob, gin.H{"board_id": aliceBoard})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, env = s.do(http.MethodPost, fmt.Sprintf("/api/v1/pins/%d/repin", created.PinID), bob, gin.H{"board_id": bobBoard})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var repin struct {
		ID            int64  `json:"id"`
		OriginalPinID *int64 `json:"original_pin_id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &repin))
	require.NotNil(t, repin.OriginalPinID)
	assert.Equal(t, created.PinID, *repin.OriginalPinID)

	w, env = s.do(http.MethodPost, fmt.Sprintf("/api/v1/pictures/%d/like", created.PictureID), bob, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), `"like_count":1`)

	// 只有主人可以删除
	w, _ = s.do(http.MethodDelete, fmt.Sprintf("/api/v1/pins/%d", created.PinID), bob, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, env = s.do(http.MethodDelete, fmt.Sprintf("/api/v1/pins/%d", created.PinID), alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), `"repins_removed":1`)

	w, _ = s.do(http.MethodGet, fmt.Sprintf("/api/v1/pins/%d", repin.ID), bob, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w, _ = s.do(http.MethodGet, created.SystemURL, "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestFriendGatedComments(t *testing.T) {
	s := newServer(t)
	alice, aliceID := s.signup("alice")
	bob, bobID := s.signup("bob")
	board := s.createBoard(alice, "private", true)
	pin := s.upload(alice, board, "sunset")
	commentPath := fmt.Sprintf("/api/v1/pins/%d/comments", pin.PinID)

	w, _ := s.do(http.MethodPost, commentPath, bob, gin.H{"content": "nice"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	w, env := s.do(http.MethodGet, fmt.Sprintf("/api/v1/pins/%d/can-comment", pin.PinID), bob, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), `"can_comment":false`)

	w, _ = s.do(http.MethodGet, fmt.Sprintf("/api/v1/friends/%d/boards", aliceID), bob, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = s.do(http.MethodPost, fmt.Sprintf("/api/v1/friends/%d/request", aliceID), bob, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w, _ = s.do(http.MethodPost, fmt.Sprintf("/api/v1/friends/%d/request", aliceID), bob, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	// 申请人自己不能接受
	w, _ = s.do(http.MethodPost, fmt.Sprintf("/api/v1/friends/%d/accept", aliceID), bob, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, env = s.do(http.MethodGet, "/api/v1/friends/requests", alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), `"username":"bob"`)

	w, env = s.do(http.MethodGet, fmt.Sprintf("/api/v1/friends/%d/status", bobID), alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), `"relation":"pending_received"`)

	w, _ = s.do(http.MethodPost, fmt.Sprintf("/api/v1/friends/%d/accept", bobID), alice, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, _ = s.do(http.MethodPost, commentPath, bob, gin.H{"content": "nice"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w, env = s.do(http.MethodGet, commentPath, alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), `"content":"nice"`)

	w, env = s.do(http.MethodGet, fmt.Sprintf("/api/v1/friends/%d/boards", aliceID), bob, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), `"name":"private"`)

	w, _ = s.do(http.MethodDelete, fmt.Sprintf("/api/v1/friends/%d", aliceID), bob, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w, _ = s.do(http.MethodPost, commentPath, bob, gin.H{"content": "again"})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestSearchEndpoint(t *testing.T) {
	s := newServer(t)
	alice, _ := s.signup("alice")
	board := s.createBoard(alice, "mixed", false)
	both := s.upload(alice, board, "cat,dog")
	s.upload(alice, board, "cat")

	w, env := s.do(http.MethodGet, "/api/v1/search?q=Cat+DOG", alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var res struct {
		Keywords []string `json:"keywords"`
		Hits     []struct {
			PinID      int64 `json:"pin_id"`
			MatchCount int   `json:"match_count"`
		} `json:"hits"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.Equal(t, []string{"cat", "dog"}, res.Keywords)
	require.Len(t, res.Hits, 2)
	assert.Equal(t, both.PinID, res.Hits[0].PinID)
	assert.Equal(t, 2, res.Hits[0].MatchCount)

	w, _ = s.do(http.MethodGet, "/api/v1/search?q=cat&sort=bogus", alice, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStreamEndpoints(t *testing.T) {
	s := newServer(t)
	alice, _ := s.signup("alice")
	bob, _ := s.signup("bob")
	bobBoard := s.createBoard(bob, "travel", false)
	s.upload(bob, bobBoard, "beach")

	w, env := s.do(http.MethodPost, "/api/v1/streams", alice, gin.H{"name": "inspiration"})
	require.Equal(t, http.StatusCreated, w.Code)
	var st struct {
		ID int64 `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &st))

	w, env = s.do(http.MethodGet, fmt.Sprintf("/api/v1/streams/%d/eligible?q=trav", st.ID), alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), `"name":"travel"`)

	w, _ = s.do(http.MethodPost, fmt.Sprintf("/api/v1/streams/%d/boards", st.ID), alice, gin.H{"board_id": bobBoard})
	require.Equal(t, http.StatusOK, w.Code)
	w, _ = s.do(http.MethodPost, fmt.Sprintf("/api/v1/streams/%d/boards", st.ID), alice, gin.H{"board_id": bobBoard})
	assert.Equal(t, http.StatusConflict, w.Code)

	// 不是自己的订阅流
	w, _ = s.do(http.MethodGet, fmt.Sprintf("/api/v1/streams/%d", st.ID), bob, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, env = s.do(http.MethodGet, fmt.Sprintf("/api/v1/streams/%d/feed", st.ID), alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var feed []struct {
		BoardID int64 `json:"board_id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &feed))
	require.Len(t, feed, 1)
	assert.Equal(t, bobBoard, feed[0].BoardID)

	w, _ = s.do(http.MethodDelete, fmt.Sprintf("/api/v1/streams/%d/boards/%d", st.ID, bobBoard), alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w, _ = s.do(http.MethodDelete, fmt.Sprintf("/api/v1/streams/%d", st.ID), alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w, _ = s.do(http.MethodGet, fmt.Sprintf("/api/v1/streams/%d", st.ID), alice, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
