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

type StateKind int

const (
	StateAbsent StateKind = iota
	StatePending
	StateAccepted
)

func (k StateKind) String() string {
	switch k {
	case StatePending:
		return "pending"
	case StateAccepted:
		return "accepted"
	default:
		return "absent"
	}
}

// FriendState 一对用户之间的关系状态
// Pending 时 RequesterID 为发起方，Since 为发起时间；Accepted 时 Since 为接受时间
type FriendState struct {
	Kind        StateKind
	RequesterID int64
	Since       time.Time
}

func stateOf(f *model.Friendship) FriendState {
	if f == nil {
		return FriendState{Kind: StateAbsent}
	}
	switch f.Status {
	case model.FriendshipAccepted:
		st := FriendState{Kind: StateAccepted, RequesterID: f.RequesterID, Since: f.RequestedAt}
		if f.AcceptedAt != nil {
			st.Since = *f.AcceptedAt
		}
		return st
	default:
		return FriendState{Kind: StatePending, RequesterID: f.RequesterID, Since: f.RequestedAt}
	}
}

// Relation 以 viewer 视角描述关系：none / pending_sent / pending_received / friends
func (s FriendState) Relation(viewerID int64) string {
	switch s.Kind {
	case StateAccepted:
		return "friends"
	case StatePending:
		if s.RequesterID == viewerID {
			return "pending_sent"
		}
		return "pending_received"
	default:
		return "none"
	}
}

// UserSearchResult 带关系状态的用户搜索结果
type UserSearchResult struct {
	repository.UserRow
	Relation string `json:"relation"`
}

type FriendshipService interface {
	SendRequest(ctx context.Context, fromID, toID int64) error
	Respond(ctx context.Context, responderID, otherID int64, accept bool) error
	Remove(ctx context.Context, userID, otherID int64) error
	State(ctx context.Context, a, b int64) (FriendState, error)
	ListFriends(ctx context.Context, userID int64) ([]repository.UserRow, error)
	ListPending(ctx context.Context, userID int64) ([]repository.PendingRow, error)
	SearchUsers(ctx context.Context, callerID int64, query string) ([]UserSearchResult, error)
}

const userSearchLimit = 20

type friendshipService struct {
	store *repository.Store
	now   func() time.Time
}

func NewFriendshipService(store *repository.Store) FriendshipService {
	return &friendshipService{store: store, now: utcNow}
}

func (s *friendshipService) SendRequest(ctx context.Context, fromID, toID int64) error {
	if fromID == toID {
		return apperr.Conflict("you cannot send a friend request to yourself")
	}
	if _, err := s.store.Users.GetByID(ctx, toID); err != nil {
		return lookup(err, "user not found", "failed to load user", zap.Int64("user_id", toID))
	}

	state, err := s.State(ctx, fromID, toID)
	if err != nil {
		return err
	}
	switch state.Kind {
	case StateAccepted:
		return apperr.Conflict("you are already friends")
	case StatePending:
		return apperr.Conflict("a friend request is already pending")
	}

	f := &model.Friendship{
		UserLowID:   fromID,
		UserHighID:  toID,
		RequesterID: fromID,
		Status:      model.FriendshipPending,
		RequestedAt: s.now(),
	}
	if err := s.store.Friendships.Create(ctx, f); err != nil {
		if isDuplicate(err) {
			return apperr.Conflict("a friend request is already pending")
		}
		return storeFailure(err, "failed to send friend request", zap.Int64("from", fromID), zap.Int64("to", toID))
	}
	return nil
}

// Respond 只有被请求方可以处理；没有待处理请求时返回 NotFound
func (s *friendshipService) Respond(ctx context.Context, responderID, otherID int64, accept bool) error {
	f, err := s.store.Friendships.Find(ctx, responderID, otherID)
	if err != nil {
		return storeFailure(err, "failed to load friend request", zap.Int64("user_id", responderID))
	}
	state := stateOf(f)
	if state.Kind != StatePending {
		return apperr.NotFound("no pending friend request")
	}
	if state.RequesterID == responderID {
		return apperr.Forbidden("only the recipient can respond to a friend request")
	}

	var n int64
	if accept {
		n, err = s.store.Friendships.Accept(ctx, f.ID, s.now())
	} else {
		n, err = s.store.Friendships.Delete(ctx, f.ID)
	}
	if err != nil {
		return storeFailure(err, "failed to respond to friend request", zap.Int64("friendship_id", f.ID))
	}
	if n == 0 {
		return apperr.NotFound("no pending friend request")
	}
	return nil
}

func (s *friendshipService) Remove(ctx context.Context, userID, otherID int64) error {
	f, err := s.store.Friendships.Find(ctx, userID, otherID)
	if err != nil {
		return storeFailure(err, "failed to load friendship", zap.Int64("user_id", userID))
	}
	if f == nil {
		return apperr.NotFound("friendship not found")
	}
	if _, err := s.store.Friendships.Delete(ctx, f.ID); err != nil {
		return storeFailure(err, "failed to remove friendship", zap.Int64("friendship_id", f.ID))
	}
	return nil
}

func (s *friendshipService) State(ctx context.Context, a, b int64) (FriendState, error) {
	f, err := s.store.Friendships.Find(ctx, a, b)
	if err != nil {
		return FriendState{}, storeFailure(err, "failed to load friendship", zap.Int64("a", a), zap.Int64("b", b))
	}
	return stateOf(f), nil
}

func (s *friendshipService) ListFriends(ctx context.Context, userID int64) ([]repository.UserRow, error) {
	rows, err := s.store.Friendships.ListFriends(ctx, userID)
	if err != nil {
		return nil, storeFailure(err, "failed to list friends", zap.Int64("user_id", userID))
	}
	return rows, nil
}

func (s *friendshipService) ListPending(ctx context.Context, userID int64) ([]repository.PendingRow, error) {
	rows, err := s.store.Friendships.ListPending(ctx, userID)
	if err != nil {
		return nil, storeFailure(err, "failed to list friend requests", zap.Int64("user_id", userID))
	}
	return rows, nil
}

func (s *friendshipService) SearchUsers(ctx context.Context, callerID int64, query string) ([]UserSearchResult, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil, apperr.InvalidInput("search query is required")
	}
	users, err := s.store.Users.Search(ctx, q, callerID, userSearchLimit)
	if err != nil {
		return nil, storeFailure(err, "failed to search users", zap.Int64("user_id", callerID))
	}
	ids := make([]int64, len(users))
	for i, u := range users {
		ids[i] = u.ID
	}
	rows, err := s.store.Friendships.ListFor(ctx, callerID, ids)
	if err != nil {
		return nil, storeFailure(err, "failed to load friendships", zap.Int64("user_id", callerID))
	}
	byOther := make(map[int64]*model.Friendship, len(rows))
	for i := range rows {
		other := rows[i].UserLowID
		if other == callerID {
			other = rows[i].UserHighID
		}
		byOther[other] = &rows[i]
	}

	out := make([]UserSearchResult, len(users))
	for i, u := range users {
		out[i] = UserSearchResult{UserRow: u, Relation: stateOf(byOther[u.ID]).Relation(callerID)}
	}
	return out, nil
}
