package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/pinboard/pkg/response"
)

// SendFriendRequest 发送好友申请
// @Summary 发送好友申请
// @Tags 好友
// @Security BearerAuth
// @Produce json
// @Param id path int true "对方用户ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /api/v1/friends/{id}/request [post]
func (h *Handler) SendFriendRequest(c *gin.Context) {
	uid, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.friends.SendRequest(c.Request.Context(), uid, id); err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessMsg(c, "friend request sent", nil)
}

// AcceptFriendRequest 接受好友申请
// @Summary 接受好友申请
// @Tags 好友
// @Security BearerAuth
// @Produce json
// @Param id path int true "申请人用户ID"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/friends/{id}/accept [post]
func (h *Handler) AcceptFriendRequest(c *gin.Context) {
	h.respond(c, true, "friend request accepted")
}

// RejectFriendRequest 拒绝好友申请
// @Summary 拒绝好友申请
// @Tags 好友
// @Security BearerAuth
// @Produce json
// @Param id path int true "申请人用户ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/friends/{id}/reject [post]
func (h *Handler) RejectFriendRequest(c *gin.Context) {
	h.respond(c, false, "friend request rejected")
}

func (h *Handler) respond(c *gin.Context, accept bool, msg string) {
	uid, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.friends.Respond(c.Request.Context(), uid, id, accept); err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessMsg(c, msg, nil)
}

// RemoveFriend 解除好友关系或撤回申请
// @Summary 删除好友
// @Tags 好友
// @Security BearerAuth
// @Produce json
// @Param id path int true "对方用户ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/friends/{id} [delete]
func (h *Handler) RemoveFriend(c *gin.Context) {
	uid, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.friends.Remove(c.Request.Context(), uid, id); err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessMsg(c, "friend removed", nil)
}

// ListFriends 好友列表
// @Summary 好友列表
// @Tags 好友
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.Response{data=[]repository.UserRow}
// @Router /api/v1/friends [get]
func (h *Handler) ListFriends(c *gin.Context) {
	uid, ok := currentUser(c)
	if !ok {
		return
	}
	rows, err := h.friends.ListFriends(c.Request.Context(), uid)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, rows)
}

// ListFriendRequests 收到的待处理申请
// @Summary 待处理的好友申请
// @Tags 好友
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.Response{data=[]repository.PendingRow}
// @Router /api/v1/friends/requests [get]
func (h *Handler) ListFriendRequests(c *gin.Context) {
	uid, ok := currentUser(c)
	if !ok {
		return
	}
	rows, err := h.friends.ListPending(c.Request.Context(), uid)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, rows)
}

// FriendStatus 与某用户之间的好友状态
// @Summary 好友状态
// @Tags 好友
// @Security BearerAuth
// @Produce json
// @Param id path int true "对方用户ID"
// @Success 200 {object} response.Response{data=map[string]string}
// @Router /api/v1/friends/{id}/status [get]
func (h *Handler) FriendStatus(c *gin.Context) {
	uid, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	st, err := h.friends.State(c.Request.Context(), uid, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"user_id": id, "relation": st.Relation(uid)})
}
