package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/pinboard/internal/service"
	"github.com/d60-Lab/pinboard/pkg/response"
)

type createBoardRequest struct {
	Name                string `json:"name" binding:"required,notblank,max=100"`
	Description         string `json:"description" binding:"max=2000"`
	FriendsOnlyComments bool   `json:"friends_only_comments"`
}

type updateBoardRequest struct {
	Name                *string `json:"name" binding:"omitempty,notblank,max=100"`
	Description         *string `json:"description" binding:"omitempty,max=2000"`
	FriendsOnlyComments *bool   `json:"friends_only_comments"`
}

// CreateBoard 新建画板
// @Summary 新建画板
// @Tags 画板
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body createBoardRequest true "画板信息"
// @Success 201 {object} response.Response{data=model.Board}
// @Failure 400 {object} response.Response
// @Router /api/v1/boards [post]
func (h *Handler) CreateBoard(c *gin.Context) {
	uid, ok := currentUser(c)
	if !ok {
		return
	}
	var req createBoardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	b, err := h.boards.CreateBoard(c.Request.Context(), service.CreateBoardInput{
		UserID:              uid,
		Name:                req.Name,
		Description:         req.Description,
		FriendsOnlyComments: req.FriendsOnlyComments,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "board created", b)
}

// UpdateBoard 修改画板
// @Summary 修改画板
// @Tags 画板
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "画板ID"
// @Param request body updateBoardRequest true "需要修改的字段"
// @Success 200 {object} response.Response{data=model.Board}
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/boards/{id} [put]
func (h *Handler) UpdateBoard(c *gin.Context) {
	uid, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req updateBoardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	b, err := h.boards.UpdateBoard(c.Request.Context(), id, uid, service.UpdateBoardInput{
		Name:                req.Name,
		Description:         req.Description,
		FriendsOnlyComments: req.FriendsOnlyComments,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessMsg(c, "board updated", b)
}

// DeleteBoard 删除画板及其上的全部 pin
// @Summary 删除画板
// @Tags 画板
// @Security BearerAuth
// @Produce json
// @Param id path int true "画板ID"
// @Success 200 {object} response.Response{data=service.DeleteBoardResult}
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/boards/{id} [delete]
func (h *Handler) DeleteBoard(c *gin.Context) {
	uid, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	res, err := h.boards.DeleteBoard(c.Request.Context(), id, uid)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessMsg(c, "board deleted", res)
}

// GetBoard 画板详情
// @Summary 画板详情及其 pin
// @Tags 画板
// @Security BearerAuth
// @Produce json
// @Param id path int true "画板ID"
// @Success 200 {object} response.Response{data=service.BoardDetail}
// @Failure 404 {object} response.Response
// @Router /api/v1/boards/{id} [get]
func (h *Handler) GetBoard(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	d, err := h.boards.GetBoard(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, d)
}

// MyBoards 当前用户的画板
// @Summary 我的画板
// @Tags 画板
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.Response{data=[]repository.BoardRow}
// @Router /api/v1/users/me/boards [get]
func (h *Handler) MyBoards(c *gin.Context) {
	uid, ok := currentUser(c)
	if !ok {
		return
	}
	rows, err := h.boards.ListUserBoards(c.Request.Context(), uid)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, rows)
}

// FriendBoards 查看好友的画板，仅好友可见
// @Summary 好友的画板
// @Tags 好友
// @Security BearerAuth
// @Produce json
// @Param id path int true "好友用户ID"
// @Success 200 {object} response.Response{data=[]repository.BoardRow}
// @Failure 403 {object} response.Response
// @Router /api/v1/friends/{id}/boards [get]
func (h *Handler) FriendBoards(c *gin.Context) {
	uid, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	rows, err := h.boards.FriendBoards(c.Request.Context(), uid, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, rows)
}
