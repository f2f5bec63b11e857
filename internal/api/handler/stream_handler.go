package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/pinboard/pkg/response"
)

type createStreamRequest struct {
	Name string `json:"name" binding:"required,notblank,max=100"`
}

type addStreamBoardRequest struct {
	BoardID int64 `json:"board_id" binding:"required,gt=0"`
}

// CreateStream 新建订阅流
// @Summary 新建订阅流
// @Tags 订阅流
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body createStreamRequest true "名称"
// @Success 201 {object} response.Response{data=model.FollowStream}
// @Router /api/v1/streams [post]
func (h *Handler) CreateStream(c *gin.Context) {
	uid, ok := currentUser(c)
	if !ok {
		return
	}
	var req createStreamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	s, err := h.streams.CreateStream(c.Request.Context(), uid, req.Name)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "stream created", s)
}

// ListStreams 我的订阅流
// @Summary 订阅流列表
// @Tags 订阅流
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.Response{data=[]model.FollowStream}
// @Router /api/v1/streams [get]
func (h *Handler) ListStreams(c *gin.Context) {
	uid, ok := currentUser(c)
	if !ok {
		return
	}
	rows, err := h.streams.ListStreams(c.Request.Context(), uid)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, rows)
}

// GetStream 订阅流详情
// @Summary 订阅流详情
// @Tags 订阅流
// @Security BearerAuth
// @Produce json
// @Param id path int true "订阅流ID"
// @Success 200 {object} response.Response{data=service.StreamDetail}
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/streams/{id} [get]
func (h *Handler) GetStream(c *gin.Context) {
	uid, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	d, err := h.streams.GetStream(c.Request.Context(), id, uid)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, d)
}

// DeleteStream 删除订阅流，画板本身不受影响
// @Summary 删除订阅流
// @Tags 订阅流
// @Security BearerAuth
// @Produce json
// @Param id path int true "订阅流ID"
// @Success 200 {object} response.Response
// @Router /api/v1/streams/{id} [delete]
func (h *Handler) DeleteStream(c *gin.Context) {
	uid, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.streams.DeleteStream(c.Request.Context(), id, uid); err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessMsg(c, "stream deleted", nil)
}

// AddStreamBoard 将画板加入订阅流
// @Summary 订阅画板
// @Tags 订阅流
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "订阅流ID"
// @Param request body addStreamBoardRequest true "画板"
// @Success 200 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /api/v1/streams/{id}/boards [post]
func (h *Handler) AddStreamBoard(c *gin.Context) {
	uid, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req addStreamBoardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if err := h.streams.AddBoard(c.Request.Context(), id, req.BoardID, uid); err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessMsg(c, "board added", nil)
}

// RemoveStreamBoard 从订阅流移除画板
// @Summary 取消订阅画板
// @Tags 订阅流
// @Security BearerAuth
// @Produce json
// @Param id path int true "订阅流ID"
// @Param boardId path int true "画板ID"
// @Success 200 {object} response.Response
// @Router /api/v1/streams/{id}/boards/{boardId} [delete]
func (h *Handler) RemoveStreamBoard(c *gin.Context) {
	uid, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	boardID, ok := pathID(c, "boardId")
	if !ok {
		return
	}
	if err := h.streams.RemoveBoard(c.Request.Context(), id, boardID, uid); err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessMsg(c, "board removed", nil)
}

// EligibleBoards 可加入订阅流的画板，自己的排在前面
// @Summary 可订阅的画板
// @Tags 订阅流
// @Security BearerAuth
// @Produce json
// @Param id path int true "订阅流ID"
// @Param q query string false "画板名关键词"
// @Success 200 {object} response.Response{data=[]repository.BoardRow}
// @Router /api/v1/streams/{id}/eligible [get]
func (h *Handler) EligibleBoards(c *gin.Context) {
	uid, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	rows, err := h.streams.EligibleBoards(c.Request.Context(), id, uid, c.Query("q"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, rows)
}

// StreamFeed 订阅流中各画板的 pin，新的在前
// @Summary 订阅流内容
// @Tags 订阅流
// @Security BearerAuth
// @Produce json
// @Param id path int true "订阅流ID"
// @Param limit query int false "每页数量" default(30)
// @Param offset query int false "偏移量" default(0)
// @Success 200 {object} response.Response{data=[]repository.PinRow}
// @Router /api/v1/streams/{id}/feed [get]
func (h *Handler) StreamFeed(c *gin.Context) {
	uid, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	rows, err := h.streams.Feed(c.Request.Context(), id, uid, queryInt(c, "limit", 0), queryInt(c, "offset", 0))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, rows)
}
