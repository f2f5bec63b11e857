package handler

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/pinboard/internal/service"
	"github.com/d60-Lab/pinboard/pkg/response"
)

type urlPinRequest struct {
	BoardID     int64    `json:"board_id" binding:"required,gt=0"`
	ImageURL    string   `json:"image_url" binding:"required,url"`
	SourceURL   string   `json:"source_url" binding:"omitempty,url"`
	Description string   `json:"description" binding:"max=2000"`
	Tags        []string `json:"tags" binding:"max=50"`
}

type repinRequest struct {
	BoardID     int64  `json:"board_id" binding:"required,gt=0"`
	Description string `json:"description" binding:"max=2000"`
}

type commentRequest struct {
	Content string `json:"content" binding:"required,notblank,max=2000"`
}

// splitTags 表单里的 tags 以逗号或空白分隔
func splitTags(raw string) []string {
	return strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	})
}

// UploadPin 上传图片创建原创 pin
// @Summary 上传图片创建 pin
// @Tags Pin
// @Security BearerAuth
// @Accept multipart/form-data
// @Produce json
// @Param board_id formData int true "画板ID"
// @Param image formData file true "图片"
// @Param description formData string false "描述"
// @Param source_url formData string false "来源页面"
// @Param tags formData string false "标签，逗号分隔"
// @Success 201 {object} response.Response{data=service.CreatePinResult}
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /api/v1/pins [post]
func (h *Handler) UploadPin(c *gin.Context) {
	uid, ok := currentUser(c)
	if !ok {
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUpload+1<<20)

	boardID, err := strconv.ParseInt(c.PostForm("board_id"), 10, 64)
	if err != nil || boardID <= 0 {
		response.BadRequest(c, "board_id must be a positive integer")
		return
	}
	fh, err := c.FormFile("image")
	if err != nil {
		response.BadRequest(c, "image file is required")
		return
	}
	if fh.Size > h.maxUpload {
		response.BadRequest(c, "image too large")
		return
	}
	f, err := fh.Open()
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, h.maxUpload+1))
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if int64(len(data)) > h.maxUpload {
		response.BadRequest(c, "image too large")
		return
	}

	res, err := h.pins.CreateOriginalPin(c.Request.Context(), service.CreatePinInput{
		UserID:      uid,
		BoardID:     boardID,
		Image:       data,
		OriginalURL: fh.Filename,
		SourceURL:   c.PostForm("source_url"),
		Description: c.PostForm("description"),
		Tags:        splitTags(c.PostForm("tags")),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "pin created", res)
}

// PinFromURL 抓取远程图片创建原创 pin
// @Summary 通过图片 URL 创建 pin
// @Tags Pin
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body urlPinRequest true "图片地址"
// @Success 201 {object} response.Response{data=service.CreatePinResult}
// @Failure 400 {object} response.Response
// @Router /api/v1/pins/url [post]
func (h *Handler) PinFromURL(c *gin.Context) {
	uid, ok := currentUser(c)
	if !ok {
		return
	}
	var req urlPinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	data, err := h.fetcher.Fetch(c.Request.Context(), req.ImageURL)
	if err != nil {
		response.Error(c, err)
		return
	}
	source := req.SourceURL
	if source == "" {
		source = req.ImageURL
	}
	res, err := h.pins.CreateOriginalPin(c.Request.Context(), service.CreatePinInput{
		UserID:      uid,
		BoardID:     req.BoardID,
		Image:       data,
		OriginalURL: req.ImageURL,
		SourceURL:   source,
		Description: req.Description,
		Tags:        req.Tags,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "pin created", res)
}

// Repin 转存到自己的画板
// @Summary 转存 pin
// @Tags Pin
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "被转存的 pin ID"
// @Param request body repinRequest true "目标画板"
// @Success 201 {object} response.Response{data=model.Pin}
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/pins/{id}/repin [post]
func (h *Handler) Repin(c *gin.Context) {
	uid, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req repinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	p, err := h.pins.Repin(c.Request.Context(), service.RepinInput{
		UserID:      uid,
		SourcePinID: id,
		BoardID:     req.BoardID,
		Description: req.Description,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "repinned", p)
}

// GetPin pin 详情
// @Summary pin 详情
// @Tags Pin
// @Security BearerAuth
// @Produce json
// @Param id path int true "pin ID"
// @Success 200 {object} response.Response{data=service.PinDetail}
// @Failure 404 {object} response.Response
// @Router /api/v1/pins/{id} [get]
func (h *Handler) GetPin(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	d, err := h.pins.GetPin(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, d)
}

// DeletePin 删除 pin；原创 pin 会连带删除全部转存
// @Summary 删除 pin
// @Tags Pin
// @Security BearerAuth
// @Produce json
// @Param id path int true "pin ID"
// @Success 200 {object} response.Response{data=service.DeletePinResult}
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/pins/{id} [delete]
func (h *Handler) DeletePin(c *gin.Context) {
	uid, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	res, err := h.pins.DeletePin(c.Request.Context(), id, uid)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessMsg(c, "pin deleted", res)
}

// Image 输出图片原始字节
// @Summary 获取图片
// @Tags Pin
// @Produce octet-stream
// @Param id path int true "图片ID"
// @Success 200 {file} binary
// @Failure 404 {object} response.Response
// @Router /api/v1/images/{id} [get]
func (h *Handler) Image(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	img, err := h.pins.GetImage(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Cache-Control", "public, max-age=86400, immutable")
	c.Data(http.StatusOK, img.ContentType, img.Data)
}

// ListComments pin 的评论，新的在前
// @Summary 评论列表
// @Tags 评论
// @Security BearerAuth
// @Produce json
// @Param id path int true "pin ID"
// @Success 200 {object} response.Response{data=[]repository.CommentRow}
// @Router /api/v1/pins/{id}/comments [get]
func (h *Handler) ListComments(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	rows, err := h.comments.ListComments(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, rows)
}

// AddComment 发表评论，受画板的好友评论限制
// @Summary 发表评论
// @Tags 评论
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "pin ID"
// @Param request body commentRequest true "评论内容"
// @Success 201 {object} response.Response{data=model.Comment}
// @Failure 403 {object} response.Response
// @Router /api/v1/pins/{id}/comments [post]
func (h *Handler) AddComment(c *gin.Context) {
	uid, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	cm, err := h.comments.AddComment(c.Request.Context(), uid, id, req.Content)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "comment added", cm)
}

// DeleteComment 删除自己的评论
// @Summary 删除评论
// @Tags 评论
// @Security BearerAuth
// @Produce json
// @Param id path int true "评论ID"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /api/v1/comments/{id} [delete]
func (h *Handler) DeleteComment(c *gin.Context) {
	uid, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.comments.DeleteComment(c.Request.Context(), id, uid); err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessMsg(c, "comment deleted", nil)
}

// Like 点赞图片，重复点赞不报错
// @Summary 点赞
// @Tags 点赞
// @Security BearerAuth
// @Produce json
// @Param id path int true "图片ID"
// @Success 200 {object} response.Response{data=map[string]int64}
// @Failure 404 {object} response.Response
// @Router /api/v1/pictures/{id}/like [post]
func (h *Handler) Like(c *gin.Context) {
	h.toggleLike(c, h.likes.Like)
}

// Unlike 取消点赞
// @Summary 取消点赞
// @Tags 点赞
// @Security BearerAuth
// @Produce json
// @Param id path int true "图片ID"
// @Success 200 {object} response.Response{data=map[string]int64}
// @Router /api/v1/pictures/{id}/like [delete]
func (h *Handler) Unlike(c *gin.Context) {
	h.toggleLike(c, h.likes.Unlike)
}

func (h *Handler) toggleLike(c *gin.Context, op func(ctx context.Context, userID, pictureID int64) (int64, error)) {
	uid, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	n, err := op(c.Request.Context(), uid, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"picture_id": id, "like_count": n})
}

// CanComment 当前用户能否评论该 pin
// @Summary 评论权限
// @Tags 评论
// @Security BearerAuth
// @Produce json
// @Param id path int true "pin ID"
// @Success 200 {object} response.Response{data=map[string]bool}
// @Failure 404 {object} response.Response
// @Router /api/v1/pins/{id}/can-comment [get]
func (h *Handler) CanComment(c *gin.Context) {
	uid, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	allowed, err := h.comments.CanComment(c.Request.Context(), uid, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"can_comment": allowed})
}
