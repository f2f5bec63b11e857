package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/pinboard/internal/api/middleware"
	"github.com/d60-Lab/pinboard/internal/service"
	"github.com/d60-Lab/pinboard/pkg/response"
)

type registerRequest struct {
	Username string `json:"username" binding:"required,notblank,max=64"`
	Email    string `json:"email" binding:"required,email,max=128"`
	Password string `json:"password" binding:"required,min=8,max=72"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type profileRequest struct {
	DisplayName string `json:"display_name" binding:"max=100"`
	Bio         string `json:"bio" binding:"max=2000"`
	PictureURL  string `json:"picture_url" binding:"omitempty,url,max=512"`
}

// Register 注册
// @Summary 注册账号
// @Tags 账号
// @Accept json
// @Produce json
// @Param request body registerRequest true "注册信息"
// @Success 201 {object} response.Response{data=model.User}
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /api/v1/auth/register [post]
func (h *Handler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	u, err := h.users.Register(c.Request.Context(), service.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "registration successful", u)
}

// Login 登录
// @Summary 登录并获取 token
// @Tags 账号
// @Accept json
// @Produce json
// @Param request body loginRequest true "登录信息"
// @Success 200 {object} response.Response{data=service.LoginResult}
// @Failure 400 {object} response.Response
// @Router /api/v1/auth/login [post]
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	res, err := h.users.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessMsg(c, "login successful", res)
}

// Logout 注销当前 token
// @Summary 注销
// @Tags 账号
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /api/v1/auth/logout [post]
func (h *Handler) Logout(c *gin.Context) {
	claims, ok := middleware.Claims(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}
	if err := h.users.Logout(c.Request.Context(), claims); err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessMsg(c, "logged out", nil)
}

// Me 当前用户资料
// @Summary 当前用户
// @Tags 账号
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.Response{data=service.ProfileView}
// @Router /api/v1/users/me [get]
func (h *Handler) Me(c *gin.Context) {
	uid, ok := currentUser(c)
	if !ok {
		return
	}
	view, err := h.users.GetProfile(c.Request.Context(), uid)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, view)
}

// GetUser 查看用户资料
// @Summary 用户资料
// @Tags 账号
// @Security BearerAuth
// @Produce json
// @Param id path int true "用户ID"
// @Success 200 {object} response.Response{data=service.ProfileView}
// @Failure 404 {object} response.Response
// @Router /api/v1/users/{id} [get]
func (h *Handler) GetUser(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	view, err := h.users.GetProfile(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	view.User.Email = ""
	response.Success(c, view)
}

// UpdateProfile 更新个人资料
// @Summary 更新个人资料
// @Tags 账号
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body profileRequest true "资料"
// @Success 200 {object} response.Response{data=model.Profile}
// @Router /api/v1/users/me/profile [put]
func (h *Handler) UpdateProfile(c *gin.Context) {
	uid, ok := currentUser(c)
	if !ok {
		return
	}
	var req profileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	p, err := h.users.UpsertProfile(c.Request.Context(), uid, service.ProfileInput{
		DisplayName: req.DisplayName,
		Bio:         req.Bio,
		PictureURL:  req.PictureURL,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessMsg(c, "profile updated", p)
}

// SearchUsers 按用户名 / 昵称搜索用户
// @Summary 搜索用户
// @Tags 好友
// @Security BearerAuth
// @Produce json
// @Param q query string true "关键词"
// @Success 200 {object} response.Response{data=[]service.UserSearchResult}
// @Router /api/v1/users/search [get]
func (h *Handler) SearchUsers(c *gin.Context) {
	uid, ok := currentUser(c)
	if !ok {
		return
	}
	res, err := h.friends.SearchUsers(c.Request.Context(), uid, c.Query("q"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}
