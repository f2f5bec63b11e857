package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/pinboard/internal/service"
	"github.com/d60-Lab/pinboard/pkg/response"
)

// Search 按标签关键词搜索原创 pin
// @Summary 标签搜索
// @Description 关键词按空白切分，命中任一标签即返回；sort 可选 relevance / likes / time
// @Tags 搜索
// @Security BearerAuth
// @Produce json
// @Param q query string true "关键词"
// @Param sort query string false "排序方式" Enums(relevance, likes, time)
// @Param limit query int false "每页数量" default(20)
// @Param offset query int false "偏移量" default(0)
// @Success 200 {object} response.Response{data=service.SearchResult}
// @Failure 400 {object} response.Response
// @Router /api/v1/search [get]
func (h *Handler) Search(c *gin.Context) {
	res, err := h.search.Search(c.Request.Context(), service.SearchQuery{
		Q:      c.Query("q"),
		Sort:   c.Query("sort"),
		Limit:  queryInt(c, "limit", 0),
		Offset: queryInt(c, "offset", 0),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}
