package admin

import (
	"errors"
	"strings"

	"github.com/shopnext/internal/http/response"
	"github.com/shopnext/internal/service"

	"github.com/gin-gonic/gin"
)

// GetSetting 获取配置项 (Admin)
func (h *Handler) GetSetting(c *gin.Context) {
	key := strings.TrimSpace(c.Param("key"))
	if key == "" {
		respondError(c, response.CodeBadRequest, "配置键无效", nil)
		return
	}

	value, err := h.SettingService.GetByKey(key)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondError(c, response.CodeNotFound, "配置项不存在", nil)
			return
		}
		respondError(c, response.CodeInternal, "配置查询失败", err)
		return
	}
	response.Success(c, gin.H{"key": key, "value": value})
}

// UpdateSetting 更新配置项 (Admin)
func (h *Handler) UpdateSetting(c *gin.Context) {
	key := strings.TrimSpace(c.Param("key"))
	if key == "" {
		respondError(c, response.CodeBadRequest, "配置键无效", nil)
		return
	}

	var req map[string]interface{}
	if err := c.ShouldBindJSON(&req); err != nil || len(req) == 0 {
		respondError(c, response.CodeBadRequest, "请求参数无效", err)
		return
	}

	value, err := h.SettingService.Update(key, req)
	if err != nil {
		respondError(c, response.CodeInternal, "配置保存失败", err)
		return
	}
	response.Success(c, gin.H{"key": key, "value": value})
}

// ListWarehouses 获取仓库列表 (Admin)
func (h *Handler) ListWarehouses(c *gin.Context) {
	warehouses, err := h.WarehouseRepo.ListActive()
	if err != nil {
		respondError(c, response.CodeInternal, "仓库查询失败", err)
		return
	}
	response.Success(c, warehouses)
}
