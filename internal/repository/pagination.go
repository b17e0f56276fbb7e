package repository

import "gorm.io/gorm"

// applyPagination 把分页参数套到查询上。
// pageSize 非正数表示调用方不分页，页码越界收敛到第一页。
func applyPagination(query *gorm.DB, page, pageSize int) *gorm.DB {
	if query == nil || pageSize <= 0 {
		return query
	}
	if page < 1 {
		page = 1
	}
	return query.Limit(pageSize).Offset((page - 1) * pageSize)
}
