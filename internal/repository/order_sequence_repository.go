package repository

import (
	"errors"

	"github.com/shopnext/internal/models"

	"gorm.io/gorm"
)

// ErrSequenceContention 当日序号竞争持续失败
var ErrSequenceContention = errors.New("order sequence contention, retries exhausted")

// OrderSequenceRepository 订单号序列数据访问接口
type OrderSequenceRepository interface {
	Next(day string) (int64, error)
	WithTx(tx *gorm.DB) *GormOrderSequenceRepository
}

// GormOrderSequenceRepository GORM 实现
type GormOrderSequenceRepository struct {
	db *gorm.DB
}

// NewOrderSequenceRepository 创建订单号序列仓库
func NewOrderSequenceRepository(db *gorm.DB) *GormOrderSequenceRepository {
	return &GormOrderSequenceRepository{db: db}
}

// WithTx 绑定事务
func (r *GormOrderSequenceRepository) WithTx(tx *gorm.DB) *GormOrderSequenceRepository {
	if tx == nil {
		return r
	}
	return &GormOrderSequenceRepository{db: tx}
}

// Next 分配当日下一个序号。
// 当日首次调用创建计数行；之后通过 last_value 的条件自增保证并发下不重号，
// 0 行生效说明有并发分配抢先，重读后重试。
func (r *GormOrderSequenceRepository) Next(day string) (int64, error) {
	for attempt := 0; attempt < 10; attempt++ {
		var seq models.OrderSequence
		result := r.db.Where("day = ?", day).Limit(1).Find(&seq)
		if result.Error != nil {
			return 0, result.Error
		}
		if result.RowsAffected == 0 {
			seq = models.OrderSequence{Day: day, LastValue: 1}
			if err := r.db.Create(&seq).Error; err == nil {
				return 1, nil
			}
			// 并发首单已创建计数行，转入自增路径
			continue
		}

		update := r.db.Model(&models.OrderSequence{}).
			Where("day = ? AND last_value = ?", day, seq.LastValue).
			Update("last_value", seq.LastValue+1)
		if update.Error != nil {
			return 0, update.Error
		}
		if update.RowsAffected == 1 {
			return seq.LastValue + 1, nil
		}
	}
	return 0, ErrSequenceContention
}
