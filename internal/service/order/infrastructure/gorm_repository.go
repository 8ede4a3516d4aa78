// internal/service/order/infrastructure/gorm_repository.go
package infrastructure

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"storefront/internal/service/order/domain"
)

// txKey 用于在 context 中携带事务句柄，使同一工作单元内的
// 仓储调用落在同一个数据库事务上。
type txKey struct{}

func dbFromContext(ctx context.Context, fallback *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx
	}
	return fallback.WithContext(ctx)
}

// GormTxManager 是 domain.TxManager 的 GORM 实现。
type GormTxManager struct {
	db *gorm.DB
}

func NewGormTxManager(db *gorm.DB) *GormTxManager {
	return &GormTxManager{db: db}
}

// InTransaction 在单个数据库事务内执行 fn。
// fn 返回错误（包括我们自己的回滚哨兵）时整体回滚。
func (m *GormTxManager) InTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

// GormOrderRepository 是 OrderRepository 的 GORM 实现
type GormOrderRepository struct {
	db *gorm.DB
}

func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

func (r *GormOrderRepository) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	var model OrderModel
	err := dbFromContext(ctx, r.db).Preload("Items").Where("id = ?", id).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.Wrapf(domain.ErrOrderNotFound, "order %s", id)
		}
		return nil, errors.Wrapf(err, "failed to load order %s", id)
	}
	return ToDomainOrder(&model), nil
}

// FindByIDForUpdate 以 SELECT ... FOR UPDATE 读取订单行。
// 必须在 InTransaction 内调用，锁随事务提交/回滚释放。
func (r *GormOrderRepository) FindByIDForUpdate(ctx context.Context, id string) (*domain.Order, error) {
	var model OrderModel
	err := dbFromContext(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.Wrapf(domain.ErrOrderNotFound, "order %s", id)
		}
		return nil, errors.Wrapf(err, "failed to lock order %s", id)
	}
	// Items 不参与行锁，单独加载
	if err := dbFromContext(ctx, r.db).Where("order_id = ?", id).Find(&model.Items).Error; err != nil {
		return nil, errors.Wrapf(err, "failed to load items for order %s", id)
	}
	return ToDomainOrder(&model), nil
}

// UpdateStatus 只写 status 和 updated_at 两个字段。
func (r *GormOrderRepository) UpdateStatus(ctx context.Context, id string, status domain.Status) error {
	err := dbFromContext(ctx, r.db).
		Model(&OrderModel{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     status.String(),
			"updated_at": time.Now(),
		}).Error
	return errors.Wrapf(err, "failed to update status of order %s", id)
}

func (r *GormOrderRepository) Save(ctx context.Context, order *domain.Order) error {
	model := FromDomainOrder(order)
	if err := dbFromContext(ctx, r.db).Create(model).Error; err != nil {
		return errors.Wrapf(err, "failed to save order %s", order.ID)
	}
	return nil
}

// GormTransitionLogRepository 是 TransitionLogRepository 的 GORM 实现
type GormTransitionLogRepository struct {
	db *gorm.DB
}

func NewGormTransitionLogRepository(db *gorm.DB) *GormTransitionLogRepository {
	return &GormTransitionLogRepository{db: db}
}

// Insert 以 insert-if-absent 语义写入审计记录。
// OnConflict DoNothing 让幂等键撞上唯一索引时不报错、零行写入；
// 此时按键查出已存在的记录返回，由调用方按幂等重放处理。
func (r *GormTransitionLogRepository) Insert(ctx context.Context, entry *domain.TransitionLog) (*domain.TransitionLog, bool, error) {
	model, err := FromDomainTransitionLog(entry)
	if err != nil {
		return nil, false, errors.Wrap(err, "failed to encode transition log metadata")
	}

	db := dbFromContext(ctx, r.db)
	result := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "idempotency_key"}},
		DoNothing: true,
	}).Create(model)
	if result.Error != nil {
		return nil, false, errors.Wrap(result.Error, "failed to insert transition log")
	}
	if result.RowsAffected == 0 {
		// 并发的首次执行抢先占用了这个幂等键
		var existing OrderTransitionLogModel
		err := db.Where("idempotency_key = ?", entry.IdempotencyKey).First(&existing).Error
		if err != nil {
			return nil, false, errors.Wrap(err, "failed to load conflicting transition log")
		}
		return ToDomainTransitionLog(&existing), false, nil
	}
	return ToDomainTransitionLog(model), true, nil
}

func (r *GormTransitionLogRepository) FindByOrderAndKey(ctx context.Context, orderID, idempotencyKey string) (*domain.TransitionLog, error) {
	var model OrderTransitionLogModel
	err := dbFromContext(ctx, r.db).
		Where("order_id = ? AND idempotency_key = ?", orderID, idempotencyKey).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to look up transition log")
	}
	return ToDomainTransitionLog(&model), nil
}
