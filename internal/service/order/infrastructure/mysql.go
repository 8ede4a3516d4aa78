// internal/service/order/infrastructure/mysql.go
package infrastructure

import (
	"github.com/pkg/errors"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// NewMysqlDB 建立 MySQL 连接并迁移本服务拥有的表。
func NewMysqlDB(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to mysql")
	}
	if err := db.AutoMigrate(&OrderModel{}, &OrderItemModel{}, &OrderTransitionLogModel{}); err != nil {
		return nil, errors.Wrap(err, "failed to migrate order tables")
	}
	return db, nil
}
