// internal/service/order/domain/actor.go
package domain

// Actor 是执行流转的主体（后台管理员、系统任务等）。
// 引擎只依赖这几个能力，具体的用户体系由接入方提供。
type Actor interface {
	// ID 返回主体的唯一标识。
	ID() string
	// IsAuthenticated 报告主体是否是已认证的用户。
	IsAuthenticated() bool
	// HasPermission 报告主体是否持有指定权限码。
	HasPermission(perm string) bool
	// DisplayName 返回用于展示和审计的名称。
	DisplayName() string
}
