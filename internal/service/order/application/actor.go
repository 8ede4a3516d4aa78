// internal/service/order/application/actor.go
package application

import "storefront/internal/service/order/domain"

// StaticActor 是 domain.Actor 的一个简单实现，
// 由接口层根据认证结果构造。权限集在请求期内不变。
type StaticActor struct {
	ActorID       string
	Authenticated bool
	Name          string
	Permissions   map[string]bool
}

func (a *StaticActor) ID() string { return a.ActorID }

func (a *StaticActor) IsAuthenticated() bool { return a.Authenticated }

func (a *StaticActor) HasPermission(perm string) bool { return a.Permissions[perm] }

func (a *StaticActor) DisplayName() string { return a.Name }

var _ domain.Actor = (*StaticActor)(nil)
