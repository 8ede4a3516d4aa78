// internal/service/order/workflow/registry.go
package workflow

import (
	"github.com/pkg/errors"
)

// Registry 维护守卫和效果的键 → 函数映射。
// 注册只发生在进程初始化阶段，之后只读；因此运行期的查找不加锁。
// 作为显式的值注入到 Service 中，而不是包级全局表，方便在测试里
// 用假守卫/假效果替换。
type Registry struct {
	guards  map[string]GuardFunc
	effects map[string]EffectFunc
}

func NewRegistry() *Registry {
	return &Registry{
		guards:  make(map[string]GuardFunc),
		effects: make(map[string]EffectFunc),
	}
}

// RegisterGuard 注册一个守卫，键冲突视为配置错误。
func (r *Registry) RegisterGuard(key string, fn GuardFunc) error {
	if _, ok := r.guards[key]; ok {
		return errors.Wrapf(ErrDuplicateKey, "guard %q", key)
	}
	r.guards[key] = fn
	return nil
}

// RegisterEffect 注册一个效果，键冲突视为配置错误。
func (r *Registry) RegisterEffect(key string, fn EffectFunc) error {
	if _, ok := r.effects[key]; ok {
		return errors.Wrapf(ErrDuplicateKey, "effect %q", key)
	}
	r.effects[key] = fn
	return nil
}

// Guard 按键查找守卫。键不存在属于配置错误，应该在启动校验时被拦下，
// 而不是在请求路径上出现。
func (r *Registry) Guard(key string) (GuardFunc, error) {
	fn, ok := r.guards[key]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownKey, "guard %q", key)
	}
	return fn, nil
}

// Effect 按键查找效果。
func (r *Registry) Effect(key string) (EffectFunc, error) {
	fn, ok := r.effects[key]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownKey, "effect %q", key)
	}
	return fn, nil
}

// Validate 解析流转表引用的每一个守卫/效果键。
// 启动时调用，任何缺失键都在这里失败，保证运行期查找不会再碰到
// ErrUnknownKey。
func (r *Registry) Validate(table *Table) error {
	for _, t := range table.Transitions() {
		for _, key := range t.Guards {
			if _, err := r.Guard(key); err != nil {
				return errors.Wrapf(err, "transition %q", t.Name)
			}
		}
		for _, key := range t.Effects {
			if _, err := r.Effect(key); err != nil {
				return errors.Wrapf(err, "transition %q", t.Name)
			}
		}
	}
	return nil
}
