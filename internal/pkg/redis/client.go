package redis

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	goredis "github.com/redis/go-redis/v9"
)

// Client 是 go-redis 的一个薄封装，额外维护了一张已加载 Lua 脚本的表。
// 脚本在适配器初始化时加载，运行期只通过名字引用。
type Client struct {
	client *goredis.Client

	mu      sync.RWMutex
	scripts map[string]*goredis.Script
}

func NewClient(addr string) *Client {
	return &Client{
		client:  goredis.NewClient(&goredis.Options{Addr: addr}),
		scripts: make(map[string]*goredis.Script),
	}
}

// GetClient 暴露底层客户端，供需要 pipeline 等高级能力的调用方使用。
func (c *Client) GetClient() *goredis.Client {
	return c.client
}

// LoadScriptFromContent 注册一段 Lua 脚本。重复注册同名脚本是配置错误。
func (c *Client) LoadScriptFromContent(name, content string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.scripts[name]; ok {
		return errors.Errorf("lua script already registered: %s", name)
	}
	c.scripts[name] = goredis.NewScript(content)
	return nil
}

// RunScript 按名字执行已注册的脚本。
// go-redis 的 Script.Run 会优先使用 EVALSHA，未命中时回退到 EVAL。
func (c *Client) RunScript(ctx context.Context, name string, keys []string, args ...interface{}) (interface{}, error) {
	c.mu.RLock()
	script, ok := c.scripts[name]
	c.mu.RUnlock()
	if !ok {
		return nil, errors.Errorf("unknown lua script: %s", name)
	}
	return script.Run(ctx, c.client, keys, args...).Result()
}

func (c *Client) Close() error {
	return c.client.Close()
}
