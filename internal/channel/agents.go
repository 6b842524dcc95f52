package channel

import (
	"context"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"
)

// AgentLoader builds the agent of a bot. It is called on a cache miss.
type AgentLoader func(ctx context.Context, bot string) (Agent, error)

// AgentPool caches one agent per bot and instantiates it lazily. Concurrent
// misses for the same bot share a single load.
type AgentPool struct {
	load  AgentLoader
	cache *cache.Cache
	group singleflight.Group
}

// NewAgentPool returns a pool whose entries expire ttl after their load. A
// ttl <= 0 keeps agents until Invalidate.
func NewAgentPool(load AgentLoader, ttl time.Duration) *AgentPool {
	if ttl <= 0 {
		ttl = cache.NoExpiration
	}
	return &AgentPool{
		load:  load,
		cache: cache.New(ttl, 10*time.Minute),
	}
}

// GetAgent returns the cached agent of bot, loading it on a miss. Failed
// loads are not cached.
func (p *AgentPool) GetAgent(ctx context.Context, bot string) (Agent, error) {
	if a, ok := p.cache.Get(bot); ok {
		return a.(Agent), nil
	}
	v, err, _ := p.group.Do(bot, func() (any, error) {
		if a, ok := p.cache.Get(bot); ok {
			return a, nil
		}
		a, err := p.load(ctx, bot)
		if err != nil {
			return nil, fmt.Errorf("load agent for bot %s: %w", bot, err)
		}
		p.cache.SetDefault(bot, a)
		return a, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(Agent), nil
}

// Invalidate drops the cached agent of bot, e.g. after retraining.
func (p *AgentPool) Invalidate(bot string) {
	p.cache.Delete(bot)
}

// Len is the number of cached agents.
func (p *AgentPool) Len() int { return p.cache.ItemCount() }
