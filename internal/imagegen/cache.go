package imagegen

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/lox/weatherwidget/internal/widget"
)

// CardCache keeps the last rendered card for a short period. An entry is only
// served while the view it was drawn from is unchanged.
type CardCache struct {
	mu        sync.RWMutex
	key       string
	data      []byte
	expiresAt time.Time
	ttl       time.Duration
	now       func() time.Time
}

func NewCardCache(ttl time.Duration) *CardCache {
	return &CardCache{ttl: ttl, now: time.Now}
}

// Get returns the cached card for key if still valid.
func (c *CardCache) Get(key string) ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.data == nil || c.key != key || c.now().After(c.expiresAt) {
		return nil, false
	}
	return c.data, true
}

// Set replaces the cached card.
func (c *CardCache) Set(key string, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.key = key
	c.data = data
	c.expiresAt = c.now().Add(c.ttl)
}

// CacheKey identifies everything a card's pixels depend on.
func CacheKey(v widget.View) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s|%s|%s|%s", v.Mode, v.Colors.Background, v.Colors.Foreground, v.IconLabel)
	if v.Weather != nil {
		fmt.Fprintf(&b, "|%v|%v|%v", v.Weather.Temp, v.Weather.Humidity, v.Weather.WindSpeed)
	}
	if v.Address != nil {
		fmt.Fprintf(&b, "|place=%s", v.PlaceName)
	}
	if v.Error != nil {
		fmt.Fprintf(&b, "|err=%s", v.Error.ID)
	}
	return b.String()
}
