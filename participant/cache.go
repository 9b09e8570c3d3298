package participant

import (
	"context"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
)

var (
	_ Provider    = &CachedProvider{}
	_ Invalidator = &CachedProvider{}
)

// Invalidator is implemented by providers that keep copies of profiles.
// Callers drop a participant's copy once it led to a rejection, so the next
// read sees any fix made in the user service.
type Invalidator interface {
	Invalidate(participantID uuid.UUID)
}

// CachedProvider keeps recently read complete profiles in memory so that
// bursts of admissions from the same participant only hit the backing store
// once. Incomplete profiles are never cached.
type CachedProvider struct {
	next  Provider
	cache *gocache.Cache
}

func NewCachedProvider(next Provider, ttl time.Duration) *CachedProvider {
	return &CachedProvider{
		next:  next,
		cache: gocache.New(ttl, 2*ttl),
	}
}

func (c *CachedProvider) GetProfile(ctx context.Context, participantID uuid.UUID) (Profile, error) {
	key := participantID.String()
	if v, ok := c.cache.Get(key); ok {
		if profile, ok := v.(Profile); ok {
			return profile, nil
		}
	}

	profile, err := c.next.GetProfile(ctx, participantID)
	if err != nil {
		return Profile{}, err
	}

	if profile.IsComplete() {
		c.cache.Set(key, profile, gocache.DefaultExpiration)
	}
	return profile, nil
}

func (c *CachedProvider) Invalidate(participantID uuid.UUID) {
	c.cache.Delete(participantID.String())
}
