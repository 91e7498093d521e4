package dispatch

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"github.com/dropDatabas3/certhub/internal/domain/repository"
)

// eventCache evita que un batch de N envíos del mismo evento haga N
// lookups al repo. Thread-safe, usa singleflight para colapsar lookups
// concurrentes de la misma key.
type eventCache struct {
	repo repository.EventRepository
	c    *gocache.Cache
	sf   singleflight.Group
}

func newEventCache(repo repository.EventRepository) *eventCache {
	return &eventCache{
		repo: repo,
		c:    gocache.New(5*time.Minute, 10*time.Minute),
	}
}

func (ec *eventCache) Get(ctx context.Context, id string) (*repository.Event, error) {
	if v, ok := ec.c.Get(id); ok {
		return v.(*repository.Event), nil
	}
	v, err, _ := ec.sf.Do(id, func() (any, error) {
		event, err := ec.repo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		ec.c.Set(id, event, gocache.DefaultExpiration)
		return event, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*repository.Event), nil
}
