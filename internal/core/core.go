// Package core implements the notification aggregator and the
// acknowledgement service over a domain.NotificationRepository.
//
// Core holds no mutable state; every call reads or upserts through the
// repository, so it is safe for concurrent use.
package core

import (
	"fmt"
	"strings"
	"time"

	"github.com/petnames/reminders/internal/domain"
	"github.com/petnames/reminders/internal/logging"
)

// Core serves grouped notifications and acknowledgements.
type Core struct {
	repo  domain.NotificationRepository
	clock func() time.Time
	loc   *time.Location
	log   logging.Logger
}

// Option configures a Core.
type Option func(*Core)

// WithClock overrides the wall clock.
func WithClock(clock func() time.Time) Option {
	return func(c *Core) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// WithLocation sets the location whose calendar day defines "today".
func WithLocation(loc *time.Location) Option {
	return func(c *Core) {
		if loc != nil {
			c.loc = loc
		}
	}
}

// WithLogger sets the logger used for mutations.
func WithLogger(l logging.Logger) Option {
	return func(c *Core) {
		if l != nil {
			c.log = l
		}
	}
}

// New creates a Core over repo.
func New(repo domain.NotificationRepository, opts ...Option) *Core {
	if repo == nil {
		panic("core.New: repository dependency cannot be nil")
	}
	c := &Core{
		repo:  repo,
		clock: time.Now,
		loc:   time.Local,
		log:   logging.GetGlobal(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Now returns the current instant in the configured location.
func (c *Core) Now() time.Time {
	return c.clock().In(c.loc)
}

// Location returns the configured location.
func (c *Core) Location() *time.Location {
	return c.loc
}

func requireID(op, what, id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("core: %s: %w: %s cannot be empty", op, domain.ErrInvalidArgument, what)
	}
	return nil
}
