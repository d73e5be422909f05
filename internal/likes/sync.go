// Package likes keeps a book's or comment's like flag and count consistent
// across the views that show it. A toggle is applied to the view first, then
// confirmed or rolled back by the marketplace API, and confirmed states are
// persisted in the session's Cache.
package likes

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"sync"

	"go.uber.org/zap"

	"bookbazaar/internal/domain"
	"bookbazaar/internal/events"
	"bookbazaar/internal/metrics"
)

type Kind string

const (
	KindBook    Kind = "book"
	KindComment Kind = "comment"
)

func (k Kind) cachePrefix() string {
	if k == KindComment {
		return "liked_comments"
	}
	return "liked_books"
}

func (k Kind) topic(liked bool) string {
	switch {
	case k == KindComment && liked:
		return events.CommentLiked
	case k == KindComment:
		return events.CommentUnliked
	case liked:
		return events.BookLiked
	default:
		return events.BookUnliked
	}
}

var (
	// ErrNotAuthenticated deflects a toggle before any state changes. It is a
	// notice for the user, not a failure.
	ErrNotAuthenticated = errors.New("likes: sign in to like")
	// ErrToggleInFlight means the click was ignored because a toggle for the
	// same entity has not resolved yet.
	ErrToggleInFlight = errors.New("likes: toggle already in flight")
	ErrNotInitialized = errors.New("likes: tracker not initialized")
)

// ToggleError reports a remote failure. The tracker has already been
// restored to Restored when it is returned.
type ToggleError struct {
	Kind     Kind
	ID       int
	Restored domain.LikeState
	Err      error
}

func (e *ToggleError) Error() string {
	return fmt.Sprintf("likes: toggle %s %d failed: %v", e.Kind, e.ID, e.Err)
}

func (e *ToggleError) Unwrap() error { return e.Err }

// Toggler flips the server-side like and returns the resulting flag. The
// API does not report a count.
type Toggler interface {
	Toggle(ctx context.Context, kind Kind, id int) (bool, error)
}

type TogglerFunc func(ctx context.Context, kind Kind, id int) (bool, error)

func (f TogglerFunc) Toggle(ctx context.Context, kind Kind, id int) (bool, error) {
	return f(ctx, kind, id)
}

// Syncer is shared by every view. It owns the in-flight set, so at most one
// toggle per (namespace, kind, id) runs at a time; different entities toggle
// independently.
type Syncer struct {
	api     Toggler
	pub     events.Publisher
	metrics *metrics.Recorder
	logger  *zap.Logger

	mu      sync.Mutex
	pending map[string]struct{}
}

func NewSyncer(api Toggler, pub events.Publisher, rec *metrics.Recorder, logger *zap.Logger) *Syncer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Syncer{
		api:     api,
		pub:     pub,
		metrics: rec,
		logger:  logger.With(zap.String("component", "likes")),
		pending: make(map[string]struct{}),
	}
}

func pendingKey(ns string, kind Kind, id int) string {
	return ns + "|" + string(kind) + "|" + strconv.Itoa(id)
}

func (s *Syncer) begin(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.pending[key]; busy {
		return false
	}
	s.pending[key] = struct{}{}
	return true
}

func (s *Syncer) end(key string) {
	s.mu.Lock()
	delete(s.pending, key)
	s.mu.Unlock()
}

// Track returns the like state holder for one mounted view.
func (s *Syncer) Track(cache Cache, kind Kind) *Tracker {
	return &Tracker{s: s, cache: cache, kind: kind}
}

// Tracker is the in-memory like state of one view (card, detail page,
// carousel item). It is safe for concurrent use.
type Tracker struct {
	s     *Syncer
	cache Cache
	kind  Kind

	mu          sync.Mutex
	initialized bool
	id          int
	state       domain.LikeState
	listeners   []func(domain.LikeState)
}

// OnChange registers fn to receive every displayed state, including the
// optimistic one applied before the API answers.
func (t *Tracker) OnChange(fn func(domain.LikeState)) {
	t.mu.Lock()
	t.listeners = append(t.listeners, fn)
	t.mu.Unlock()
}

// Initialize seeds the tracker for id. A cached entry wins over the values
// embedded in the API payload. Calling it again for the same id keeps the
// current state.
func (t *Tracker) Initialize(ctx context.Context, id int, serverLiked bool, serverCount int) domain.LikeState {
	t.mu.Lock()
	if t.initialized && t.id == id {
		st := t.state
		t.mu.Unlock()
		return st
	}
	t.mu.Unlock()

	st := domain.LikeState{Liked: serverLiked, Count: clampCount(serverCount)}
	if cached, ok := t.cache.Get(ctx, id); ok {
		st = domain.LikeState{Liked: cached.Liked, Count: clampCount(cached.Count)}
	}

	t.mu.Lock()
	t.initialized = true
	t.id = id
	t.mu.Unlock()
	t.apply(id, st)
	return st
}

func (t *Tracker) State() domain.LikeState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

func (t *Tracker) ID() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.id
}

// apply sets the displayed state if the tracker still shows id.
func (t *Tracker) apply(id int, st domain.LikeState) {
	t.mu.Lock()
	if t.id != id {
		t.mu.Unlock()
		return
	}
	t.state = st
	listeners := slices.Clone(t.listeners)
	t.mu.Unlock()
	for _, fn := range listeners {
		fn(st)
	}
}

// Toggle flips the like. The optimistic state is shown before the API call;
// on failure the exact previous state is restored and a *ToggleError is
// returned. On success the server's flag is adopted, the locally computed
// count is kept, the cache is written (liked) or cleared (unliked), and a
// like event is published.
func (t *Tracker) Toggle(ctx context.Context, authenticated bool) (domain.LikeState, error) {
	t.mu.Lock()
	if !t.initialized {
		t.mu.Unlock()
		return domain.LikeState{}, ErrNotInitialized
	}
	id, prev := t.id, t.state
	t.mu.Unlock()

	s := t.s
	if !authenticated {
		s.metrics.LikeToggle(string(t.kind), "deflected")
		return prev, ErrNotAuthenticated
	}

	key := pendingKey(t.cache.Namespace(), t.kind, id)
	if !s.begin(key) {
		return prev, ErrToggleInFlight
	}
	defer s.end(key)

	next := domain.LikeState{Liked: !prev.Liked}
	if next.Liked {
		next.Count = prev.Count + 1
	} else {
		next.Count = clampCount(prev.Count - 1)
	}
	t.apply(id, next)

	liked, err := s.api.Toggle(ctx, t.kind, id)
	if err != nil {
		t.apply(id, prev)
		s.metrics.LikeToggle(string(t.kind), "rolled_back")
		s.logger.Warn("like toggle rolled back",
			zap.String("kind", string(t.kind)), zap.Int("id", id), zap.Error(err))
		return prev, &ToggleError{Kind: t.kind, ID: id, Restored: prev, Err: err}
	}

	final := domain.LikeState{Liked: liked, Count: next.Count}
	t.apply(id, final)

	var cerr error
	if final.Liked {
		cerr = t.cache.Set(ctx, id, final)
	} else {
		cerr = t.cache.Delete(ctx, id)
	}
	if cerr != nil {
		s.logger.Warn("like cache write failed",
			zap.String("kind", string(t.kind)), zap.Int("id", id), zap.Error(cerr))
	}

	outcome := "unliked"
	if final.Liked {
		outcome = "liked"
	}
	s.metrics.LikeToggle(string(t.kind), outcome)
	if s.pub != nil {
		s.pub.Publish(t.kind.topic(final.Liked), events.LikeChanged{
			Namespace: t.cache.Namespace(),
			Kind:      string(t.kind),
			ID:        id,
			Liked:     final.Liked,
			Count:     final.Count,
		})
	}
	return final, nil
}
