// Package store owns the client-side copies of remote state. Each store is
// the only writer of its fields.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/saadjs/fittrack-cli/internal/api"
	"github.com/saadjs/fittrack-cli/internal/model"
)

// ActivityAPI is the subset of api.Client the activity store calls.
type ActivityAPI interface {
	GetActivities(ctx context.Context) (json.RawMessage, error)
	GetActivityDetail(ctx context.Context, id model.ActivityID) (json.RawMessage, error)
	AddActivity(ctx context.Context, in model.ActivityInput) (json.RawMessage, error)
	DeleteActivity(ctx context.Context, id model.ActivityID) (json.RawMessage, error)
}

type Authenticator interface {
	IsAuthenticated() bool
}

const (
	msgFetchActivities = "Failed to fetch activities"
	msgFetchDetail     = "Failed to fetch activity detail"
	msgCreateActivity  = "Failed to add activity"
	msgDeleteActivity  = "Failed to delete activity"
	msgSessionExpired  = "Session expired"
)

// Activities runs the list, detail, create and delete operations. The four
// busy flags are independent, so operations of different kinds may overlap.
// Overlapping calls of the same kind are not deduplicated; the last to
// resolve wins.
type Activities struct {
	api  ActivityAPI
	auth Authenticator
	log  *zap.Logger

	mu        sync.Mutex
	state     ActivitiesState
	listeners map[int]func(ActivitiesState)
	nextID    int
}

func NewActivities(client ActivityAPI, auth Authenticator, log *zap.Logger) *Activities {
	if log == nil {
		log = zap.NewNop()
	}
	return &Activities{
		api:       client,
		auth:      auth,
		log:       log,
		state:     ActivitiesState{Activities: []model.Activity{}},
		listeners: map[int]func(ActivitiesState){},
	}
}

// State returns a copy of the current state.
func (s *Activities) State() ActivitiesState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// Subscribe registers fn to receive every new state. The returned func
// removes it.
func (s *Activities) Subscribe(fn func(ActivitiesState)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

func (s *Activities) dispatch(e Event) {
	s.mu.Lock()
	s.state = ReduceActivities(s.state, e)
	snapshot := s.state
	fns := make([]func(ActivitiesState), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(snapshot.clone())
	}
}

func (s *Activities) authenticated() bool {
	return s.auth != nil && s.auth.IsAuthenticated()
}

// FetchActivities reloads the collection. It reports false, and issues no
// request, when there is no authenticated session.
func (s *Activities) FetchActivities(ctx context.Context) bool {
	if !s.authenticated() {
		return false
	}
	s.dispatch(ListPending{})
	raw, err := s.api.GetActivities(ctx)
	if err != nil {
		s.fail(ListRejected{Message: errorMessage(err, msgFetchActivities)}, "fetch activities", err)
		return true
	}
	s.dispatch(ListFulfilled{Payload: raw})
	return true
}

// FetchActivityDetail loads one activity into Current. Like FetchActivities
// it needs a session, and also a non-empty id.
func (s *Activities) FetchActivityDetail(ctx context.Context, id model.ActivityID) bool {
	if id == "" || !s.authenticated() {
		return false
	}
	s.dispatch(DetailPending{})
	raw, err := s.api.GetActivityDetail(ctx, id)
	if err != nil {
		s.fail(DetailRejected{Message: errorMessage(err, msgFetchDetail)}, "fetch activity detail", err, zap.String("id", id.String()))
		return true
	}
	s.dispatch(DetailFulfilled{Payload: raw})
	return true
}

// CreateActivity validates in and submits it. The only error it returns is a
// *ValidationError, in which case nothing was sent. Request failures are
// recorded in State().Err. The created activity is returned when the server
// answered with a usable record.
func (s *Activities) CreateActivity(ctx context.Context, in model.ActivityInput) (*model.Activity, error) {
	if err := ValidateActivityInput(in); err != nil {
		return nil, err
	}
	if in.AdditionalMetrics == nil {
		in.AdditionalMetrics = map[string]any{}
	}
	s.dispatch(CreatePending{})
	raw, err := s.api.AddActivity(ctx, in)
	if err != nil {
		s.fail(CreateRejected{Message: errorMessage(err, msgCreateActivity)}, "create activity", err)
		return nil, nil
	}
	s.dispatch(CreateFulfilled{Payload: raw})
	created, ok := coerceRecord(raw)
	if !ok || !created.HasID() {
		s.log.Warn("create activity returned no usable record", zap.ByteString("body", raw))
		return nil, nil
	}
	return &created, nil
}

// RemoveActivity deletes id remotely and then locally.
func (s *Activities) RemoveActivity(ctx context.Context, id model.ActivityID) bool {
	if id == "" {
		return false
	}
	s.dispatch(DeletePending{})
	if _, err := s.api.DeleteActivity(ctx, id); err != nil {
		s.fail(DeleteRejected{Message: errorMessage(err, msgDeleteActivity)}, "delete activity", err, zap.String("id", id.String()))
		return true
	}
	s.dispatch(DeleteFulfilled{ID: id})
	return true
}

func (s *Activities) ClearError() {
	s.dispatch(ClearError{})
}

func (s *Activities) ClearCurrentActivity() {
	s.dispatch(ClearCurrent{})
}

func (s *Activities) fail(e Event, op string, err error, fields ...zap.Field) {
	s.log.Info(op+" failed", append(fields, zap.Error(err))...)
	s.dispatch(e)
}

func errorMessage(err error, fallback string) string {
	var httpErr *api.HTTPError
	var transportErr *api.TransportError
	switch {
	case errors.Is(err, api.ErrSessionExpired):
		return msgSessionExpired
	case errors.As(err, &httpErr):
		return httpErr.Error()
	case errors.As(err, &transportErr):
		return fallback
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return fallback
}
