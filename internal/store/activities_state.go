package store

import (
	"bytes"
	"encoding/json"

	"github.com/saadjs/fittrack-cli/internal/model"
)

// ActivitiesState is an immutable snapshot. ReduceActivities never modifies
// the value it is given.
type ActivitiesState struct {
	Activities       []model.Activity
	Current          *model.Activity
	Loading          bool
	FetchingDetail   bool
	AddingActivity   bool
	DeletingActivity bool
	// Err is the last operation failure; "" means none.
	Err string
}

func (s ActivitiesState) clone() ActivitiesState {
	out := s
	out.Activities = append([]model.Activity(nil), s.Activities...)
	if s.Current != nil {
		cur := *s.Current
		out.Current = &cur
	}
	return out
}

// Event is a transition input for ReduceActivities.
type Event interface {
	activitiesEvent()
}

type (
	ListPending     struct{}
	ListFulfilled   struct{ Payload json.RawMessage }
	ListRejected    struct{ Message string }
	DetailPending   struct{}
	DetailFulfilled struct{ Payload json.RawMessage }
	DetailRejected  struct{ Message string }
	CreatePending   struct{}
	CreateFulfilled struct{ Payload json.RawMessage }
	CreateRejected  struct{ Message string }
	DeletePending   struct{}
	DeleteFulfilled struct{ ID model.ActivityID }
	DeleteRejected  struct{ Message string }
	ClearError      struct{}
	ClearCurrent    struct{}
)

func (ListPending) activitiesEvent()     {}
func (ListFulfilled) activitiesEvent()   {}
func (ListRejected) activitiesEvent()    {}
func (DetailPending) activitiesEvent()   {}
func (DetailFulfilled) activitiesEvent() {}
func (DetailRejected) activitiesEvent()  {}
func (CreatePending) activitiesEvent()   {}
func (CreateFulfilled) activitiesEvent() {}
func (CreateRejected) activitiesEvent()  {}
func (DeletePending) activitiesEvent()   {}
func (DeleteFulfilled) activitiesEvent() {}
func (DeleteRejected) activitiesEvent()  {}
func (ClearError) activitiesEvent()      {}
func (ClearCurrent) activitiesEvent()    {}

// ReduceActivities is the only place activity state changes.
func ReduceActivities(s ActivitiesState, e Event) ActivitiesState {
	next := s.clone()
	switch ev := e.(type) {
	case ListPending:
		next.Loading = true
		next.Err = ""
	case ListFulfilled:
		next.Loading = false
		next.Activities = coerceList(ev.Payload)
	case ListRejected:
		next.Loading = false
		next.Err = ev.Message

	case DetailPending:
		next.FetchingDetail = true
		next.Err = ""
	case DetailFulfilled:
		next.FetchingDetail = false
		next.Current = nil
		if a, ok := coerceRecord(ev.Payload); ok {
			next.Current = &a
		}
	case DetailRejected:
		next.FetchingDetail = false
		next.Err = ev.Message

	case CreatePending:
		next.AddingActivity = true
		next.Err = ""
	case CreateFulfilled:
		next.AddingActivity = false
		if a, ok := coerceRecord(ev.Payload); ok && a.HasID() {
			next.Activities = append([]model.Activity{a}, without(next.Activities, a.ID)...)
		}
	case CreateRejected:
		next.AddingActivity = false
		next.Err = ev.Message

	case DeletePending:
		next.DeletingActivity = true
		next.Err = ""
	case DeleteFulfilled:
		next.DeletingActivity = false
		next.Activities = without(next.Activities, ev.ID)
		if next.Current != nil && next.Current.ID == ev.ID {
			next.Current = nil
		}
	case DeleteRejected:
		next.DeletingActivity = false
		next.Err = ev.Message

	case ClearError:
		next.Err = ""
	case ClearCurrent:
		next.Current = nil
	}
	return next
}

func without(activities []model.Activity, id model.ActivityID) []model.Activity {
	kept := make([]model.Activity, 0, len(activities))
	for _, a := range activities {
		if a.ID != id {
			kept = append(kept, a)
		}
	}
	return kept
}

// coerceList accepts a bare array or {"data": array}. Any other shape is an
// empty list; elements that are not activity objects are skipped.
func coerceList(raw json.RawMessage) []model.Activity {
	raw = unwrapEnvelope(raw)
	out := []model.Activity{}
	if len(raw) == 0 || raw[0] != '[' {
		return out
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return out
	}
	for _, item := range items {
		item = bytes.TrimSpace(item)
		if len(item) == 0 || item[0] != '{' {
			continue
		}
		var a model.Activity
		if err := json.Unmarshal(item, &a); err != nil {
			continue
		}
		out = append(out, a)
	}
	return out
}

// coerceRecord accepts a bare activity or {"data": activity}.
func coerceRecord(raw json.RawMessage) (model.Activity, bool) {
	raw = unwrapEnvelope(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return model.Activity{}, false
	}
	var a model.Activity
	if err := json.Unmarshal(raw, &a); err != nil {
		return model.Activity{}, false
	}
	return a, true
}

func unwrapEnvelope(raw json.RawMessage) json.RawMessage {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return raw
	}
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return raw
	}
	data := bytes.TrimSpace(env.Data)
	if len(data) == 0 || string(data) == "null" {
		return raw
	}
	return data
}
