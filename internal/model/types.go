package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

type ActivityType string

const (
	ActivityRunning        ActivityType = "RUNNING"
	ActivityWalking        ActivityType = "WALKING"
	ActivityCycling        ActivityType = "CYCLING"
	ActivitySwimming       ActivityType = "SWIMMING"
	ActivityWeightlifting  ActivityType = "WEIGHTLIFTING"
	ActivityWeightTraining ActivityType = "WEIGHT_TRAINING"
	ActivityYoga           ActivityType = "YOGA"
)

// ActivityTypes lists the categories offered when logging a workout.
var ActivityTypes = []ActivityType{
	ActivityRunning,
	ActivityWalking,
	ActivityCycling,
	ActivitySwimming,
	ActivityWeightlifting,
	ActivityYoga,
}

func (t ActivityType) Known() bool {
	switch t {
	case ActivityRunning, ActivityWalking, ActivityCycling, ActivitySwimming,
		ActivityWeightlifting, ActivityWeightTraining, ActivityYoga:
		return true
	default:
		return false
	}
}

// ParseActivityType normalizes user input such as "weight-training" to the wire form.
func ParseActivityType(s string) ActivityType {
	s = strings.ToUpper(strings.TrimSpace(s))
	s = strings.NewReplacer("-", "_", " ", "_").Replace(s)
	return ActivityType(s)
}

// ActivityID is server assigned and arrives either as a JSON string or a number.
type ActivityID string

func (id *ActivityID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*id = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return fmt.Errorf("decode activity id: %w", err)
		}
		*id = ActivityID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("decode activity id: %w", err)
	}
	*id = ActivityID(n.String())
	return nil
}

func (id ActivityID) String() string {
	return string(id)
}

// Quantity is a minutes or calories figure. The backend sends it as a
// number, a float or a numeric string; anything else decodes as zero.
type Quantity float64

func (q *Quantity) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	*q = 0
	if len(b) == 0 || string(b) == "null" {
		return nil
	}
	raw := string(b)
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return nil
		}
		raw = strings.TrimSpace(s)
	}
	if v, err := strconv.ParseFloat(raw, 64); err == nil && !math.IsNaN(v) && !math.IsInf(v, 0) {
		*q = Quantity(v)
	}
	return nil
}

// String drops the fraction for whole values: 30 prints as "30", 30.5 as "30.5".
func (q Quantity) String() string {
	return strconv.FormatFloat(float64(q), 'f', -1, 64)
}

var localLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Timestamp tolerates the formats the backend has been seen to emit. Values
// it cannot parse decode as the zero time instead of failing the record.
type Timestamp struct {
	time.Time
}

func (ts *Timestamp) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	ts.Time = time.Time{}
	if len(b) == 0 || string(b) == "null" {
		return nil
	}
	if b[0] != '"' {
		var ms json.Number
		if err := json.Unmarshal(b, &ms); err == nil {
			if v, err := ms.Int64(); err == nil && v > 0 {
				ts.Time = time.UnixMilli(v).UTC()
			}
		}
		return nil
	}
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil
	}
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		ts.Time = t
		return nil
	}
	// Zone-less values are wall clock times of the user.
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, raw, time.Local); err == nil {
			ts.Time = t
			return nil
		}
	}
	return nil
}

func (ts Timestamp) MarshalJSON() ([]byte, error) {
	if ts.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(ts.Time.Format(time.RFC3339Nano))
}

type Activity struct {
	ID                ActivityID     `json:"id"`
	Type              ActivityType   `json:"type"`
	Duration          Quantity       `json:"duration"`
	CaloriesBurned    Quantity       `json:"caloriesBurned"`
	CreatedAt         Timestamp      `json:"createdAt,omitzero"`
	AdditionalMetrics map[string]any `json:"additionalMetrics,omitempty"`
	Recommendation    string         `json:"recommendation,omitempty"`
	Improvements      []string       `json:"improvements,omitempty"`
	Suggestions       []string       `json:"suggestions,omitempty"`
	Safety            []string       `json:"safety,omitempty"`
}

// UnmarshalJSON also accepts the recommendation endpoint's activityId and
// activityType names when the canonical fields are missing.
func (a *Activity) UnmarshalJSON(b []byte) error {
	type plain Activity
	var aux struct {
		plain
		ActivityID   ActivityID   `json:"activityId"`
		ActivityType ActivityType `json:"activityType"`
	}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	*a = Activity(aux.plain)
	if a.ID == "" {
		a.ID = aux.ActivityID
	}
	if a.Type == "" {
		a.Type = aux.ActivityType
	}
	return nil
}

func (a Activity) HasID() bool {
	return strings.TrimSpace(string(a.ID)) != ""
}

type ActivityInput struct {
	Type              ActivityType   `json:"type" validate:"required,activitytype"`
	Duration          int            `json:"duration" validate:"required,min=1,max=1440"`
	CaloriesBurned    int            `json:"caloriesBurned" validate:"required,min=1,max=5000"`
	AdditionalMetrics map[string]any `json:"additionalMetrics"`
}

type ActivityPatch struct {
	Type              *ActivityType  `json:"type,omitempty" validate:"omitempty,activitytype"`
	Duration          *int           `json:"duration,omitempty" validate:"omitempty,min=1,max=1440"`
	CaloriesBurned    *int           `json:"caloriesBurned,omitempty" validate:"omitempty,min=1,max=5000"`
	AdditionalMetrics map[string]any `json:"additionalMetrics,omitempty"`
}

func (p ActivityPatch) Empty() bool {
	return p.Type == nil && p.Duration == nil && p.CaloriesBurned == nil && len(p.AdditionalMetrics) == 0
}

// Claims is the identity payload handed over by the identity provider.
type Claims map[string]any

func (c Claims) Subject() string {
	return c.str("sub")
}

func (c Claims) DisplayName() string {
	for _, key := range []string{"name", "preferred_username", "email"} {
		if v := c.str(key); v != "" {
			return v
		}
	}
	return "User"
}

func (c Claims) str(key string) string {
	if c == nil {
		return ""
	}
	v, _ := c[key].(string)
	return strings.TrimSpace(v)
}

type Session struct {
	Token  string
	User   Claims
	UserID string
}
