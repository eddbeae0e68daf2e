// internal/types/models.go
package types

import (
	"encoding/json"
	"time"
)

// SessionStatus is the lifecycle state of a call session. Active is the only
// non-terminal state; the resume protocol is the single controlled exception
// that moves a Dropped session back to Active.
type SessionStatus string

const (
	StatusActive      SessionStatus = "active"
	StatusCompleted   SessionStatus = "completed"
	StatusDropped     SessionStatus = "dropped"
	StatusTransferred SessionStatus = "transferred"
)

// Terminal reports whether the status is one of the end states.
func (s SessionStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusDropped || s == StatusTransferred
}

// Channel is the communication channel an interaction arrived on.
type Channel string

const (
	ChannelVoice Channel = "voice"
	ChannelSMS   Channel = "sms"
	ChannelUSSD  Channel = "ussd"
)

// SessionContext carries the conversational state accumulated over a call.
// Weather and market payloads are opaque blobs supplied by external systems.
type SessionContext struct {
	CurrentTopic    string          `json:"current_topic,omitempty"`
	PreviousQueries []string        `json:"previous_queries"`
	DetectedCrops   []string        `json:"detected_crops,omitempty"`
	WeatherData     json.RawMessage `json:"weather_data,omitempty"`
	MarketData      json.RawMessage `json:"market_data,omitempty"`
}

// InteractionRecord is one question/answer exchange within a session.
type InteractionRecord struct {
	SessionID    SessionID `json:"session_id"`
	Timestamp    time.Time `json:"timestamp"`
	Channel      Channel   `json:"channel"`
	Query        string    `json:"query"`
	Response     string    `json:"response"`
	Satisfaction int       `json:"satisfaction,omitempty"`
	Duration     int       `json:"duration_seconds,omitempty"`
}

// CallSession is the record for one bounded interaction window between a
// farmer and the gateway. The store owns the record once created; SessionID,
// PhoneNumber and StartTime are immutable after creation. EndTime is set
// exactly when the session leaves Active.
type CallSession struct {
	SessionID     SessionID           `json:"session_id"`
	CallID        string              `json:"call_id"`
	PhoneNumber   string              `json:"phone_number"`
	Status        SessionStatus       `json:"status"`
	StartTime     time.Time           `json:"start_time"`
	EndTime       *time.Time          `json:"end_time,omitempty"`
	LastActivity  time.Time           `json:"last_activity"`
	Context       SessionContext      `json:"context"`
	Interactions  []InteractionRecord `json:"interactions"`
	FarmerProfile *FarmerProfile      `json:"farmer_profile,omitempty"`
}

// Clone returns a copy of the session deep enough that callers cannot mutate
// store-owned slices through it.
func (s *CallSession) Clone() *CallSession {
	c := *s
	if s.EndTime != nil {
		t := *s.EndTime
		c.EndTime = &t
	}
	c.Context.PreviousQueries = append([]string(nil), s.Context.PreviousQueries...)
	c.Context.DetectedCrops = append([]string(nil), s.Context.DetectedCrops...)
	c.Interactions = append([]InteractionRecord(nil), s.Interactions...)
	return &c
}

// ContextUpdate is a partial SessionContext. Nil fields are left untouched;
// non-nil fields replace the stored value wholesale. PreviousQueries is
// append-only by convention: callers pass the full extended slice.
type ContextUpdate struct {
	CurrentTopic    *string         `json:"current_topic,omitempty"`
	PreviousQueries []string        `json:"previous_queries,omitempty"`
	DetectedCrops   []string        `json:"detected_crops,omitempty"`
	WeatherData     json.RawMessage `json:"weather_data,omitempty"`
	MarketData      json.RawMessage `json:"market_data,omitempty"`
}

// Merge applies the update's set fields, leaving the rest untouched.
func (c *SessionContext) Merge(u ContextUpdate) {
	if u.CurrentTopic != nil {
		c.CurrentTopic = *u.CurrentTopic
	}
	if u.PreviousQueries != nil {
		c.PreviousQueries = u.PreviousQueries
	}
	if u.DetectedCrops != nil {
		c.DetectedCrops = u.DetectedCrops
	}
	if u.WeatherData != nil {
		c.WeatherData = u.WeatherData
	}
	if u.MarketData != nil {
		c.MarketData = u.MarketData
	}
}

// SessionUpdate is a partial CallSession merged into the stored record by
// SessionStore.Update. Only fields a session may legally change after
// creation are representable.
type SessionUpdate struct {
	CallID             *string
	Status             *SessionStatus
	EndTime            *time.Time
	ClearEndTime       bool
	Context            *ContextUpdate
	AppendInteractions []InteractionRecord
	LastActivity       *time.Time
}

// Apply merges the update into the session. LastActivity never moves
// backward: an out-of-order write keeps the later timestamp.
func (s *CallSession) Apply(u SessionUpdate) {
	if u.CallID != nil {
		s.CallID = *u.CallID
	}
	if u.Status != nil {
		s.Status = *u.Status
	}
	if u.EndTime != nil {
		t := *u.EndTime
		s.EndTime = &t
	}
	if u.ClearEndTime {
		s.EndTime = nil
	}
	if u.Context != nil {
		s.Context.Merge(*u.Context)
	}
	s.Interactions = append(s.Interactions, u.AppendInteractions...)
	if u.LastActivity != nil && u.LastActivity.After(s.LastActivity) {
		s.LastActivity = *u.LastActivity
	}
}

// Location is where a farmer's holding is.
type Location struct {
	State     string  `json:"state"`
	District  string  `json:"district"`
	Block     string  `json:"block,omitempty"`
	Village   string  `json:"village,omitempty"`
	Latitude  float64 `json:"latitude,omitempty"`
	Longitude float64 `json:"longitude,omitempty"`
}

// Preferences are per-farmer delivery settings.
type Preferences struct {
	CommunicationChannel Channel `json:"communication_channel"`
	CallbackTime         string  `json:"callback_time,omitempty"`
	DetailLevel          string  `json:"detail_level"`
	FollowUpEnabled      bool    `json:"follow_up_enabled"`
}

// FarmerProfile is owned by the profile service. Sessions hold a snapshot
// taken at session start; it is never live-synced.
type FarmerProfile struct {
	PhoneNumber        string              `json:"phone_number"`
	Name               string              `json:"name,omitempty"`
	Location           Location            `json:"location"`
	PrimaryCrops       []string            `json:"primary_crops"`
	PreferredLanguage  string              `json:"preferred_language"`
	FarmSize           float64             `json:"farm_size,omitempty"`
	SoilType           string              `json:"soil_type,omitempty"`
	IrrigationType     string              `json:"irrigation_type,omitempty"`
	InteractionHistory []InteractionRecord `json:"interaction_history"`
	Preferences        Preferences         `json:"preferences"`
	CreatedAt          time.Time           `json:"created_at"`
	UpdatedAt          time.Time           `json:"updated_at"`
}

// ProfileData is the caller-supplied portion of a profile.
type ProfileData struct {
	Name              string   `json:"name,omitempty"`
	Location          Location `json:"location"`
	PrimaryCrops      []string `json:"primary_crops"`
	PreferredLanguage string   `json:"preferred_language"`
	FarmSize          float64  `json:"farm_size,omitempty"`
	SoilType          string   `json:"soil_type,omitempty"`
	IrrigationType    string   `json:"irrigation_type,omitempty"`
}
