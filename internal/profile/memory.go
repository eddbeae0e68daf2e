// internal/profile/memory.go
package profile

import (
	"context"
	"sync"
	"time"

	"github.com/SUBHA22-CODER/Vani-AgriGateway/internal/types"
)

// MemoryStore is an in-memory profile store keyed by phone number. Phone
// numbers are treated as opaque lookup keys and stored as given.
type MemoryStore struct {
	mu       sync.RWMutex
	profiles map[string]*types.FarmerProfile

	now func() time.Time
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		profiles: make(map[string]*types.FarmerProfile),
		now:      time.Now,
	}
}

// Create inserts a new profile with default preferences. Returns
// ErrProfileExists if the phone number already has one.
func (s *MemoryStore) Create(_ context.Context, phoneNumber string, data types.ProfileData) (*types.FarmerProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.profiles[phoneNumber]; exists {
		return nil, types.ErrProfileExists
	}

	now := s.now()
	p := &types.FarmerProfile{
		PhoneNumber:        phoneNumber,
		Name:               data.Name,
		Location:           data.Location,
		PrimaryCrops:       append([]string{}, data.PrimaryCrops...),
		PreferredLanguage:  data.PreferredLanguage,
		FarmSize:           data.FarmSize,
		SoilType:           data.SoilType,
		IrrigationType:     data.IrrigationType,
		InteractionHistory: []types.InteractionRecord{},
		Preferences: types.Preferences{
			CommunicationChannel: types.ChannelVoice,
			DetailLevel:          "basic",
			FollowUpEnabled:      true,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.profiles[phoneNumber] = p
	return cloneProfile(p), nil
}

// Get returns the profile or ErrProfileNotFound.
func (s *MemoryStore) Get(_ context.Context, phoneNumber string) (*types.FarmerProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.profiles[phoneNumber]
	if !ok {
		return nil, types.ErrProfileNotFound
	}
	return cloneProfile(p), nil
}

// Update overwrites the supplied non-zero fields and bumps UpdatedAt.
func (s *MemoryStore) Update(_ context.Context, phoneNumber string, updates types.ProfileData) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.profiles[phoneNumber]
	if !ok {
		return types.ErrProfileNotFound
	}

	if updates.Name != "" {
		p.Name = updates.Name
	}
	if updates.Location.State != "" || updates.Location.District != "" {
		p.Location = updates.Location
	}
	if updates.PrimaryCrops != nil {
		p.PrimaryCrops = append([]string{}, updates.PrimaryCrops...)
	}
	if updates.PreferredLanguage != "" {
		p.PreferredLanguage = updates.PreferredLanguage
	}
	if updates.FarmSize != 0 {
		p.FarmSize = updates.FarmSize
	}
	if updates.SoilType != "" {
		p.SoilType = updates.SoilType
	}
	if updates.IrrigationType != "" {
		p.IrrigationType = updates.IrrigationType
	}
	p.UpdatedAt = s.now()
	return nil
}

// RecordInteraction appends the record to the profile's history.
func (s *MemoryStore) RecordInteraction(_ context.Context, phoneNumber string, rec types.InteractionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.profiles[phoneNumber]
	if !ok {
		return types.ErrProfileNotFound
	}
	p.InteractionHistory = append(p.InteractionHistory, rec)
	p.UpdatedAt = s.now()
	return nil
}

// Delete removes the profile; deleting an absent profile is not an error.
func (s *MemoryStore) Delete(_ context.Context, phoneNumber string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.profiles, phoneNumber)
	return nil
}

func cloneProfile(p *types.FarmerProfile) *types.FarmerProfile {
	c := *p
	c.PrimaryCrops = append([]string(nil), p.PrimaryCrops...)
	c.InteractionHistory = append([]types.InteractionRecord(nil), p.InteractionHistory...)
	return &c
}
