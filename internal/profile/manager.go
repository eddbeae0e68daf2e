// internal/profile/manager.go

// Package profile manages farmer profiles. The session core only holds
// profile snapshots; everything here is a collaborator at the interface
// boundary.
package profile

import (
	"context"
	"errors"

	"github.com/SUBHA22-CODER/Vani-AgriGateway/internal/types"
)

// Compile-time interface compliance check.
var _ types.ProfileStore = (*MemoryStore)(nil)

// Manager wraps a ProfileStore with get-or-create semantics for first-time
// callers.
type Manager struct {
	store types.ProfileStore
}

// NewManager creates a Manager over the given store.
func NewManager(store types.ProfileStore) *Manager {
	return &Manager{store: store}
}

// Create registers a new profile; the phone number must not already have one.
func (m *Manager) Create(ctx context.Context, phoneNumber string, data types.ProfileData) (*types.FarmerProfile, error) {
	return m.store.Create(ctx, phoneNumber, data)
}

// Get returns the profile or ErrProfileNotFound.
func (m *Manager) Get(ctx context.Context, phoneNumber string) (*types.FarmerProfile, error) {
	return m.store.Get(ctx, phoneNumber)
}

// GetOrCreate returns the existing profile or creates one from defaultData.
func (m *Manager) GetOrCreate(ctx context.Context, phoneNumber string, defaultData types.ProfileData) (*types.FarmerProfile, bool, error) {
	p, err := m.store.Get(ctx, phoneNumber)
	if err == nil {
		return p, false, nil
	}
	created, err := m.store.Create(ctx, phoneNumber, defaultData)
	if errors.Is(err, types.ErrProfileExists) {
		// Lost a create race; the winner's profile is the one to use.
		p, err = m.store.Get(ctx, phoneNumber)
		return p, false, err
	}
	if err != nil {
		return nil, false, err
	}
	return created, true, nil
}

// Update applies partial profile updates.
func (m *Manager) Update(ctx context.Context, phoneNumber string, updates types.ProfileData) error {
	return m.store.Update(ctx, phoneNumber, updates)
}

// RecordInteraction appends an interaction to the profile history.
func (m *Manager) RecordInteraction(ctx context.Context, phoneNumber string, rec types.InteractionRecord) error {
	return m.store.RecordInteraction(ctx, phoneNumber, rec)
}

// Delete removes the profile.
func (m *Manager) Delete(ctx context.Context, phoneNumber string) error {
	return m.store.Delete(ctx, phoneNumber)
}
