// internal/auth/service.go

// Package auth authenticates inbound calls. A call is identified by its
// phone number: first-time callers get a default profile, and every call is
// attached to a session through the lifecycle manager's resume protocol.
package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/SUBHA22-CODER/Vani-AgriGateway/internal/profile"
	"github.com/SUBHA22-CODER/Vani-AgriGateway/internal/session"
	"github.com/SUBHA22-CODER/Vani-AgriGateway/internal/types"
)

// defaultProfileLanguage is assumed for callers who have not completed
// registration yet.
const defaultProfileLanguage = "hindi"

// LoginResult is the outcome of authenticating an inbound call.
type LoginResult struct {
	Profile      *types.FarmerProfile `json:"profile"`
	Session      *types.CallSession   `json:"session"`
	IsNewUser    bool                 `json:"is_new_user"`
	IsNewSession bool                 `json:"is_new_session"`
	Token        string               `json:"token"`
}

// Service composes the profile manager, the session lifecycle manager, and
// the token service.
type Service struct {
	profiles *profile.Manager
	sessions *session.Manager
	tokens   *TokenService
}

// NewService creates a Service.
func NewService(profiles *profile.Manager, sessions *session.Manager, tokens *TokenService) *Service {
	return &Service{profiles: profiles, sessions: sessions, tokens: tokens}
}

// LoginFarmer authenticates an inbound call: it looks up or creates the
// farmer's profile, attaches the call to a session (resuming where the
// lifecycle rules allow), and mints a bearer token for follow-up requests.
func (s *Service) LoginFarmer(ctx context.Context, phoneNumber, callID string) (*LoginResult, error) {
	prof, isNewUser, err := s.profiles.GetOrCreate(ctx, phoneNumber, types.ProfileData{
		PrimaryCrops:      []string{},
		PreferredLanguage: defaultProfileLanguage,
	})
	if err != nil {
		return nil, fmt.Errorf("get or create profile: %w", err)
	}

	sess, isNewSession, err := s.sessions.StartOrResume(ctx, phoneNumber, callID, prof)
	if err != nil {
		return nil, fmt.Errorf("start or resume session: %w", err)
	}

	token, err := s.tokens.Sign(phoneNumber, sess.SessionID)
	if err != nil {
		return nil, err
	}

	return &LoginResult{
		Profile:      prof,
		Session:      sess,
		IsNewUser:    isNewUser,
		IsNewSession: isNewSession,
		Token:        token,
	}, nil
}

// RegisterFarmer creates a profile with the supplied data.
func (s *Service) RegisterFarmer(ctx context.Context, phoneNumber string, data types.ProfileData) (*types.FarmerProfile, error) {
	return s.profiles.Create(ctx, phoneNumber, data)
}

// CompleteRegistration fills in a default profile created at first contact.
func (s *Service) CompleteRegistration(ctx context.Context, phoneNumber string, data types.ProfileData) (*types.FarmerProfile, error) {
	if err := s.profiles.Update(ctx, phoneNumber, data); err != nil {
		return nil, err
	}
	return s.profiles.Get(ctx, phoneNumber)
}

// Logout ends the session for a deliberate hang-up.
func (s *Service) Logout(ctx context.Context, sessionID types.SessionID) error {
	return s.sessions.EndSession(ctx, sessionID)
}

// IsAuthenticated reports whether the phone number has a current active
// session.
func (s *Service) IsAuthenticated(ctx context.Context, phoneNumber string) (bool, error) {
	_, err := s.sessions.ActiveByPhone(ctx, phoneNumber)
	if errors.Is(err, types.ErrSessionNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// VerifyToken validates a bearer token.
func (s *Service) VerifyToken(token string) (*Claims, error) {
	return s.tokens.Verify(token)
}
