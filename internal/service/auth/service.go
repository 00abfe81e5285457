package auth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/carelink/portal-api/internal/email"
	"github.com/carelink/portal-api/internal/model"
	"github.com/carelink/portal-api/internal/repository"
	"github.com/carelink/portal-api/pkg/auth"
	apperrors "github.com/carelink/portal-api/pkg/errors"
	"github.com/carelink/portal-api/pkg/logger"
	"github.com/carelink/portal-api/pkg/security"
	"github.com/carelink/portal-api/pkg/validator"
)

const (
	maxLoginAttempts = 5
	lockoutWindow    = 15 * time.Minute
)

type Service struct {
	profiles repository.ProfileRepository
	tokens   repository.TokenRepository
	jwt      auth.JWTService
	hasher   security.PasswordHasher
	validate validator.Validator
	email    email.Service
	logger   *logger.Logger
	now      func() time.Time

	refreshExpiry time.Duration
}

func NewService(profiles repository.ProfileRepository, tokens repository.TokenRepository, jwt auth.JWTService, hasher security.PasswordHasher, mailer email.Service, refreshExpiry time.Duration, l *logger.Logger) *Service {
	if refreshExpiry == 0 {
		refreshExpiry = 7 * 24 * time.Hour
	}
	return &Service{
		profiles:      profiles,
		tokens:        tokens,
		jwt:           jwt,
		hasher:        hasher,
		validate:      validator.New(),
		email:         mailer,
		logger:        l,
		now:           time.Now,
		refreshExpiry: refreshExpiry,
	}
}

// Register creates a profile with its role sub-record and returns a token
// pair. Duplicate emails are rejected before hashing work is done.
func (s *Service) Register(ctx context.Context, req *model.RegisterRequest) (*model.TokenResponse, error) {
	if err := s.validate.Validate(req); err != nil {
		return nil, apperrors.Validation(err.Error(), err)
	}
	if err := validateRegistration(req); err != nil {
		return nil, err
	}

	if _, err := s.profiles.GetByEmail(ctx, req.Email); err == nil {
		return nil, apperrors.Validation("email already registered", nil)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.Store(err)
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, apperrors.Validation("invalid password", err)
	}

	profile := &model.Profile{
		Email:        req.Email,
		FullName:     req.FullName,
		Phone:        req.Phone,
		Role:         req.Role,
		Status:       model.ProfileStatusActive,
		PasswordHash: hash,
	}

	switch req.Role {
	case model.RoleDoctor:
		d := req.Doctor
		profile.Doctor = &model.DoctorProfile{
			SpecialtyCategory: d.SpecialtyCategory,
			LicenseNumber:     d.LicenseNumber,
			PracticeName:      d.PracticeName,
			Qualification:     d.Qualification,
			ExperienceYears:   d.ExperienceYears,
			ConsultationFee:   d.ConsultationFee,
			Address:           d.Address,
			WorkingHoursStart: d.WorkingHoursStart,
			WorkingHoursEnd:   d.WorkingHoursEnd,
		}
	case model.RolePatient:
		p := req.Patient
		profile.Patient = &model.PatientProfile{
			IDNumber:         p.IDNumber,
			MedicalAidNumber: p.MedicalAidNumber,
			Address:          p.Address,
			DateOfBirth:      p.DateOfBirth,
			EmergencyContact: p.EmergencyContact,
			EmergencyPhone:   p.EmergencyPhone,
			MedicalHistory:   p.MedicalHistory,
		}
	}

	if err := s.profiles.Create(ctx, profile); err != nil {
		return nil, apperrors.Store(err)
	}

	s.logger.Info("profile registered",
		"profile_id", profile.ID.String(),
		"role", string(profile.Role),
	)

	if err := s.email.SendWelcome(ctx, profile.Email, profile.FullName); err != nil {
		s.logger.Error(err, "welcome email failed", "profile_id", profile.ID.String())
	}

	return s.issueTokens(ctx, profile)
}

func validateRegistration(req *model.RegisterRequest) error {
	if !req.Role.Valid() {
		return apperrors.Validation("role must be patient or doctor", nil)
	}
	if req.Role == model.RoleDoctor && req.Doctor == nil {
		return apperrors.Validation("doctor details are required for doctor registration", nil)
	}
	if req.Role == model.RolePatient && req.Patient == nil {
		return apperrors.Validation("patient details are required for patient registration", nil)
	}
	if req.Role == model.RoleDoctor && req.Patient != nil || req.Role == model.RolePatient && req.Doctor != nil {
		return apperrors.Validation("registration details do not match the requested role", nil)
	}
	return nil
}

// Login verifies credentials and returns a token pair. Failed attempts are
// counted; the account locks for a window after too many in a row. Wrong
// email and wrong password produce the same error.
func (s *Service) Login(ctx context.Context, req *model.LoginRequest) (*model.TokenResponse, error) {
	profile, err := s.profiles.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.Unauthorized(errors.New("invalid credentials"))
		}
		return nil, apperrors.Store(err)
	}

	now := s.now()
	if profile.LoginAttempts >= maxLoginAttempts && now.Sub(profile.LastLoginAttempt) < lockoutWindow {
		return nil, apperrors.Unauthorized(errors.New("account temporarily locked"))
	}
	if now.Sub(profile.LastLoginAttempt) >= lockoutWindow {
		profile.LoginAttempts = 0
	}

	if err := s.hasher.Compare(profile.PasswordHash, req.Password); err != nil {
		profile.LoginAttempts++
		profile.LastLoginAttempt = now
		if updateErr := s.profiles.Update(ctx, profile); updateErr != nil {
			s.logger.Error(updateErr, "failed to record login attempt")
		}
		return nil, apperrors.Unauthorized(errors.New("invalid credentials"))
	}

	profile.LoginAttempts = 0
	profile.LastLoginAttempt = now
	profile.LastLoginAt = &now
	if err := s.profiles.Update(ctx, profile); err != nil {
		s.logger.Error(err, "failed to record login")
	}

	return s.issueTokens(ctx, profile)
}

// Refresh exchanges a valid refresh token for a new pair. The used token is
// invalidated so each refresh token works once.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*model.TokenResponse, error) {
	if _, err := s.jwt.ValidateRefreshToken(refreshToken); err != nil {
		return nil, apperrors.Unauthorized(err)
	}

	profileID, err := s.tokens.ValidateRefreshToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.Unauthorized(errors.New("refresh token revoked or expired"))
		}
		return nil, apperrors.Store(err)
	}

	profile, err := s.profiles.Get(ctx, profileID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.Unauthorized(errors.New("profile no longer exists"))
		}
		return nil, apperrors.Store(err)
	}

	if err := s.tokens.InvalidateRefreshToken(ctx, refreshToken); err != nil {
		return nil, apperrors.Store(err)
	}

	return s.issueTokens(ctx, profile)
}

// Logout invalidates the refresh token. Access tokens expire on their own.
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	if err := s.tokens.InvalidateRefreshToken(ctx, refreshToken); err != nil {
		return apperrors.Store(err)
	}
	return nil
}

// Profile returns the caller's own profile with its role sub-record.
func (s *Service) Profile(ctx context.Context, profileID uuid.UUID) (*model.Profile, error) {
	profile, err := s.profiles.Get(ctx, profileID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("profile", err)
		}
		return nil, apperrors.Store(err)
	}
	return profile, nil
}

func (s *Service) issueTokens(ctx context.Context, profile *model.Profile) (*model.TokenResponse, error) {
	access, err := s.jwt.GenerateAccessToken(profile)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	refresh, err := s.jwt.GenerateRefreshToken(profile)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	if err := s.tokens.StoreRefreshToken(ctx, profile.ID, refresh, s.now().Add(s.refreshExpiry)); err != nil {
		return nil, apperrors.Store(err)
	}

	profile.Password = ""
	return &model.TokenResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		Profile:      profile,
	}, nil
}
