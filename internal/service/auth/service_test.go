package auth

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carelink/portal-api/internal/email"
	"github.com/carelink/portal-api/internal/model"
	"github.com/carelink/portal-api/internal/repository"
	"github.com/carelink/portal-api/pkg/auth"
	apperrors "github.com/carelink/portal-api/pkg/errors"
	"github.com/carelink/portal-api/pkg/logger"
	"github.com/carelink/portal-api/pkg/security"
)

type fakeProfileRepo struct {
	profiles map[uuid.UUID]*model.Profile
}

func newFakeProfileRepo() *fakeProfileRepo {
	return &fakeProfileRepo{profiles: make(map[uuid.UUID]*model.Profile)}
}

func (f *fakeProfileRepo) Create(_ context.Context, p *model.Profile) error {
	p.ID = uuid.New()
	cp := *p
	f.profiles[p.ID] = &cp
	return nil
}

func (f *fakeProfileRepo) Get(_ context.Context, id uuid.UUID) (*model.Profile, error) {
	p, ok := f.profiles[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProfileRepo) GetByEmail(_ context.Context, email string) (*model.Profile, error) {
	for _, p := range f.profiles {
		if strings.EqualFold(p.Email, email) {
			cp := *p
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeProfileRepo) Update(_ context.Context, p *model.Profile) error {
	if _, ok := f.profiles[p.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *p
	f.profiles[p.ID] = &cp
	return nil
}

type fakeTokenRepo struct {
	tokens map[string]uuid.UUID
}

func newFakeTokenRepo() *fakeTokenRepo {
	return &fakeTokenRepo{tokens: make(map[string]uuid.UUID)}
}

func (f *fakeTokenRepo) StoreRefreshToken(_ context.Context, profileID uuid.UUID, token string, _ time.Time) error {
	f.tokens[token] = profileID
	return nil
}

func (f *fakeTokenRepo) ValidateRefreshToken(_ context.Context, token string) (uuid.UUID, error) {
	id, ok := f.tokens[token]
	if !ok {
		return uuid.Nil, repository.ErrNotFound
	}
	return id, nil
}

func (f *fakeTokenRepo) InvalidateRefreshToken(_ context.Context, token string) error {
	delete(f.tokens, token)
	return nil
}

func newTestService(t *testing.T) (*Service, *fakeProfileRepo) {
	t.Helper()
	profiles := newFakeProfileRepo()
	jwtSvc := auth.NewJWTService(auth.Config{Secret: "test-secret", RefreshSecret: "test-refresh"})
	svc := NewService(profiles, newFakeTokenRepo(), jwtSvc, security.NewBcryptHasher(4), email.NoopService{}, 0, logger.NewLogger(nil))
	return svc, profiles
}

func patientRegistration(email string) *model.RegisterRequest {
	dob := "1990-01-01"
	return &model.RegisterRequest{
		Email:    email,
		Password: "secret-password",
		FullName: "Pat Example",
		Role:     model.RolePatient,
		Patient: &model.PatientRegistration{
			IDNumber:    "9001015800087",
			DateOfBirth: &dob,
		},
	}
}

func assertCode(t *testing.T, err error, code apperrors.ErrorCode) {
	t.Helper()
	appErr, ok := apperrors.As(err)
	require.True(t, ok, "expected AppError, got %v", err)
	assert.Equal(t, code, appErr.Code)
}

func TestRegister(t *testing.T) {
	ctx := context.Background()

	t.Run("patient registration returns tokens", func(t *testing.T) {
		svc, _ := newTestService(t)
		resp, err := svc.Register(ctx, patientRegistration("pat@example.com"))
		require.NoError(t, err)
		assert.NotEmpty(t, resp.AccessToken)
		assert.NotEmpty(t, resp.RefreshToken)
		require.NotNil(t, resp.Profile)
		assert.Equal(t, model.RolePatient, resp.Profile.Role)
		require.NotNil(t, resp.Profile.Patient)
		require.NotNil(t, resp.Profile.Patient.DateOfBirth)
		assert.Equal(t, "1990-01-01", *resp.Profile.Patient.DateOfBirth)
		assert.Nil(t, resp.Profile.Doctor)
	})

	t.Run("malformed date of birth is rejected", func(t *testing.T) {
		svc, _ := newTestService(t)
		req := patientRegistration("pat@example.com")
		bad := "01/01/1990"
		req.Patient.DateOfBirth = &bad
		_, err := svc.Register(ctx, req)
		assertCode(t, err, apperrors.ErrValidation)
	})

	t.Run("doctor registration carries doctor details", func(t *testing.T) {
		svc, _ := newTestService(t)
		resp, err := svc.Register(ctx, &model.RegisterRequest{
			Email:    "doc@example.com",
			Password: "secret-password",
			FullName: "Dr Example",
			Role:     model.RoleDoctor,
			Doctor: &model.DoctorRegistration{
				SpecialtyCategory: "cardiology",
				LicenseNumber:     "MP123456",
				WorkingHoursStart: "08:00",
				WorkingHoursEnd:   "16:00",
			},
		})
		require.NoError(t, err)
		require.NotNil(t, resp.Profile.Doctor)
		assert.Equal(t, "cardiology", resp.Profile.Doctor.SpecialtyCategory)
	})

	t.Run("duplicate email rejected", func(t *testing.T) {
		svc, _ := newTestService(t)
		_, err := svc.Register(ctx, patientRegistration("pat@example.com"))
		require.NoError(t, err)
		_, err = svc.Register(ctx, patientRegistration("pat@example.com"))
		assertCode(t, err, apperrors.ErrValidation)
	})

	t.Run("doctor role without doctor details rejected", func(t *testing.T) {
		svc, _ := newTestService(t)
		_, err := svc.Register(ctx, &model.RegisterRequest{
			Email:    "doc@example.com",
			Password: "secret-password",
			FullName: "Dr Example",
			Role:     model.RoleDoctor,
		})
		assertCode(t, err, apperrors.ErrValidation)
	})

	t.Run("mismatched sub-record rejected", func(t *testing.T) {
		svc, _ := newTestService(t)
		req := patientRegistration("pat@example.com")
		req.Doctor = &model.DoctorRegistration{SpecialtyCategory: "gp", LicenseNumber: "x"}
		_, err := svc.Register(ctx, req)
		assertCode(t, err, apperrors.ErrValidation)
	})
}

func TestLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("valid credentials", func(t *testing.T) {
		svc, _ := newTestService(t)
		_, err := svc.Register(ctx, patientRegistration("pat@example.com"))
		require.NoError(t, err)

		resp, err := svc.Login(ctx, &model.LoginRequest{Email: "pat@example.com", Password: "secret-password"})
		require.NoError(t, err)
		assert.NotEmpty(t, resp.AccessToken)
	})

	t.Run("wrong password and unknown email look the same", func(t *testing.T) {
		svc, _ := newTestService(t)
		_, err := svc.Register(ctx, patientRegistration("pat@example.com"))
		require.NoError(t, err)

		_, errWrongPass := svc.Login(ctx, &model.LoginRequest{Email: "pat@example.com", Password: "wrong-password"})
		_, errNoUser := svc.Login(ctx, &model.LoginRequest{Email: "nobody@example.com", Password: "wrong-password"})

		assertCode(t, errWrongPass, apperrors.ErrUnauthorized)
		assertCode(t, errNoUser, apperrors.ErrUnauthorized)
		assert.Equal(t, errWrongPass.Error(), errNoUser.Error())
	})

	t.Run("account locks after repeated failures", func(t *testing.T) {
		svc, _ := newTestService(t)
		_, err := svc.Register(ctx, patientRegistration("pat@example.com"))
		require.NoError(t, err)

		for i := 0; i < maxLoginAttempts; i++ {
			_, err := svc.Login(ctx, &model.LoginRequest{Email: "pat@example.com", Password: "wrong-password"})
			assertCode(t, err, apperrors.ErrUnauthorized)
		}

		// Correct password is still refused while locked.
		_, err = svc.Login(ctx, &model.LoginRequest{Email: "pat@example.com", Password: "secret-password"})
		assertCode(t, err, apperrors.ErrUnauthorized)
	})

	t.Run("lockout expires after the window", func(t *testing.T) {
		svc, _ := newTestService(t)
		_, err := svc.Register(ctx, patientRegistration("pat@example.com"))
		require.NoError(t, err)

		base := time.Now()
		svc.now = func() time.Time { return base }
		for i := 0; i < maxLoginAttempts; i++ {
			svc.Login(ctx, &model.LoginRequest{Email: "pat@example.com", Password: "wrong-password"})
		}

		svc.now = func() time.Time { return base.Add(lockoutWindow + time.Minute) }
		_, err = svc.Login(ctx, &model.LoginRequest{Email: "pat@example.com", Password: "secret-password"})
		assert.NoError(t, err)
	})
}

func TestRefresh(t *testing.T) {
	ctx := context.Background()

	t.Run("valid refresh rotates tokens", func(t *testing.T) {
		svc, _ := newTestService(t)
		first, err := svc.Register(ctx, patientRegistration("pat@example.com"))
		require.NoError(t, err)

		second, err := svc.Refresh(ctx, first.RefreshToken)
		require.NoError(t, err)
		assert.NotEmpty(t, second.AccessToken)

		// The consumed token no longer works.
		_, err = svc.Refresh(ctx, first.RefreshToken)
		assertCode(t, err, apperrors.ErrUnauthorized)
	})

	t.Run("garbage token rejected", func(t *testing.T) {
		svc, _ := newTestService(t)
		_, err := svc.Refresh(ctx, "not-a-token")
		assertCode(t, err, apperrors.ErrUnauthorized)
	})

	t.Run("logout revokes refresh token", func(t *testing.T) {
		svc, _ := newTestService(t)
		resp, err := svc.Register(ctx, patientRegistration("pat@example.com"))
		require.NoError(t, err)

		require.NoError(t, svc.Logout(ctx, resp.RefreshToken))
		_, err = svc.Refresh(ctx, resp.RefreshToken)
		assertCode(t, err, apperrors.ErrUnauthorized)
	})
}
