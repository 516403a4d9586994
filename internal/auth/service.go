package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/tillcore-backend/internal/sessiongate"
	"github.com/angelmondragon/tillcore-backend/internal/tenants"
	pkgAuth "github.com/angelmondragon/tillcore-backend/pkg/auth"
	"github.com/angelmondragon/tillcore-backend/pkg/auth/session"
	"github.com/angelmondragon/tillcore-backend/pkg/config"
	"github.com/angelmondragon/tillcore-backend/pkg/db/models"
	"github.com/angelmondragon/tillcore-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/tillcore-backend/pkg/errors"
	"github.com/angelmondragon/tillcore-backend/pkg/security"
)

const invalidCredentialsMessage = "invalid credentials"

// Service defines the behavior needed by the auth controller.
type Service interface {
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)
	Register(ctx context.Context, req tenants.RegisterRequest) (*RegisterResponse, error)
	ChangeCredential(ctx context.Context, staffID uuid.UUID, req ChangeCredentialRequest) (*ChangeCredentialResponse, error)
	Refresh(ctx context.Context, req RefreshRequest) (*LoginResponse, error)
	Logout(ctx context.Context, accessID string) error
}

type staffRepository interface {
	FindStaff(ctx context.Context, id uuid.UUID) (*models.StaffMember, error)
	FindStaffByEmail(ctx context.Context, email string) (*models.StaffMember, error)
	UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
	UpdateCredential(ctx context.Context, id uuid.UUID, hash string, at time.Time) error
}

type directory interface {
	Register(ctx context.Context, req tenants.RegisterRequest) (*tenants.RegisterResult, error)
	Identity(ctx context.Context, staffID uuid.UUID) (*tenants.Identity, error)
}

type sessionManager interface {
	Generate(ctx context.Context, accessID string, staffID uuid.UUID) (string, error)
	Rotate(ctx context.Context, oldAccessID string, staffID uuid.UUID, provided string) (string, string, error)
	Revoke(ctx context.Context, accessID string) error
}

// ServiceParams bundles the dependencies required to build an auth service.
type ServiceParams struct {
	Staff          staffRepository
	Directory      directory
	SessionManager sessionManager
	Gate           *sessiongate.Gate
	JWTConfig      config.JWTConfig
	PasswordConfig config.PasswordConfig
	Clock          func() time.Time
}

type service struct {
	staff       staffRepository
	directory   directory
	session     sessionManager
	gate        *sessiongate.Gate
	jwtCfg      config.JWTConfig
	passwordCfg config.PasswordConfig
	now         func() time.Time
}

// NewService constructs an auth service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Staff == nil {
		return nil, fmt.Errorf("staff repository is required")
	}
	if params.Directory == nil {
		return nil, fmt.Errorf("tenant directory is required")
	}
	if params.SessionManager == nil {
		return nil, fmt.Errorf("session manager is required")
	}
	if params.Gate == nil {
		return nil, fmt.Errorf("session gate is required")
	}
	clock := params.Clock
	if clock == nil {
		clock = time.Now
	}
	return &service{
		staff:       params.Staff,
		directory:   params.Directory,
		session:     params.SessionManager,
		gate:        params.Gate,
		jwtCfg:      params.JWTConfig,
		passwordCfg: params.PasswordConfig,
		now:         clock,
	}, nil
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	staff, err := s.authenticate(ctx, req.Email, req.Credential)
	if err != nil {
		return nil, err
	}
	identity, err := s.directory.Identity(ctx, staff.ID)
	if err != nil {
		return nil, pkgerrors.Passthrough(err, pkgerrors.CodeInternal, "resolve identity")
	}
	if !identity.BusinessActive {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}

	state, err := sessiongate.Transition(enums.SessionStateUnauthenticated, sessiongate.EventLogin, sessiongate.SnapshotFromIdentity(identity))
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	if state == enums.SessionStateBranchClosedBlocked {
		return nil, s.branchClosed(identity)
	}

	now := s.now().UTC()
	if err := s.staff.UpdateLastLogin(ctx, staff.ID, now); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update last login")
	}
	return s.issue(ctx, identity, state, now)
}

func (s *service) Register(ctx context.Context, req tenants.RegisterRequest) (*RegisterResponse, error) {
	result, err := s.directory.Register(ctx, req)
	if err != nil {
		return nil, err
	}
	identity, err := s.directory.Identity(ctx, result.Owner.ID)
	if err != nil {
		return nil, pkgerrors.Passthrough(err, pkgerrors.CodeInternal, "resolve identity")
	}
	now := s.now().UTC()
	if err := s.staff.UpdateLastLogin(ctx, result.Owner.ID, now); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update last login")
	}
	issued, err := s.issue(ctx, identity, sessiongate.StateFor(sessiongate.SnapshotFromIdentity(identity)), now)
	if err != nil {
		return nil, err
	}
	return &RegisterResponse{Tenant: *result, Session: *issued}, nil
}

func (s *service) ChangeCredential(ctx context.Context, staffID uuid.UUID, req ChangeCredentialRequest) (*ChangeCredentialResponse, error) {
	staff, err := s.staff.FindStaff(ctx, staffID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load staff member")
	}
	valid, err := security.VerifyCredential(req.Current, staff.CredentialHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify credential")
	}
	if !valid || !staff.IsActive() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	if req.New == req.Current {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "new credential must differ from the current one")
	}
	if err := security.ValidateCredentialStrength(req.New, s.passwordCfg.MinLength); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, err.Error())
	}

	hash, err := security.HashCredential(req.New, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash credential")
	}
	if err := s.staff.UpdateCredential(ctx, staff.ID, hash, s.now().UTC()); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "store credential")
	}

	identity, err := s.directory.Identity(ctx, staff.ID)
	if err != nil {
		return nil, pkgerrors.Passthrough(err, pkgerrors.CodeInternal, "resolve identity")
	}
	// must_change_credential is cleared by now, so pending sessions land on
	// active unless the branch closed in the meantime.
	state := sessiongate.StateFor(sessiongate.SnapshotFromIdentity(identity))
	return &ChangeCredentialResponse{State: state, Redirect: s.gate.Target(state)}, nil
}

func (s *service) Refresh(ctx context.Context, req RefreshRequest) (*LoginResponse, error) {
	claims, err := pkgAuth.ParseAccessTokenAllowExpired(s.jwtCfg, req.AccessToken)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid access token")
	}
	accessID, staffID := claims.ID, claims.StaffID

	identity, err := s.directory.Identity(ctx, staffID)
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "session expired")
		}
		return nil, pkgerrors.Passthrough(err, pkgerrors.CodeInternal, "resolve identity")
	}
	state := sessiongate.StateFor(sessiongate.SnapshotFromIdentity(identity))
	switch state {
	case enums.SessionStateUnauthenticated:
		_ = s.session.Revoke(ctx, accessID)
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "session expired")
	case enums.SessionStateBranchClosedBlocked:
		_ = s.session.Revoke(ctx, accessID)
		return nil, s.branchClosed(identity)
	}

	newAccessID, refreshToken, err := s.session.Rotate(ctx, accessID, staffID, req.RefreshToken)
	if err != nil {
		if errors.Is(err, session.ErrInvalidRefreshToken) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid refresh token")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rotate refresh token")
	}
	now := s.now().UTC()
	accessToken, err := s.mint(identity, newAccessID, now)
	if err != nil {
		return nil, err
	}
	return &LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    now.Add(s.jwtCfg.AccessTokenTTL()),
		State:        state,
		Redirect:     s.gate.Target(state),
		Profile:      ProfileFromIdentity(identity),
	}, nil
}

// Logout is valid from every state; a session that is already gone is not an error.
func (s *service) Logout(ctx context.Context, accessID string) error {
	if strings.TrimSpace(accessID) == "" {
		return nil
	}
	if err := s.session.Revoke(ctx, accessID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke session")
	}
	return nil
}

func (s *service) authenticate(ctx context.Context, email, credential string) (*models.StaffMember, error) {
	input := strings.ToLower(strings.TrimSpace(email))
	if input == "" || credential == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	staff, err := s.staff.FindStaffByEmail(ctx, input)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup staff member")
	}

	valid, err := security.VerifyCredential(credential, staff.CredentialHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify credential")
	}
	if !valid || !staff.IsActive() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	return staff, nil
}

func (s *service) issue(ctx context.Context, identity *tenants.Identity, state enums.SessionState, now time.Time) (*LoginResponse, error) {
	accessID := session.NewAccessID()
	accessToken, err := s.mint(identity, accessID, now)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.session.Generate(ctx, accessID, identity.Actor.StaffID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store refresh token")
	}
	return &LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    now.Add(s.jwtCfg.AccessTokenTTL()),
		State:        state,
		Redirect:     s.gate.Target(state),
		Profile:      ProfileFromIdentity(identity),
	}, nil
}

func (s *service) mint(identity *tenants.Identity, accessID string, now time.Time) (string, error) {
	token, err := pkgAuth.MintAccessToken(s.jwtCfg, now, pkgAuth.AccessTokenPayload{
		StaffID:    identity.Actor.StaffID,
		BusinessID: identity.Actor.BusinessID,
		BranchID:   identity.Actor.BranchID,
		Role:       identity.Actor.Role,
		JTI:        accessID,
	})
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}
	return token, nil
}

func (s *service) branchClosed(identity *tenants.Identity) error {
	state := enums.SessionStateBranchClosedBlocked
	details := map[string]any{
		"state":    state,
		"redirect": s.gate.Target(state),
	}
	if identity.BranchID != nil {
		details["branch_id"] = *identity.BranchID
	}
	return pkgerrors.New(pkgerrors.CodeBranchInactive, "branch is inactive").WithDetails(details)
}
