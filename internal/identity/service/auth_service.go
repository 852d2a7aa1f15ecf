// Package service implements phone OTP sign-up and login: code requests, code verification,
// token issuance, and the PENDING to PHONE_VERIFIED transition.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/metric"

	"phone-otp-auth/internal/logging"
	"phone-otp-auth/internal/otp"
	"phone-otp-auth/internal/phone"
	"phone-otp-auth/internal/security"
	"phone-otp-auth/internal/telemetry"
	teldomain "phone-otp-auth/internal/telemetry/domain"
	userdomain "phone-otp-auth/internal/user/domain"
	userrepo "phone-otp-auth/internal/user/repository"
)

// Event names written to the auth event log.
const (
	EventUserRegistered      = "user_registered"
	EventOTPRequested        = "otp_requested"
	EventOTPRequestBlocked   = "otp_request_blocked"
	EventOTPRateLimited      = "otp_rate_limited"
	EventLoginSucceeded      = "login_succeeded"
	EventLoginFailed         = "login_failed"
	EventLoginBlocked        = "login_blocked"
	EventOTPStoreUnavailable = "otp_store_unavailable"
	EventOTPCleanupFailed    = "otp_cleanup_failed"
)

const (
	defaultDeliveryTimeout = 15 * time.Second
	defaultStoreTimeout    = 2 * time.Second
)

// UserRepo is the minimal user repository needed by the auth service.
type UserRepo interface {
	GetByID(ctx context.Context, id string) (*userdomain.User, error)
	GetByPhone(ctx context.Context, phone string) (*userdomain.User, error)
	Create(ctx context.Context, u *userdomain.User) error
	SetState(ctx context.Context, userID string, state userdomain.VerificationState) error
}

// CodeStore holds the live code per user key. Failures wrap otp.ErrStoreUnavailable.
type CodeStore interface {
	Put(ctx context.Context, key string, rec otp.Record) error
	Get(ctx context.Context, key string) (*otp.Record, error)
	Delete(ctx context.Context, key string) error
}

// RateLimiter decides whether another code may be requested for key.
type RateLimiter interface {
	MayRequest(ctx context.Context, key string) (bool, error)
}

// CodeGenerator produces a code and its expiry instant.
type CodeGenerator interface {
	Generate() (string, time.Time, error)
}

// TokenIssuer mints and checks bearer tokens.
type TokenIssuer interface {
	IssuePair(userID string) (*security.TokenPair, error)
	IssueAnonymous() (*security.AnonymousToken, error)
	ValidateRefresh(token string) (string, error)
}

// RequestCodeResult reports whether the request created the user.
type RequestCodeResult struct {
	Registered bool
}

// AuthService implements RequestCode, Login, Refresh, IssueAnonymousToken, and Logout.
type AuthService struct {
	users   UserRepo
	codes   CodeStore
	limiter RateLimiter
	gen     CodeGenerator
	sender  otp.Sender
	tokens  TokenIssuer

	emitter         telemetry.EventEmitter
	logger          *slog.Logger
	metrics         *metrics
	nowF            func() time.Time
	deliveryTimeout time.Duration
	storeTimeout    time.Duration

	deliveries sync.WaitGroup
}

// Option configures an AuthService.
type Option func(*AuthService)

// WithLogger sets the logger. Nil means slog.Default.
func WithLogger(l *slog.Logger) Option { return func(s *AuthService) { s.logger = logging.Or(l) } }

// WithEmitter sets the event log emitter. Nil means events are dropped.
func WithEmitter(e telemetry.EventEmitter) Option {
	return func(s *AuthService) {
		if e != nil {
			s.emitter = e
		}
	}
}

// WithClock sets the clock used for validation and event timestamps.
func WithClock(now func() time.Time) Option { return func(s *AuthService) { s.nowF = now } }

// WithMeter sets the meter for otp.requests and otp.logins. Nil means the global meter provider.
func WithMeter(m metric.Meter) Option { return func(s *AuthService) { s.metrics = newMetrics(m) } }

// WithDeliveryTimeout bounds a single delivery call.
func WithDeliveryTimeout(d time.Duration) Option {
	return func(s *AuthService) {
		if d > 0 {
			s.deliveryTimeout = d
		}
	}
}

// WithStoreTimeout bounds each user directory call.
func WithStoreTimeout(d time.Duration) Option {
	return func(s *AuthService) {
		if d > 0 {
			s.storeTimeout = d
		}
	}
}

// NewAuthService returns an AuthService with the given dependencies.
func NewAuthService(
	users UserRepo,
	codes CodeStore,
	limiter RateLimiter,
	gen CodeGenerator,
	sender otp.Sender,
	tokens TokenIssuer,
	opts ...Option,
) *AuthService {
	s := &AuthService{
		users:           users,
		codes:           codes,
		limiter:         limiter,
		gen:             gen,
		sender:          sender,
		tokens:          tokens,
		emitter:         telemetry.Nop{},
		logger:          slog.Default(),
		nowF:            func() time.Time { return time.Now().UTC() },
		deliveryTimeout: defaultDeliveryTimeout,
		storeTimeout:    defaultStoreTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = newMetrics(nil)
	}
	return s
}

// RequestCode issues a fresh code for the phone and dispatches it. A first request for an
// unknown phone creates the user in PENDING and reports Registered.
func (s *AuthService) RequestCode(ctx context.Context, phoneNumber, countryCode string) (*RequestCodeResult, error) {
	normalized, country, err := normalize(phoneNumber, countryCode)
	if err != nil {
		s.metrics.request(ctx, outcomeInvalidInput)
		return nil, err
	}
	user, err := s.lookup(ctx, normalized)
	if err != nil {
		s.logger.WarnContext(ctx, "request code: user lookup failed", "error", err)
		s.metrics.request(ctx, outcomeUnavailable)
		return nil, ErrServiceUnavailable
	}
	if user != nil && user.Blocked {
		s.emit(ctx, EventOTPRequestBlocked, teldomain.LevelWarning, "user_id="+user.ID)
		s.metrics.request(ctx, outcomeBlocked)
		return nil, ErrUserBlocked
	}

	allowed, err := s.limiter.MayRequest(ctx, normalized)
	if err != nil {
		s.storeUnavailable(ctx, "rate_limit", err)
		s.metrics.request(ctx, outcomeUnavailable)
		return nil, ErrServiceUnavailable
	}
	if !allowed {
		s.emit(ctx, EventOTPRateLimited, teldomain.LevelWarning, "")
		s.metrics.request(ctx, outcomeRateLimited)
		return nil, ErrRateLimited
	}

	code, expiresAt, err := s.gen.Generate()
	if err != nil {
		s.logger.ErrorContext(ctx, "request code: generate failed", "error", err)
		s.metrics.request(ctx, outcomeError)
		return nil, ErrInternal
	}
	if err := s.codes.Put(ctx, normalized, otp.Record{Code: code, ExpiresAt: expiresAt}); err != nil {
		s.storeUnavailable(ctx, "put", err)
		s.metrics.request(ctx, outcomeUnavailable)
		return nil, ErrServiceUnavailable
	}

	registered := false
	if user == nil {
		registered, err = s.register(ctx, normalized, country)
		if err != nil {
			s.logger.WarnContext(ctx, "request code: create user failed", "error", err)
			s.metrics.request(ctx, outcomeUnavailable)
			return nil, ErrServiceUnavailable
		}
	}

	s.deliver(ctx, normalized, code)
	s.emit(ctx, EventOTPRequested, teldomain.LevelInfo, "")
	if registered {
		s.metrics.request(ctx, outcomeRegistered)
	} else {
		s.metrics.request(ctx, outcomeSent)
	}
	return &RequestCodeResult{Registered: registered}, nil
}

// register creates a PENDING user. A concurrent request that created the same phone first
// makes this call report the user as existing.
func (s *AuthService) register(ctx context.Context, normalized, country string) (bool, error) {
	u := &userdomain.User{
		ID:          uuid.NewString(),
		Phone:       normalized,
		CountryCode: country,
		State:       userdomain.StatePending,
	}
	cctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	if err := s.users.Create(cctx, u); err != nil {
		if errors.Is(err, userrepo.ErrPhoneTaken) {
			return false, nil
		}
		return false, err
	}
	s.emit(ctx, EventUserRegistered, teldomain.LevelInfo, "user_id="+u.ID)
	return true, nil
}

// deliver sends code in the background under the delivery timeout. Failures are logged only.
func (s *AuthService) deliver(ctx context.Context, normalized, code string) {
	if s.sender == nil {
		return
	}
	base := context.WithoutCancel(ctx)
	s.deliveries.Add(1)
	go func() {
		defer s.deliveries.Done()
		dctx, cancel := context.WithTimeout(base, s.deliveryTimeout)
		defer cancel()
		if err := s.sender.SendOTP(dctx, normalized, code); err != nil {
			s.logger.WarnContext(dctx, "request code: delivery failed", "error", err)
		}
	}()
}

// WaitDeliveries blocks until in-flight deliveries finish or ctx is done.
func (s *AuthService) WaitDeliveries(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.deliveries.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Login verifies the submitted code and returns a token pair. The code is single-use: it is
// deleted before tokens are returned, and a failed delete withholds the tokens.
func (s *AuthService) Login(ctx context.Context, phoneNumber, countryCode, code string) (*security.TokenPair, error) {
	normalized, _, err := normalize(phoneNumber, countryCode)
	if err != nil {
		s.metrics.login(ctx, outcomeInvalidInput)
		return nil, err
	}
	user, err := s.lookup(ctx, normalized)
	if err != nil {
		s.logger.WarnContext(ctx, "login: user lookup failed", "error", err)
		s.metrics.login(ctx, outcomeUnavailable)
		return nil, ErrServiceUnavailable
	}
	if user == nil {
		s.metrics.login(ctx, outcomeNotFound)
		return nil, ErrUserNotFound
	}
	if user.Blocked {
		s.emit(ctx, EventLoginBlocked, teldomain.LevelWarning, "user_id="+user.ID)
		s.metrics.login(ctx, outcomeBlocked)
		return nil, ErrUserBlocked
	}

	rec, err := s.codes.Get(ctx, normalized)
	if err != nil {
		s.storeUnavailable(ctx, "get", err)
		s.metrics.login(ctx, outcomeUnavailable)
		return nil, ErrServiceUnavailable
	}
	if reason := otp.Validate(rec, code, s.nowF()); reason != otp.ReasonValid {
		s.logger.DebugContext(ctx, "login: code rejected", "user_id", user.ID, "reason", reason.String())
		s.emit(ctx, EventLoginFailed, teldomain.LevelWarning, "user_id="+user.ID+" reason="+reason.String())
		s.metrics.login(ctx, outcomeInvalidCredentials)
		return nil, ErrInvalidCredentials
	}

	if next, changed := Transition(user.State); changed {
		cctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
		err := s.users.SetState(cctx, user.ID, next)
		cancel()
		if err != nil {
			s.logger.WarnContext(ctx, "login: set state failed", "user_id", user.ID, "error", err)
			s.metrics.login(ctx, outcomeUnavailable)
			return nil, ErrServiceUnavailable
		}
		user.State = next
	}

	pair, err := s.tokens.IssuePair(user.ID)
	if err != nil {
		s.logger.ErrorContext(ctx, "login: issue tokens failed", "user_id", user.ID, "error", err)
		s.metrics.login(ctx, outcomeError)
		return nil, ErrInternal
	}
	if err := s.codes.Delete(ctx, normalized); err != nil {
		s.logger.WarnContext(ctx, "login: code cleanup failed", "user_id", user.ID, "error", err)
		s.emit(ctx, EventOTPCleanupFailed, teldomain.LevelError, "user_id="+user.ID)
		s.metrics.login(ctx, outcomeUnavailable)
		return nil, ErrServiceUnavailable
	}

	s.emit(ctx, EventLoginSucceeded, teldomain.LevelInfo, "user_id="+user.ID)
	s.metrics.login(ctx, outcomeSuccess)
	return pair, nil
}

// Refresh exchanges a refresh token for a new pair. The user must still exist and not be blocked.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*security.TokenPair, error) {
	userID, err := s.tokens.ValidateRefresh(refreshToken)
	if err != nil {
		s.logger.DebugContext(ctx, "refresh: token rejected", "error", err)
		return nil, ErrInvalidCredentials
	}
	cctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	user, err := s.users.GetByID(cctx, userID)
	cancel()
	if err != nil {
		s.logger.WarnContext(ctx, "refresh: user lookup failed", "error", err)
		return nil, ErrServiceUnavailable
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}
	if user.Blocked {
		return nil, ErrUserBlocked
	}
	pair, err := s.tokens.IssuePair(user.ID)
	if err != nil {
		s.logger.ErrorContext(ctx, "refresh: issue tokens failed", "error", err)
		return nil, ErrInternal
	}
	return pair, nil
}

// IssueAnonymousToken mints an anonymous token. Callers presenting a user token are rejected.
func (s *AuthService) IssueAnonymousToken(ctx context.Context, callerIsAnonymous bool) (*security.AnonymousToken, error) {
	if !callerIsAnonymous {
		return nil, ErrAlreadyAuthenticated
	}
	tok, err := s.tokens.IssueAnonymous()
	if err != nil {
		s.logger.ErrorContext(ctx, "anonymous token: issue failed", "error", err)
		return nil, ErrInternal
	}
	return tok, nil
}

// Logout acknowledges an authenticated caller. Tokens are stateless, so nothing is revoked.
func (s *AuthService) Logout(ctx context.Context, isAuthenticated bool) error {
	if !isAuthenticated {
		return ErrUnauthenticated
	}
	return nil
}

func normalize(phoneNumber, countryCode string) (string, string, error) {
	country, err := phone.Country(countryCode)
	if err != nil {
		return "", "", fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	normalized, err := phone.Normalize(phoneNumber, country)
	if err != nil {
		return "", "", fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return normalized, country, nil
}

func (s *AuthService) lookup(ctx context.Context, normalized string) (*userdomain.User, error) {
	cctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	return s.users.GetByPhone(cctx, normalized)
}

func (s *AuthService) storeUnavailable(ctx context.Context, op string, err error) {
	s.logger.WarnContext(ctx, "otp store unavailable", "op", op, "error", err)
	s.emit(ctx, EventOTPStoreUnavailable, teldomain.LevelError, "op="+op)
}

func (s *AuthService) emit(ctx context.Context, name, level, message string) {
	telemetry.EmitAsync(s.emitter, ctx, teldomain.NewEvent(name, level, message, s.nowF()), s.logger)
}
