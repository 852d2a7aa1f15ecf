package security

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/rsa"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	// ErrInvalidToken is returned when a token is malformed, expired, of the wrong type, or
	// signed by another key, issuer, or audience.
	ErrInvalidToken = errors.New("invalid token")
	// ErrUnsupportedKey is returned when the signing key is neither RSA nor ECDSA.
	ErrUnsupportedKey = errors.New("unsupported signing key")
)

// TokenType distinguishes the three credentials the provider mints.
type TokenType string

const (
	TokenTypeAccess    TokenType = "access"
	TokenTypeRefresh   TokenType = "refresh"
	TokenTypeAnonymous TokenType = "anonymous"
)

// Claims are the JWT claims of every token. Anonymous tokens have no subject.
type Claims struct {
	jwt.RegisteredClaims
	TokenType TokenType `json:"token_type"`
}

// TokenPair is the credential pair returned by a successful login or refresh.
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

// AnonymousToken is a credential bound to no user, accepted only by pre-authentication routes.
type AnonymousToken struct {
	Token     string
	ExpiresAt time.Time
}

// Principal is the identity carried by a validated bearer token.
type Principal struct {
	UserID    string // empty for anonymous principals
	TokenID   string
	Anonymous bool
}

// TokenProvider issues and validates JWTs using RS256 or ES256 (private/public key).
type TokenProvider struct {
	privateKey crypto.Signer
	publicKey  crypto.PublicKey
	method     jwt.SigningMethod
	issuer     string
	audience   string
	accessTTL  time.Duration
	refreshTTL time.Duration
	anonTTL    time.Duration
	nowF       func() time.Time
}

// NewTokenProvider returns a provider that signs with privateKey and verifies with publicKey.
// issuer and audience are set on every token and required on validation.
func NewTokenProvider(privateKey crypto.Signer, publicKey crypto.PublicKey, issuer, audience string, accessTTL, refreshTTL, anonTTL time.Duration) (*TokenProvider, error) {
	var method jwt.SigningMethod
	switch privateKey.Public().(type) {
	case *rsa.PublicKey:
		method = jwt.SigningMethodRS256
	case *ecdsa.PublicKey:
		method = jwt.SigningMethodES256
	default:
		return nil, ErrUnsupportedKey
	}
	if publicKey == nil {
		publicKey = privateKey.Public()
	}
	return &TokenProvider{
		privateKey: privateKey,
		publicKey:  publicKey,
		method:     method,
		issuer:     issuer,
		audience:   audience,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		anonTTL:    anonTTL,
		nowF:       func() time.Time { return time.Now().UTC() },
	}, nil
}

// IssuePair issues an access and a refresh token bound to userID.
func (p *TokenProvider) IssuePair(userID string) (*TokenPair, error) {
	if userID == "" {
		return nil, ErrInvalidToken
	}
	access, accessExp, err := p.issue(TokenTypeAccess, userID, p.accessTTL)
	if err != nil {
		return nil, err
	}
	refresh, refreshExp, err := p.issue(TokenTypeRefresh, userID, p.refreshTTL)
	if err != nil {
		return nil, err
	}
	return &TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// IssueAnonymous issues a token that carries no user identity.
func (p *TokenProvider) IssueAnonymous() (*AnonymousToken, error) {
	tok, exp, err := p.issue(TokenTypeAnonymous, "", p.anonTTL)
	if err != nil {
		return nil, err
	}
	return &AnonymousToken{Token: tok, ExpiresAt: exp}, nil
}

// ValidateAccess accepts access and anonymous tokens and returns the principal they carry.
func (p *TokenProvider) ValidateAccess(tokenString string) (*Principal, error) {
	claims, err := p.parse(tokenString)
	if err != nil {
		return nil, err
	}
	switch claims.TokenType {
	case TokenTypeAccess:
		if claims.Subject == "" {
			return nil, ErrInvalidToken
		}
		return &Principal{UserID: claims.Subject, TokenID: claims.ID}, nil
	case TokenTypeAnonymous:
		if claims.Subject != "" {
			return nil, ErrInvalidToken
		}
		return &Principal{TokenID: claims.ID, Anonymous: true}, nil
	default:
		return nil, ErrInvalidToken
	}
}

// ValidateRefresh accepts only refresh tokens and returns the bound user ID.
func (p *TokenProvider) ValidateRefresh(tokenString string) (string, error) {
	claims, err := p.parse(tokenString)
	if err != nil {
		return "", err
	}
	if claims.TokenType != TokenTypeRefresh || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}

func (p *TokenProvider) issue(typ TokenType, subject string, ttl time.Duration) (string, time.Time, error) {
	now := p.nowF()
	expiresAt := now.Add(ttl)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   subject,
			Issuer:    p.issuer,
			Audience:  jwt.ClaimStrings{p.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		TokenType: typ,
	}
	token, err := jwt.NewWithClaims(p.method, claims).SignedString(p.privateKey)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

func (p *TokenProvider) parse(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(*jwt.Token) (any, error) { return p.publicKey, nil },
		jwt.WithValidMethods([]string{p.method.Alg()}),
		jwt.WithIssuer(p.issuer),
		jwt.WithAudience(p.audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(p.nowF),
	)
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
