// Package attestation issues and verifies signed age-over tokens. A token
// proves a verification passed without disclosing the birth date.
package attestation

import (
	"context"
	"crypto/sha256"
	"errors"
	"io"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/hkdf"

	"inro/pkg/domain"
	dErrors "inro/pkg/domain-errors"
	"inro/pkg/requestcontext"
)

// MinKeyLength is the shortest HS256 key the service accepts.
const MinKeyLength = 32

// Claims are the JWT claims of an age attestation.
type Claims struct {
	AgeOver        int    `json:"age_over"`
	VerificationID string `json:"vid"`
	Source         string `json:"src"`
	jwt.RegisteredClaims
}

// Attestation is an issued token with the fields callers echo back.
type Attestation struct {
	Token     string
	ID        domain.AttestationID
	ExpiresAt time.Time
}

// Service handles attestation creation and validation.
type Service struct {
	signingKey []byte
	issuer     string
	audience   string
	ttl        time.Duration
}

// New panics on a key shorter than MinKeyLength or a non-positive ttl.
func New(signingKey, issuer, audience string, ttl time.Duration) *Service {
	if len(signingKey) < MinKeyLength {
		panic("attestation.New: signing key too short")
	}
	if ttl <= 0 {
		panic("attestation.New: ttl must be positive")
	}
	return &Service{
		signingKey: deriveKey(signingKey),
		issuer:     issuer,
		audience:   audience,
		ttl:        ttl,
	}
}

// keyInfo binds the derived HMAC key to attestation signing, so the
// configured secret never signs anything directly.
const keyInfo = "inro attestation hs256"

func deriveKey(secret string) []byte {
	key := make([]byte, sha256.Size)
	// HKDF-SHA256 yields up to 8160 bytes; 32 cannot fail.
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), nil, []byte(keyInfo)), key); err != nil {
		panic(err)
	}
	return key
}

// Issue signs an age-over attestation for a passed verification. Times come
// from the request clock.
func (s *Service) Issue(ctx context.Context, vid domain.VerificationID, source string) (Attestation, error) {
	if vid.IsNil() {
		return Attestation{}, dErrors.New(dErrors.CodeInvalidInput, "verification id is required")
	}

	now := requestcontext.Now(ctx)
	aid := domain.NewAttestationID()
	expiresAt := now.Add(s.ttl)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		AgeOver:        domain.MinimumAge,
		VerificationID: vid.String(),
		Source:         source,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    s.issuer,
			Audience:  []string{s.audience},
			ID:        aid.String(),
		},
	})

	signed, err := token.SignedString(s.signingKey)
	if err != nil {
		return Attestation{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to sign attestation")
	}
	return Attestation{Token: signed, ID: aid, ExpiresAt: expiresAt.Truncate(time.Second)}, nil
}

// Verify checks signature, algorithm, issuer, audience and expiry against
// the request clock.
//
// Errors: CodeInvalidInput for an empty token, CodeUnauthorized for every
// rejection.
func (s *Service) Verify(ctx context.Context, tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "empty token")
	}

	claims := new(Claims)
	parsed, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return s.signingKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(s.audience),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(func() time.Time { return requestcontext.Now(ctx) }),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "attestation expired")
		}
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid attestation")
	}
	if !parsed.Valid {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid attestation")
	}

	if claims.AgeOver < domain.MinimumAge {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "attestation does not meet the minimum age")
	}
	if _, err := domain.ParseVerificationID(claims.VerificationID); err != nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid attestation subject")
	}
	return claims, nil
}
