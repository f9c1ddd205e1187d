package plaid

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/plaid/plaid-go/v41/plaid"
)

const (
	WebhookTypeTransactions = "TRANSACTIONS"
	WebhookSyncAvailable    = "SYNC_UPDATES_AVAILABLE"
)

type WebhookEvent struct {
	WebhookType string `json:"webhook_type"`
	WebhookCode string `json:"webhook_code"`
	ItemID      string `json:"item_id"`
}

func (e WebhookEvent) SyncAvailable() bool {
	return e.WebhookType == WebhookTypeTransactions && e.WebhookCode == WebhookSyncAvailable
}

type KeyFetcher interface {
	VerificationKey(ctx context.Context, kid string) (*plaid.JWKPublicKey, error)
}

// Verifier checks the Plaid-Verification JWT sent with every webhook: an
// ES256 signature by a Plaid key, issued recently, over the exact body.
type Verifier struct {
	keys   KeyFetcher
	maxAge time.Duration
	now    func() time.Time

	mu    sync.Mutex
	cache map[string]*plaid.JWKPublicKey
}

func NewVerifier(keys KeyFetcher) *Verifier {
	return &Verifier{
		keys:   keys,
		maxAge: 5 * time.Minute,
		now:    time.Now,
		cache:  make(map[string]*plaid.JWKPublicKey),
	}
}

func (v *Verifier) Verify(ctx context.Context, body []byte, tokenString string) error {
	if tokenString == "" {
		return errors.New("missing Plaid-Verification header")
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodES256.Alg()}),
		jwt.WithLeeway(30*time.Second),
		jwt.WithTimeFunc(v.now),
	)

	unverified, _, err := parser.ParseUnverified(tokenString, jwt.MapClaims{})
	if err != nil {
		return fmt.Errorf("parse unverified token: %w", err)
	}
	kid, _ := unverified.Header["kid"].(string)
	if kid == "" {
		return errors.New("missing kid in JWT header")
	}

	jwk, err := v.key(ctx, kid)
	if err != nil {
		return err
	}
	pubKey, err := publicKey(jwk)
	if err != nil {
		return err
	}

	claims := jwt.MapClaims{}
	token, err := parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return pubKey, nil
	})
	if err != nil || !token.Valid {
		return fmt.Errorf("invalid token: %w", err)
	}

	iat, err := claims.GetIssuedAt()
	if err != nil || iat == nil {
		return errors.New("missing iat")
	}
	if v.now().Sub(iat.Time) > v.maxAge {
		return fmt.Errorf("token too old (>%s)", v.maxAge)
	}

	wantHash, _ := claims["request_body_sha256"].(string)
	if wantHash == "" {
		return errors.New("missing request_body_sha256")
	}
	sum := sha256.Sum256(body)
	gotHex := hex.EncodeToString(sum[:])
	if subtle.ConstantTimeCompare([]byte(gotHex), []byte(strings.ToLower(wantHash))) != 1 {
		return errors.New("body hash mismatch")
	}
	return nil
}

func (v *Verifier) key(ctx context.Context, kid string) (*plaid.JWKPublicKey, error) {
	v.mu.Lock()
	cached, ok := v.cache[kid]
	v.mu.Unlock()
	if ok {
		return cached, nil
	}

	key, err := v.keys.VerificationKey(ctx, kid)
	if err != nil {
		return nil, err
	}
	if key.Kid == kid {
		v.mu.Lock()
		v.cache[kid] = key
		v.mu.Unlock()
	}
	return key, nil
}

func publicKey(jwk *plaid.JWKPublicKey) (*ecdsa.PublicKey, error) {
	if jwk == nil || jwk.X == "" || jwk.Y == "" || jwk.Kty != "EC" || jwk.Crv != "P-256" {
		return nil, errors.New("invalid or unsupported JWK")
	}
	x, err := base64.RawURLEncoding.DecodeString(jwk.X)
	if err != nil {
		return nil, fmt.Errorf("decode x: %w", err)
	}
	y, err := base64.RawURLEncoding.DecodeString(jwk.Y)
	if err != nil {
		return nil, fmt.Errorf("decode y: %w", err)
	}
	return &ecdsa.PublicKey{
		Curve: elliptic.P256(),
		X:     new(big.Int).SetBytes(x),
		Y:     new(big.Int).SetBytes(y),
	}, nil
}
