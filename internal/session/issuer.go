// Package session は署名付きセッショントークンの発行と検証を行う。
// セッションはサーバー側に保存せず、失効ストアも持たない。
package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTTL はセッションの既定有効期間。
const DefaultTTL = time.Hour

var (
	// ErrExpired はセッションの有効期限切れを表す。
	ErrExpired = errors.New("session expired")
	// ErrInvalid は署名不正・形式不正なセッションを表す。
	ErrInvalid = errors.New("invalid session")
)

// Claims はセッショントークンのクレーム。
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"uid"`
}

// Issuer はHS256でセッショントークンを発行・検証する。
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewIssuer はIssuerを生成する。ttlが0以下の場合はDefaultTTLを使用する。
func NewIssuer(secret string, ttl time.Duration) *Issuer {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Issuer{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// TTL はセッションの有効期間を返す。
func (i *Issuer) TTL() time.Duration {
	return i.ttl
}

// Issue はアカウントIDに対するセッショントークンを発行する。
func (i *Issuer) Issue(accountID string) (string, time.Time, error) {
	now := i.now()
	expiresAt := now.Add(i.ttl)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accountID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		UserID: accountID,
	})

	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign session token: %w", err)
	}
	return signed, expiresAt, nil
}

// Verify はセッショントークンを検証し、アカウントIDを返す。
func (i *Issuer) Verify(tokenString string) (string, error) {
	if tokenString == "" {
		return "", ErrInvalid
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (interface{}, error) {
			return i.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if errors.Is(err, jwt.ErrTokenExpired) {
		return "", ErrExpired
	}
	if err != nil || !token.Valid {
		return "", ErrInvalid
	}

	accountID := claims.UserID
	if accountID == "" {
		accountID = claims.Subject
	}
	if accountID == "" {
		return "", ErrInvalid
	}
	return accountID, nil
}
