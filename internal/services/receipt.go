package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"ticket-checkout/internal/models"
)

// ErrInvalidReceipt is returned when a receipt token does not grant access to an order
var ErrInvalidReceipt = errors.New("invalid receipt token")

// ReceiptClaims identify the order a receipt token unlocks
type ReceiptClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// ReceiptSigner issues and checks HS256 receipt tokens
type ReceiptSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewReceiptSigner creates a signer; ttl bounds how long an invoice link works
func NewReceiptSigner(secret string, ttl time.Duration) *ReceiptSigner {
	return &ReceiptSigner{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Sign issues a token whose subject is the order number
func (s *ReceiptSigner) Sign(order *models.Order) (string, error) {
	now := s.now()
	claims := &ReceiptClaims{
		Email: order.Customer.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   order.OrderNumber,
			ID:        order.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign receipt: %w", err)
	}
	return signed, nil
}

// Verify checks the token signature, expiry and that it names orderNumber
func (s *ReceiptSigner) Verify(tokenString, orderNumber string) (*ReceiptClaims, error) {
	claims := &ReceiptClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithSubject(orderNumber),
	)
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidReceipt, err)
	}
	return claims, nil
}
