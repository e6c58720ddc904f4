package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/yeremiapane/newrestaurant/apperror"
	"github.com/yeremiapane/newrestaurant/models"
	"github.com/yeremiapane/newrestaurant/utils"
)

// Prompt is what the presentation layer shows before an order is committed.
type Prompt struct {
	Title   string  `json:"title"`
	Message string  `json:"message"`
	Total   float64 `json:"total"`
}

// Confirmer asks the user to approve a prompt.
type Confirmer interface {
	Confirm(ctx context.Context, p Prompt) (bool, error)
}

type ConfirmerFunc func(ctx context.Context, p Prompt) (bool, error)

func (f ConfirmerFunc) Confirm(ctx context.Context, p Prompt) (bool, error) { return f(ctx, p) }

// PaymentSimulator stands in for a payment provider.
type PaymentSimulator interface {
	Charge(ctx context.Context, userID uint, amount float64) error
}

// SimulatedPayment always succeeds after Delay.
type SimulatedPayment struct {
	Delay time.Duration
}

func (p SimulatedPayment) Charge(ctx context.Context, userID uint, amount float64) error {
	if amount <= 0 {
		return apperror.Validation("payment amount must be positive")
	}
	if p.Delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(p.Delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

var ErrCheckoutDeclined = fmt.Errorf("checkout not confirmed: %w", apperror.ErrValidation)

// DeclinedError carries the prompt the user did not approve.
type DeclinedError struct {
	Prompt Prompt
}

func (e *DeclinedError) Error() string { return "checkout was not confirmed" }

func (e *DeclinedError) Unwrap() error { return ErrCheckoutDeclined }

type CheckoutService struct {
	carts    *CartService
	payment  PaymentSimulator
	currency string
}

func NewCheckoutService(carts *CartService, payment PaymentSimulator, currency string) *CheckoutService {
	return &CheckoutService{carts: carts, payment: payment, currency: currency}
}

// Checkout confirms the total with the user, charges the simulated payment and
// marks the cart ordered.
func (s *CheckoutService) Checkout(ctx context.Context, actor *Actor, cartID uint, confirmer Confirmer) (*models.Cart, error) {
	if confirmer == nil {
		return nil, apperror.Validation("a confirmer is required")
	}
	cart, err := s.carts.GetCart(ctx, actor, cartID)
	if err != nil {
		return nil, err
	}
	if cart.Status != models.CartActive {
		return nil, apperror.InvalidState("cart %d has already been ordered", cartID)
	}
	if cart.IsEmpty() {
		return nil, apperror.InvalidState("cannot order an empty cart")
	}

	prompt := Prompt{
		Title:   "Confirm Order",
		Message: fmt.Sprintf("Your total is %s. Proceed to payment?", utils.FormatCurrency(cart.Total, s.currency)),
		Total:   cart.Total,
	}
	ok, err := confirmer.Confirm(ctx, prompt)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &DeclinedError{Prompt: prompt}
	}

	if err := s.payment.Charge(ctx, cart.UserID, cart.Total); err != nil {
		if errors.Is(err, apperror.ErrValidation) {
			return nil, err
		}
		return nil, &apperror.Error{Kind: apperror.ErrInvalidState, Message: "payment failed", Err: err}
	}

	return s.carts.MarkAsOrdered(ctx, actor, cartID)
}
