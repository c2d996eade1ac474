package billing

import (
	"fmt"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/customer"
)

// Client wraps the Stripe API for the premium subscription.
// stripe.Key must be set globally before calling Stripe APIs.
type Client struct {
	priceID string
}

func NewClient(secretKey, priceID string) *Client {
	stripe.Key = secretKey
	return &Client{priceID: priceID}
}

// GetOrCreateCustomer finds an existing Stripe customer by email or creates a
// new one with the local user id in its metadata.
func (c *Client) GetOrCreateCustomer(email string, userID int64) (string, error) {
	params := &stripe.CustomerSearchParams{}
	params.Query = fmt.Sprintf("email:'%s'", email)
	iter := customer.Search(params)
	for iter.Next() {
		return iter.Customer().ID, nil
	}
	if err := iter.Err(); err != nil {
		return "", fmt.Errorf("search customers: %w", err)
	}

	cust, err := customer.New(&stripe.CustomerParams{
		Email: stripe.String(email),
		Metadata: map[string]string{
			"fintrack_user_id": fmt.Sprintf("%d", userID),
		},
	})
	if err != nil {
		return "", fmt.Errorf("create customer: %w", err)
	}
	return cust.ID, nil
}

// CheckoutResult holds the redirect data for a created checkout session.
type CheckoutResult struct {
	URL       string
	SessionID string
}

// CreateCheckoutSession starts a subscription checkout for the premium plan.
// The user id rides in the session metadata so the webhook can find the
// account to upgrade.
func (c *Client) CreateCheckoutSession(customerID string, userID int64, successURL, cancelURL string) (*CheckoutResult, error) {
	params := &stripe.CheckoutSessionParams{
		Customer: stripe.String(customerID),
		Mode:     stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(c.priceID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(successURL),
		CancelURL:  stripe.String(cancelURL),
		Metadata: map[string]string{
			"fintrack_user_id": fmt.Sprintf("%d", userID),
		},
		// Subscription metadata makes customer.subscription.* events carry
		// the user id too.
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: map[string]string{
				"fintrack_user_id": fmt.Sprintf("%d", userID),
			},
		},
	}

	sess, err := session.New(params)
	if err != nil {
		return nil, fmt.Errorf("create checkout session: %w", err)
	}
	return &CheckoutResult{URL: sess.URL, SessionID: sess.ID}, nil
}
