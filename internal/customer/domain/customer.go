package domain

import (
	"errors"
	"time"
)

// ErrCustomerNotFound is returned when an identity does not resolve to a
// registered customer. A plain user account without a customer record cannot
// check out.
var ErrCustomerNotFound = errors.New("customer not found")

// Customer is a registered buyer. Phones is the ordered list of contact
// numbers; a number appears at most once per customer.
type Customer struct {
	ID        string
	Name      string
	Email     string
	Address   string
	Phones    []string
	CreatedAt time.Time
}
