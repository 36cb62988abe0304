package checkout

import (
	"errors"
	"sort"
	"strings"
)

var (
	ErrAuthRequired       = errors.New("login required to check out")
	ErrEmptyCart          = errors.New("cart is empty, nothing to checkout")
	ErrCheckoutInProgress = errors.New("checkout already in progress")
	ErrOrderFailed        = errors.New("order could not be placed, please retry")
	ErrIllegalTransition  = errors.New("illegal transition of checkout status")
)

// ValidationError lists the checkout form fields that failed validation,
// keyed by field name.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+": "+e.Fields[name])
	}
	return "invalid checkout form: " + strings.Join(parts, "; ")
}
