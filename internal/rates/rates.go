// Package rates converts amounts between currencies through a pluggable
// Provider.
package rates

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/myrizq/rizq/internal/model"
)

var (
	// ErrConversion matches every *ConversionError.
	ErrConversion = errors.New("currency conversion failed")

	// ErrNoRate is returned by providers that do not know a pair.
	ErrNoRate = errors.New("no exchange rate")
)

// Provider returns how many units of to one unit of from buys.
type Provider interface {
	Rate(ctx context.Context, from, to string) (decimal.Decimal, error)
}

// ConversionError reports a failed conversion of one amount.
type ConversionError struct {
	From string
	To   string
	Err  error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("converting %s to %s: %v", e.From, e.To, e.Err)
}

func (e *ConversionError) Unwrap() error { return e.Err }

func (e *ConversionError) Is(target error) bool { return target == ErrConversion }

// Convert expresses amount (in from) in to, rounded to cents.
func Convert(ctx context.Context, p Provider, amount model.Money, from, to string) (model.Money, error) {
	if from == to {
		return amount, nil
	}
	r, err := p.Rate(ctx, from, to)
	if err != nil {
		return decimal.Zero, &ConversionError{From: from, To: to, Err: err}
	}
	return amount.Mul(r).Round(2), nil
}

// Static serves rates from a fixed table of values in Base.
type Static struct {
	Base  string
	Table map[string]decimal.Decimal // units of Base per unit of currency
}

// NewStatic builds a Static provider. Currency codes are upper-cased.
func NewStatic(base string, table map[string]decimal.Decimal) *Static {
	t := make(map[string]decimal.Decimal, len(table))
	for code, v := range table {
		t[strings.ToUpper(code)] = v
	}
	return &Static{Base: strings.ToUpper(base), Table: t}
}

// Rate implements Provider.
func (s *Static) Rate(_ context.Context, from, to string) (decimal.Decimal, error) {
	if from == to {
		return decimal.NewFromInt(1), nil
	}
	f, ok := s.inBase(from)
	if !ok {
		return decimal.Zero, fmt.Errorf("%w for %s", ErrNoRate, from)
	}
	t, ok := s.inBase(to)
	if !ok {
		return decimal.Zero, fmt.Errorf("%w for %s", ErrNoRate, to)
	}
	return f.Div(t), nil
}

func (s *Static) inBase(code string) (decimal.Decimal, bool) {
	if code == s.Base {
		return decimal.NewFromInt(1), true
	}
	v, ok := s.Table[code]
	if !ok || !v.IsPositive() {
		return decimal.Zero, false
	}
	return v, true
}

// Timeout bounds every call to the wrapped provider, even one that ignores
// its context.
type Timeout struct {
	Provider Provider
	Limit    time.Duration
}

// Rate implements Provider.
func (t Timeout) Rate(ctx context.Context, from, to string) (decimal.Decimal, error) {
	ctx, cancel := context.WithTimeout(ctx, t.Limit)
	defer cancel()

	type result struct {
		rate decimal.Decimal
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		r, err := t.Provider.Rate(ctx, from, to)
		ch <- result{r, err}
	}()

	select {
	case res := <-ch:
		return res.rate, res.err
	case <-ctx.Done():
		return decimal.Zero, fmt.Errorf("rate %s/%s: %w", from, to, ctx.Err())
	}
}
