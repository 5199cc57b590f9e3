// Package catalog decodes and validates the key→{price, quantity} document a
// machine is stocked from. A catalog either loads completely or not at all.
package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/rl1809/vending-machine/internal/core/domain"
)

var (
	ErrInvalidResource   = errors.New("catalog resource unavailable")
	ErrConversionFailure = errors.New("catalog is not a key to item mapping")
	ErrMissingField      = errors.New("catalog entry missing field")
	ErrInvalidEntry      = errors.New("catalog entry out of range")
)

// Entry is one undecoded catalog row. Nil fields mean the field was absent.
type Entry struct {
	Price    *decimal.Decimal `json:"price" validate:"required"`
	Quantity *int             `json:"quantity" validate:"required,gte=0"`
}

var validate = func() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		return name
	})
	return v
}()

// Decode reads a JSON catalog document.
func Decode(r io.Reader) (domain.Catalog, error) {
	var raw map[string]json.RawMessage
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConversionFailure, err)
	}
	entries, err := ParseEntries(raw)
	if err != nil {
		return nil, err
	}
	return Build(entries)
}

// ParseEntries decodes each raw value into an Entry.
func ParseEntries(raw map[string]json.RawMessage) (map[string]Entry, error) {
	entries := make(map[string]Entry, len(raw))
	for key, value := range raw {
		var e Entry
		if err := json.Unmarshal(value, &e); err != nil {
			return nil, fmt.Errorf("%w: entry %q: %v", ErrConversionFailure, key, err)
		}
		entries[key] = e
	}
	return entries, nil
}

// Build validates entries and converts them into a domain catalog. Keys are
// visited in sorted order so the reported error is deterministic.
func Build(entries map[string]Entry) (domain.Catalog, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: no entries", ErrConversionFailure)
	}

	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	catalog := make(domain.Catalog, len(entries))
	for _, key := range keys {
		selection, err := domain.ParseSelection(key)
		if err != nil {
			return nil, err
		}

		e := entries[key]
		if err := validateEntry(key, e); err != nil {
			return nil, err
		}

		catalog[selection] = domain.Item{Price: *e.Price, Quantity: *e.Quantity}
	}
	return catalog, nil
}

func validateEntry(key string, e Entry) error {
	if err := validate.Struct(e); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
			return fmt.Errorf("validate entry %q: %w", key, err)
		}
		fe := fieldErrs[0]
		if fe.Tag() == "required" {
			return fmt.Errorf("%w: %q has no %s", ErrMissingField, key, fe.Field())
		}
		return fmt.Errorf("%w: %q %s fails %s=%s", ErrInvalidEntry, key, fe.Field(), fe.Tag(), fe.Param())
	}
	if !e.Price.IsPositive() {
		return fmt.Errorf("%w: %q price %s must be positive", ErrInvalidEntry, key, e.Price)
	}
	return nil
}
