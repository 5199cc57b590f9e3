package domain

import (
	"sync"

	"github.com/shopspring/decimal"
)

// Machine holds the catalog and deposited balance of one vending machine.
// All operations are serialized so a vend's check-then-commit is atomic.
type Machine struct {
	mu      sync.Mutex
	catalog Catalog
	balance decimal.Decimal
}

// NewMachine takes a private copy of catalog.
func NewMachine(catalog Catalog, initialBalance decimal.Decimal) *Machine {
	if initialBalance.IsNegative() {
		initialBalance = decimal.Zero
	}
	return &Machine{
		catalog: catalog.Clone(),
		balance: initialBalance,
	}
}

// Deposit returns the balance right after amount was added.
func (m *Machine) Deposit(amount decimal.Decimal) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.balance = m.balance.Add(amount)
	return m.balance, nil
}

func (m *Machine) Balance() decimal.Decimal {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.balance
}

// Lookup never mutates state.
func (m *Machine) Lookup(selection Selection) (Item, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	item, ok := m.catalog[selection]
	return item, ok
}

// Quote returns the price of quantity units without checking stock or funds.
func (m *Machine) Quote(selection Selection, quantity int) (decimal.Decimal, error) {
	item, ok := m.Lookup(selection)
	if !ok {
		return decimal.Zero, ErrInvalidSelection
	}
	if quantity <= 0 {
		return decimal.Zero, ErrInvalidQuantity
	}
	return item.Price.Mul(decimal.NewFromInt(int64(quantity))), nil
}

// Vend checks selection, then stock, then funds. The first failing check
// decides the error and nothing is mutated.
func (m *Machine) Vend(selection Selection, quantity int) (Sale, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	item, ok := m.catalog[selection]
	if !ok {
		return Sale{}, ErrInvalidSelection
	}
	if quantity <= 0 {
		return Sale{}, ErrInvalidQuantity
	}
	if item.Quantity < quantity {
		return Sale{}, ErrOutOfStock
	}

	total := item.Price.Mul(decimal.NewFromInt(int64(quantity)))
	if m.balance.LessThan(total) {
		return Sale{}, &InsufficientFundsError{Required: total.Sub(m.balance)}
	}

	m.balance = m.balance.Sub(total)
	item.Quantity -= quantity
	m.catalog[selection] = item

	return Sale{
		Selection:    selection,
		Quantity:     quantity,
		UnitPrice:    item.Price,
		Total:        total,
		BalanceAfter: m.balance,
	}, nil
}

// Snapshot lists stocked selections in display order.
func (m *Machine) Snapshot() []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entries := make([]Entry, 0, len(m.catalog))
	for _, s := range Selections() {
		if item, ok := m.catalog[s]; ok {
			entries = append(entries, Entry{Selection: s, Item: item})
		}
	}
	return entries
}
