package domain

import "fmt"

// Selection identifies one vendible product. The set is closed.
type Selection uint8

const (
	SelectionSoda Selection = iota + 1
	SelectionDietSoda
	SelectionChips
	SelectionCookie
	SelectionWrap
	SelectionSandwich
	SelectionCandyBar
	SelectionPopTart
	SelectionWater
	SelectionFruitJuice
	SelectionSportsDrink
	SelectionGum
)

var selectionNames = map[Selection]string{
	SelectionSoda:        "soda",
	SelectionDietSoda:    "dietSoda",
	SelectionChips:       "chips",
	SelectionCookie:      "cookie",
	SelectionWrap:        "wrap",
	SelectionSandwich:    "sandwich",
	SelectionCandyBar:    "candyBar",
	SelectionPopTart:     "popTart",
	SelectionWater:       "water",
	SelectionFruitJuice:  "fruitJuice",
	SelectionSportsDrink: "sportsDrink",
	SelectionGum:         "gum",
}

var selectionsByName = func() map[string]Selection {
	m := make(map[string]Selection, len(selectionNames))
	for s, name := range selectionNames {
		m[name] = s
	}
	return m
}()

// Selections returns every selection in display order.
func Selections() []Selection {
	return []Selection{
		SelectionSoda, SelectionDietSoda, SelectionChips, SelectionCookie,
		SelectionWrap, SelectionSandwich, SelectionCandyBar, SelectionPopTart,
		SelectionWater, SelectionFruitJuice, SelectionSportsDrink, SelectionGum,
	}
}

// ParseSelection maps a catalog key to its Selection.
func ParseSelection(name string) (Selection, error) {
	s, ok := selectionsByName[name]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownSelection, name)
	}
	return s, nil
}

func (s Selection) String() string {
	if name, ok := selectionNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Selection(%d)", uint8(s))
}

// Valid reports whether s is one of the defined selections.
func (s Selection) Valid() bool {
	_, ok := selectionNames[s]
	return ok
}
