package domain

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// CatalogItem is a purchasable item and its unit price.
type CatalogItem struct {
	Name  string
	Price decimal.Decimal
}

// Catalog is the fixed list of items the restaurant sells. It is read-only
// after construction and safe for concurrent use.
type Catalog struct {
	items  []CatalogItem
	prices map[string]decimal.Decimal
}

// DefaultCatalog returns the restaurant menu.
func DefaultCatalog() *Catalog {
	return MustCatalog([]CatalogItem{
		{Name: "Burger", Price: decimal.NewFromInt(10)},
		{Name: "Fries", Price: decimal.NewFromInt(5)},
		{Name: "Pasta", Price: decimal.NewFromInt(30)},
		{Name: "Pizza", Price: decimal.NewFromInt(25)},
	})
}

func NewCatalog(items []CatalogItem) (*Catalog, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("catalog must contain at least one item")
	}

	c := &Catalog{prices: make(map[string]decimal.Decimal, len(items))}
	for _, item := range items {
		if item.Name == "" {
			return nil, fmt.Errorf("catalog item name is required")
		}
		if _, dup := c.prices[item.Name]; dup {
			return nil, fmt.Errorf("duplicate catalog item %q", item.Name)
		}
		if item.Price.IsNegative() {
			return nil, fmt.Errorf("catalog item %q has negative price", item.Name)
		}
		c.prices[item.Name] = item.Price
		c.items = append(c.items, item)
	}
	return c, nil
}

func MustCatalog(items []CatalogItem) *Catalog {
	c, err := NewCatalog(items)
	if err != nil {
		panic(err)
	}
	return c
}

// Items returns the catalog in menu order.
func (c *Catalog) Items() []CatalogItem {
	out := make([]CatalogItem, len(c.items))
	copy(out, c.items)
	return out
}

func (c *Catalog) Names() []string {
	names := make([]string, len(c.items))
	for i, item := range c.items {
		names[i] = item.Name
	}
	return names
}

func (c *Catalog) Contains(name string) bool {
	_, ok := c.prices[name]
	return ok
}

func (c *Catalog) Price(name string) (decimal.Decimal, error) {
	p, ok := c.prices[name]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrUnknownItem, name)
	}
	return p, nil
}

// Total prices a set of item quantities.
func (c *Catalog) Total(items map[string]int) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, name := range SortedItemNames(items) {
		price, err := c.Price(name)
		if err != nil {
			return decimal.Zero, err
		}
		total = total.Add(price.Mul(decimal.NewFromInt(int64(items[name]))))
	}
	return total, nil
}

// SortedItemNames gives a deterministic iteration order over an item map.
func SortedItemNames(items map[string]int) []string {
	names := make([]string, 0, len(items))
	for name := range items {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// MenuItem is one line of the menu as served to users.
type MenuItem struct {
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
	Count int             `json:"count"`
}

type Menu struct {
	Items []MenuItem `json:"items"`
}
