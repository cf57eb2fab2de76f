package domain

import "github.com/shopspring/decimal"

// MaxQuantity caps a single cart line so line totals stay inside the order
// amount columns.
const MaxQuantity = 99

// ClampQuantity bounds q to [1, MaxQuantity].
func ClampQuantity(q int) int {
	return min(max(q, 1), MaxQuantity)
}

// CartLine is one stored product/quantity pair of a session cart.
type CartLine struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

// CartLines is an insertion-ordered product -> quantity mapping.
type CartLines []CartLine

func (l CartLines) Get(productID int64) (int, bool) {
	for _, line := range l {
		if line.ProductID == productID {
			return line.Quantity, true
		}
	}
	return 0, false
}

// Set overwrites the quantity in place or appends a new line at the end.
func (l CartLines) Set(productID int64, quantity int) CartLines {
	for i := range l {
		if l[i].ProductID == productID {
			l[i].Quantity = quantity
			return l
		}
	}
	return append(l, CartLine{ProductID: productID, Quantity: quantity})
}

func (l CartLines) Delete(productID int64) CartLines {
	out := make(CartLines, 0, len(l))
	for _, line := range l {
		if line.ProductID != productID {
			out = append(out, line)
		}
	}
	return out
}

func (l CartLines) ProductIDs() []int64 {
	ids := make([]int64, len(l))
	for i, line := range l {
		ids[i] = line.ProductID
	}
	return ids
}

type CartEntry struct {
	Product  Product
	Quantity int
}

func (e CartEntry) TotalPrice() decimal.Decimal {
	return e.Product.Price.Mul(decimal.NewFromInt(int64(e.Quantity)))
}

// Cart is the priced view of a session cart. It is rebuilt on every read.
type Cart struct {
	Entries []CartEntry
}

func (c *Cart) TotalQuantity() int {
	total := 0
	for _, e := range c.Entries {
		total += e.Quantity
	}
	return total
}

func (c *Cart) TotalAmount() decimal.Decimal {
	total := decimal.Zero
	for _, e := range c.Entries {
		total = total.Add(e.TotalPrice())
	}
	return total
}

func (c *Cart) IsEmpty() bool {
	return len(c.Entries) == 0
}

func (c *Cart) Find(productID int64) (CartEntry, bool) {
	for _, e := range c.Entries {
		if e.Product.ID == productID {
			return e, true
		}
	}
	return CartEntry{}, false
}

// CartSnapshotItem is the audit copy of a cart line stored on the order.
type CartSnapshotItem struct {
	ProductID   int64  `json:"product_id"`
	ProductName string `json:"product_name"`
	Quantity    int    `json:"quantity"`
	UnitPrice   string `json:"unit_price"`
}
