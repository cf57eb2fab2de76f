package server

import (
	"github.com/OCCASS/rml/internal/domain"
	"github.com/OCCASS/rml/internal/session"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type imageView struct {
	Path string `json:"path"`
	Alt  string `json:"alt"`
}

type productView struct {
	ID          int64       `json:"id"`
	Name        string      `json:"name"`
	Slug        string      `json:"slug"`
	Description string      `json:"description"`
	Price       string      `json:"price"`
	Details     []string    `json:"details"`
	FirstLine   bool        `json:"first_line"`
	MainImage   *imageView  `json:"main_image,omitempty"`
	Images      []imageView `json:"images"`
}

func newProductView(p domain.Product) productView {
	v := productView{
		ID:          p.ID,
		Name:        p.Name,
		Slug:        p.Slug,
		Description: p.Description,
		Price:       p.Price.StringFixed(2),
		Details:     p.Details,
		FirstLine:   p.FirstLine,
		Images:      make([]imageView, 0, len(p.Images)),
	}
	if v.Details == nil {
		v.Details = []string{}
	}
	for _, img := range p.Images {
		v.Images = append(v.Images, imageView{Path: img.ImagePath, Alt: img.AltText})
	}
	if main := p.MainImage(); main != nil {
		v.MainImage = &imageView{Path: main.ImagePath, Alt: main.AltText}
	}
	return v
}

type cartItemView struct {
	Product    productView `json:"product"`
	Quantity   int         `json:"quantity"`
	TotalPrice string      `json:"total_price"`
}

type cartView struct {
	Items         []cartItemView `json:"items"`
	TotalQuantity int            `json:"total_quantity"`
	TotalAmount   string         `json:"total_amount"`
	IsEmpty       bool           `json:"is_empty"`
}

func newCartView(c *domain.Cart) cartView {
	v := cartView{
		Items:         make([]cartItemView, 0, len(c.Entries)),
		TotalQuantity: c.TotalQuantity(),
		TotalAmount:   c.TotalAmount().StringFixed(2),
		IsEmpty:       c.IsEmpty(),
	}
	for _, e := range c.Entries {
		v.Items = append(v.Items, cartItemView{
			Product:    newProductView(e.Product),
			Quantity:   e.Quantity,
			TotalPrice: e.TotalPrice().StringFixed(2),
		})
	}
	return v
}

type orderItemView struct {
	ProductID   *int64 `json:"product_id"`
	ProductName string `json:"product_name"`
	UnitPrice   string `json:"unit_price"`
	Quantity    int    `json:"quantity"`
	LineTotal   string `json:"line_total"`
}

type orderView struct {
	ID          int64           `json:"id"`
	Status      string          `json:"status"`
	PaymentID   string          `json:"payment_id"`
	TotalAmount string          `json:"total_amount"`
	Currency    string          `json:"currency"`
	Items       []orderItemView `json:"items"`
	Summary     string          `json:"summary"`
}

func newOrderView(o *domain.Order) *orderView {
	if o == nil {
		return nil
	}
	v := &orderView{
		ID:          o.ID,
		Status:      o.Status.String(),
		PaymentID:   o.PaymentID,
		TotalAmount: o.TotalAmount.StringFixed(2),
		Currency:    o.Currency,
		Items:       make([]orderItemView, 0, len(o.Items)),
		Summary:     o.HumanReadable(),
	}
	for _, item := range o.Items {
		v.Items = append(v.Items, orderItemView{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			UnitPrice:   item.UnitPrice.StringFixed(2),
			Quantity:    item.Quantity,
			LineTotal:   item.LineTotal().StringFixed(2),
		})
	}
	return v
}

// formatAmount renders whole currency units, rounding half to even.
func formatAmount(d decimal.Decimal) string {
	return d.RoundBank(0).StringFixed(0)
}

// cartPayload is the AJAX answer to cart mutations.
func cartPayload(c *domain.Cart, item *domain.CartEntry) gin.H {
	payload := gin.H{
		"cart": gin.H{
			"total_amount":   formatAmount(c.TotalAmount()),
			"total_quantity": c.TotalQuantity(),
		},
		"is_empty": c.TotalQuantity() == 0,
	}
	if item != nil {
		payload["item"] = gin.H{
			"product_id":  item.Product.ID,
			"quantity":    item.Quantity,
			"total_price": formatAmount(item.TotalPrice()),
		}
	}
	return payload
}

type siteView struct {
	ShopName string `json:"shop_name"`
	Title    string `json:"title"`
	Header   string `json:"header"`
}

// page wraps a handler payload with the site labels and pending flashes.
func (s *Server) page(c *gin.Context, status int, data gin.H) {
	flashes := session.From(c).PopFlashes()
	if flashes == nil {
		flashes = []session.Flash{}
	}
	body := gin.H{
		"site": siteView{
			ShopName: s.cfg.ShopName,
			Title:    s.cfg.SiteTitle,
			Header:   s.cfg.SiteHeader,
		},
		"messages": flashes,
	}
	for k, v := range data {
		body[k] = v
	}
	c.JSON(status, body)
}
