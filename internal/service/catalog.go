package service

import (
	"context"
	"math"
	"strconv"
	"strings"

	"storefront/internal/models"
	"storefront/internal/util"
	"storefront/internal/validation"

	"go.uber.org/zap"
)

// Aliases accepted for each product field in stored records, in priority order
var (
	productIDKeys       = []string{"id", "codigo", "code", "nombre", "name"}
	productNameKeys     = []string{"name", "nombre", "title"}
	productPriceKeys    = []string{"price", "precio"}
	productCategoryKeys = []string{"category", "categoria", "categoryName"}
	productAttrKeys     = []string{"attr", "atributo", "attributes"}
	productImageKeys    = []string{"img", "image", "imagen", "picture"}
	productStockKeys    = []string{"stock"}
	productCriticalKeys = []string{"critical_stock", "stockCritico"}
	productDescKeys     = []string{"description", "descripcion", "longDesc"}
)

// CatalogService owns the product catalog
type CatalogService struct {
	state  *State
	logger *zap.Logger
}

// NewCatalogService creates a new catalog service
func NewCatalogService(state *State) *CatalogService {
	return &CatalogService{
		state:  state,
		logger: util.GetLogger(),
	}
}

// List returns a copy of the catalog in display order
func (c *CatalogService) List(ctx context.Context) []models.Product {
	c.state.mu.Lock()
	defer c.state.mu.Unlock()

	out := make([]models.Product, len(c.state.products))
	copy(out, c.state.products)
	return out
}

// Get returns the product with the given id
func (c *CatalogService) Get(ctx context.Context, id string) (models.Product, bool) {
	c.state.mu.Lock()
	defer c.state.mu.Unlock()

	p, _, ok := c.state.findProduct(strings.TrimSpace(id))
	return p, ok
}

// Upsert replaces the product with the same id or appends a new one
func (c *CatalogService) Upsert(ctx context.Context, p models.Product) (models.Product, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.Upsert")
	defer span.End()

	p = sanitizeProduct(p)
	errs := validation.Errors{}
	if p.ID == "" {
		errs.Add("id", "Product code is required")
	}
	if p.Name == "" {
		errs.Add("name", "Product name is required")
	}
	if !errs.Empty() {
		return models.Product{}, errs
	}

	c.state.mu.Lock()
	defer c.state.mu.Unlock()

	if _, i, ok := c.state.findProduct(p.ID); ok {
		c.state.products[i] = p
	} else {
		c.state.products = append(c.state.products, p)
	}
	c.state.saveProducts(ctx)
	c.state.pruneCart(ctx)

	c.logger.Info("Product saved",
		zap.String("product_id", p.ID),
		zap.Int("stock", p.Stock))
	return p, nil
}

// Remove deletes the product and prunes it from the cart.
// It reports whether the product existed.
func (c *CatalogService) Remove(ctx context.Context, id string) bool {
	ctx, span := util.StartSpan(ctx, "CatalogService.Remove")
	defer span.End()

	c.state.mu.Lock()
	defer c.state.mu.Unlock()

	_, i, ok := c.state.findProduct(strings.TrimSpace(id))
	if !ok {
		return false
	}
	c.state.products = append(c.state.products[:i:i], c.state.products[i+1:]...)
	c.state.saveProducts(ctx)
	c.state.pruneCart(ctx)

	c.logger.Info("Product removed", zap.String("product_id", id))
	return true
}

// NormalizeProduct converts a stored record of any known shape into a
// product. Records without an identifier are rejected.
func NormalizeProduct(raw map[string]interface{}) (models.Product, bool) {
	id := strings.TrimSpace(firstString(raw, productIDKeys...))
	if id == "" {
		return models.Product{}, false
	}

	name := firstString(raw, productNameKeys...)
	if name == "" {
		name = id
	}

	return sanitizeProduct(models.Product{
		ID:            id,
		Name:          name,
		Price:         int64(firstNumber(raw, productPriceKeys...)),
		Category:      firstString(raw, productCategoryKeys...),
		Attr:          firstString(raw, productAttrKeys...),
		Image:         firstString(raw, productImageKeys...),
		Stock:         int(firstNumber(raw, productStockKeys...)),
		CriticalStock: int(firstNumber(raw, productCriticalKeys...)),
		Description:   firstString(raw, productDescKeys...),
	}), true
}

func sanitizeProduct(p models.Product) models.Product {
	p.ID = strings.TrimSpace(p.ID)
	p.Name = strings.TrimSpace(p.Name)
	p.Price = max(0, p.Price)
	p.Stock = max(0, p.Stock)
	p.CriticalStock = max(0, p.CriticalStock)
	if p.Image != "" && !strings.HasPrefix(p.Image, "/") && !strings.Contains(p.Image, "://") {
		p.Image = "/" + p.Image
	}
	return p
}

// mergeCatalog overlays normalized stored records on the seed by id. Seed
// order is kept and products unknown to the seed are appended.
func mergeCatalog(base []models.Product, raw []map[string]interface{}) []models.Product {
	merged := make([]models.Product, len(base))
	copy(merged, base)

	index := make(map[string]int, len(merged))
	for i, p := range merged {
		index[p.ID] = i
	}

	for _, r := range raw {
		p, ok := NormalizeProduct(r)
		if !ok {
			continue
		}
		if i, exists := index[p.ID]; exists {
			merged[i] = p
			continue
		}
		index[p.ID] = len(merged)
		merged = append(merged, p)
	}
	return merged
}

func firstString(raw map[string]interface{}, keys ...string) string {
	for _, k := range keys {
		switch v := raw[k].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	return ""
}

// firstNumber coerces the first present alias to a number; unparsable values are 0
func firstNumber(raw map[string]interface{}, keys ...string) float64 {
	for _, k := range keys {
		v, ok := raw[k]
		if !ok || v == nil {
			continue
		}
		var f float64
		switch n := v.(type) {
		case float64:
			f = n
		case string:
			parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
			if err != nil {
				return 0
			}
			f = parsed
		case bool:
			if n {
				f = 1
			}
		default:
			return 0
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return 0
		}
		return f
	}
	return 0
}
