package handler

import (
	"net/http"
	"strconv"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/ambarika/storefront/internal/domain/product"
	"github.com/ambarika/storefront/internal/images"
)

type productJSON struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       string `json:"price"`
	Category    string `json:"category"`
	ImageURL    string `json:"imageUrl"`
}

type productUpsertJSON struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category"`
	ImageURL    string          `json:"imageUrl"`
}

func (j productUpsertJSON) validate() error {
	if j.Name == "" || j.Category == "" {
		return errors.New("name and category are required")
	}
	if !j.Price.IsPositive() {
		return errors.New("price must be positive")
	}
	return nil
}

// listProducts handles GET /api/products.
func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.List(r.Context())
	if err != nil {
		writeOrderError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.toProductsJSON(r, products))
}

// listProductsByCategory handles GET /api/products/category/{category}.
func (h *Handler) listProductsByCategory(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.ListByCategory(r.Context(), r.PathValue("category"))
	if err != nil {
		writeOrderError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.toProductsJSON(r, products))
}

// getProduct handles GET /api/products/{id}.
func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	p, err := h.products.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, product.ErrNotFound) {
			writeMessage(w, http.StatusNotFound, "Product not found")
			return
		}
		writeOrderError(w, r, err)
		return
	}

	out := h.toProductsJSON(r, []product.Product{*p})
	writeJSON(w, http.StatusOK, out[0])
}

// createProduct handles POST /api/products (admin).
func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	var req productUpsertJSON
	if err := decode(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid product data")
		return
	}
	if err := req.validate(); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid product data")
		return
	}

	p := &product.Product{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price.Round(2),
		Category:    req.Category,
		ImageURL:    req.ImageURL,
	}
	if err := h.products.Create(r.Context(), p); err != nil {
		writeOrderError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toProductJSON(*p, p.ImageURL))
}

// updateProduct handles PUT /api/products/{id} (admin).
func (h *Handler) updateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	var req productUpsertJSON
	if err := decode(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid product data")
		return
	}
	if err := req.validate(); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid product data")
		return
	}

	p := &product.Product{
		ID:          id,
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price.Round(2),
		Category:    req.Category,
		ImageURL:    req.ImageURL,
	}
	if err := h.products.Update(r.Context(), p); err != nil {
		if errors.Is(err, product.ErrNotFound) {
			writeMessage(w, http.StatusNotFound, "Product not found")
			return
		}
		writeOrderError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toProductJSON(*p, p.ImageURL))
}

// deleteProduct handles DELETE /api/products/{id} (admin). The product is
// soft-deleted: it vanishes from the catalog and price ledger but stays
// resolvable for historical orders.
func (h *Handler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	if err := h.products.SoftDelete(r.Context(), id); err != nil {
		if errors.Is(err, product.ErrNotFound) {
			writeMessage(w, http.StatusNotFound, "Product not found")
			return
		}
		writeOrderError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// toProductsJSON converts products to response shapes, swapping stored
// image URLs for signed ones.
func (h *Handler) toProductsJSON(r *http.Request, products []product.Product) []productJSON {
	urls := make([]string, len(products))
	for i, p := range products {
		urls[i] = p.ImageURL
	}
	signed := images.SignAll(r.Context(), h.signer, urls)

	out := make([]productJSON, len(products))
	for i, p := range products {
		out[i] = toProductJSON(p, signed[i])
	}
	return out
}

func toProductJSON(p product.Product, imageURL string) productJSON {
	return productJSON{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price.StringFixed(2),
		Category:    p.Category,
		ImageURL:    imageURL,
	}
}
