package controller

import (
	"net/http"

	"github.com/cassiomorais/storefront/internal/application/catalog"
	"github.com/cassiomorais/storefront/internal/domain/product"
)

// CatalogController serves the product and customer endpoints.
type CatalogController struct {
	catalog *catalog.Service
}

func NewCatalogController(svc *catalog.Service) *CatalogController {
	return &CatalogController{catalog: svc}
}

func (c *CatalogController) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req CreateProductRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	p, err := c.catalog.CreateProduct(r.Context(), catalog.CreateProductRequest{
		Name:          req.Name,
		Description:   req.Description,
		PriceCents:    floatToCents(req.Price),
		StockQuantity: req.StockQuantity,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, FromProduct(p))
}

func (c *CatalogController) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, err)
		return
	}

	p, err := c.catalog.GetProduct(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, FromProduct(p))
}

func (c *CatalogController) ListProducts(w http.ResponseWriter, r *http.Request) {
	filter := product.ListFilter{
		InStockOnly: r.URL.Query().Get("in_stock") == "true",
		Limit:       queryInt(r, "limit", 50),
		Offset:      queryInt(r, "offset", 0),
	}

	products, err := c.catalog.ListProducts(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := make([]*ProductResponse, 0, len(products))
	for _, p := range products {
		resp = append(resp, FromProduct(p))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (c *CatalogController) CreateCustomer(w http.ResponseWriter, r *http.Request) {
	var req CreateCustomerRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	cust, err := c.catalog.CreateCustomer(r.Context(), catalog.CreateCustomerRequest{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       req.Email,
		PhoneNumber: req.PhoneNumber,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, FromCustomer(cust))
}

func (c *CatalogController) GetCustomer(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, err)
		return
	}

	cust, err := c.catalog.GetCustomer(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, FromCustomer(cust))
}

func (c *CatalogController) ListCustomers(w http.ResponseWriter, r *http.Request) {
	customers, err := c.catalog.ListCustomers(r.Context(), queryInt(r, "limit", 50), queryInt(r, "offset", 0))
	if err != nil {
		writeError(w, err)
		return
	}

	resp := make([]*CustomerResponse, 0, len(customers))
	for _, cust := range customers {
		resp = append(resp, FromCustomer(cust))
	}
	writeJSON(w, http.StatusOK, resp)
}
