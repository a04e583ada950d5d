package httppresentation

import (
	"net/http"
	"strconv"
	"time"

	domproduct "github.com/Zhima-Mochi/vending-machine/internal/domain/product"
)

type productResponse struct {
	ID       int64  `json:"id"`
	SlotNo   string `json:"slot_no"`
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	Stock    int    `json:"stock"`
	ImageURL string `json:"image_url"`
}

func toProductResponse(p *domproduct.Product) productResponse {
	return productResponse{
		ID:       p.ID,
		SlotNo:   p.Slot,
		Name:     p.Name,
		Price:    p.Price,
		Stock:    p.Stock,
		ImageURL: p.ImageURL,
	}
}

func (h *Handler) handleListProducts(w http.ResponseWriter, r *http.Request) {
	h.listProducts(w, r, false)
}

func (h *Handler) handleListAllProducts(w http.ResponseWriter, r *http.Request) {
	h.listProducts(w, r, true)
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request, includeOutOfStock bool) {
	products, err := h.catalog.ListProducts(r.Context(), includeOutOfStock)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	out := make([]productResponse, 0, len(products))
	for _, p := range products {
		out = append(out, toProductResponse(p))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := productIDFromPath(w, r)
	if !ok {
		return
	}
	p, err := h.catalog.GetProduct(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductResponse(p))
}

type createProductRequest struct {
	Name     string      `json:"name"`
	Price    wholeNumber `json:"price"`
	StockQty wholeNumber `json:"stock_qty"`
	SlotNo   string      `json:"slot_no"`
	ImageURL string      `json:"image_url"`
}

func (h *Handler) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	var req createProductRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}
	p, err := h.catalog.CreateProduct(r.Context(), req.Name, int64(req.Price), int(req.StockQty), req.SlotNo, req.ImageURL)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductResponse(p))
}

// updateProductRequest leaves absent fields unchanged.
type updateProductRequest struct {
	Name     *string      `json:"name"`
	Price    *wholeNumber `json:"price"`
	StockQty *wholeNumber `json:"stock_qty"`
	SlotNo   *string      `json:"slot_no"`
	ImageURL *string      `json:"image_url"`
}

func (req updateProductRequest) patch() domproduct.Patch {
	patch := domproduct.Patch{Name: req.Name, Slot: req.SlotNo, ImageURL: req.ImageURL}
	if req.Price != nil {
		price := int64(*req.Price)
		patch.Price = &price
	}
	if req.StockQty != nil {
		stock := int(*req.StockQty)
		patch.Stock = &stock
	}
	return patch
}

func (h *Handler) handleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := productIDFromPath(w, r)
	if !ok {
		return
	}
	var req updateProductRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}
	p, err := h.catalog.UpdateProduct(r.Context(), id, req.patch())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductResponse(p))
}

type messageResponse struct {
	Message string `json:"message"`
}

func (h *Handler) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := productIDFromPath(w, r)
	if !ok {
		return
	}
	if err := h.catalog.DeleteProduct(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Product deleted successfully"})
}

func productIDFromPath(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "product id must be an integer")
		return 0, false
	}
	return id, true
}

type moneyStockResponse struct {
	Denom    int64  `json:"denom"`
	Quantity int    `json:"quantity"`
	Type     string `json:"type"`
}

func (h *Handler) handleMoneyStock(w http.ResponseWriter, r *http.Request) {
	stocks, err := h.catalog.MoneyStock(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	out := make([]moneyStockResponse, 0, len(stocks))
	for _, s := range stocks {
		out = append(out, moneyStockResponse{Denom: int64(s.Denom), Quantity: s.Quantity, Type: string(s.Kind)})
	}
	writeJSON(w, http.StatusOK, out)
}

type transactionResponse struct {
	ID           int64     `json:"id"`
	ProductID    int64     `json:"product_id"`
	PaidAmount   int64     `json:"paid_amount"`
	ChangeAmount int64     `json:"change_amount"`
	CreatedAt    time.Time `json:"created_at"`
}

func (h *Handler) handleTransactions(w http.ResponseWriter, r *http.Request) {
	txs, err := h.catalog.Transactions(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	out := make([]transactionResponse, 0, len(txs))
	for _, t := range txs {
		out = append(out, transactionResponse{
			ID:           t.ID,
			ProductID:    t.ProductID,
			PaidAmount:   t.PaidAmount,
			ChangeAmount: t.ChangeAmount,
			CreatedAt:    t.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, out)
}
