package httppresentation

import (
	"net/http"

	apppurchase "github.com/Zhima-Mochi/vending-machine/internal/application/purchase"
	domsession "github.com/Zhima-Mochi/vending-machine/internal/domain/session"
	"github.com/Zhima-Mochi/vending-machine/internal/domain/till"
)

type productRef struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Price *int64 `json:"price,omitempty"`
}

type selectProductRequest struct {
	ProductID wholeNumber `json:"product_id"`
}

type selectProductResponse struct {
	SessionID      string     `json:"session_id"`
	Product        productRef `json:"product"`
	InsertedAmount int64      `json:"inserted_amount"`
}

func (h *Handler) handleSelectProduct(w http.ResponseWriter, r *http.Request) {
	var req selectProductRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}

	res, err := h.useCases.Select.Execute(r.Context(), apppurchase.SelectProductInput{ProductID: int64(req.ProductID)})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	price := res.Product.Price
	writeJSON(w, http.StatusOK, selectProductResponse{
		SessionID:      res.SessionID,
		Product:        productRef{ID: res.Product.ID, Name: res.Product.Name, Price: &price},
		InsertedAmount: res.Inserted,
	})
}

type insertMoneyRequest struct {
	SessionID string      `json:"session_id"`
	Denom     wholeNumber `json:"denom"`
}

type insertMoneyResponse struct {
	InsertedAmount int64                    `json:"inserted_amount"`
	Price          int64                    `json:"price"`
	Status         domsession.PaymentStatus `json:"status"`
}

func (h *Handler) handleInsertMoney(w http.ResponseWriter, r *http.Request) {
	var req insertMoneyRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}

	res, err := h.useCases.Insert.Execute(r.Context(), apppurchase.InsertMoneyInput{
		SessionID: req.SessionID,
		Denom:     till.Denomination(req.Denom),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, insertMoneyResponse{
		InsertedAmount: res.Inserted,
		Price:          res.Price,
		Status:         res.Status,
	})
}

type confirmRequest struct {
	SessionID string `json:"session_id"`
}

type changeItem struct {
	Denom int64 `json:"denom"`
	Qty   int   `json:"qty"`
}

type confirmResponse struct {
	Status         string       `json:"status"`
	Product        productRef   `json:"product"`
	Paid           int64        `json:"paid"`
	Price          int64        `json:"price"`
	Change         int64        `json:"change"`
	ChangeDetail   []changeItem `json:"change_detail"`
	RemainingStock int          `json:"remaining_stock"`
}

func (h *Handler) handleConfirm(w http.ResponseWriter, r *http.Request) {
	var req confirmRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}

	res, err := h.useCases.Confirm.Execute(r.Context(), apppurchase.ConfirmPurchaseInput{SessionID: req.SessionID})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	detail := make([]changeItem, 0, len(res.ChangeDetail))
	for _, it := range res.ChangeDetail {
		detail = append(detail, changeItem{Denom: int64(it.Denom), Qty: it.Qty})
	}
	writeJSON(w, http.StatusOK, confirmResponse{
		Status:         "SUCCESS",
		Product:        productRef{ID: res.Product.ID, Name: res.Product.Name},
		Paid:           res.Paid,
		Price:          res.Price,
		Change:         res.Change,
		ChangeDetail:   detail,
		RemainingStock: res.RemainingStock,
	})
}
