package httppresentation

import (
	"errors"
	"net/http"

	apppurchase "github.com/Zhima-Mochi/vending-machine/internal/application/purchase"
	domproduct "github.com/Zhima-Mochi/vending-machine/internal/domain/product"
	domsession "github.com/Zhima-Mochi/vending-machine/internal/domain/session"
)

const (
	codeBadRequest       = "BAD_REQUEST"
	codeMethodNotAllowed = "METHOD_NOT_ALLOWED"
	codeProductNotFound  = "PRODUCT_NOT_FOUND"
	codeSlotTaken        = "SLOT_TAKEN"
	codeInvalidProduct   = "INVALID_PRODUCT"
)

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Paid    *int64 `json:"paid,omitempty"`
	Price   *int64 `json:"price,omitempty"`
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: code, Message: message})
}

// writeDomainError maps use case failures to a status and a client-facing code.
// Infrastructure failures are reported without their cause.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domproduct.ErrNotFound):
		writeError(w, http.StatusNotFound, codeProductNotFound, err.Error())
		return
	case errors.Is(err, domproduct.ErrSlotTaken):
		writeError(w, http.StatusBadRequest, codeSlotTaken, "Slot number already exists")
		return
	case errors.Is(err, domproduct.ErrInvalidName),
		errors.Is(err, domproduct.ErrInvalidPrice),
		errors.Is(err, domproduct.ErrInvalidStock):
		writeError(w, http.StatusBadRequest, codeInvalidProduct, err.Error())
		return
	}

	code := apppurchase.ErrorCode(err)
	if code == apppurchase.CodeInternal {
		writeError(w, http.StatusInternalServerError, code, "internal error")
		return
	}

	body := errorResponse{Error: code, Message: err.Error()}
	var insufficient *domsession.InsufficientPaymentError
	if errors.As(err, &insufficient) {
		body.Paid = &insufficient.Paid
		body.Price = &insufficient.Price
	}
	writeJSON(w, http.StatusBadRequest, body)
}
