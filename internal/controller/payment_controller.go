package controller

import (
	"net/http"

	appPayment "github.com/cassiomorais/storefront/internal/application/payment"
)

type PaymentController struct {
	createPayment   *appPayment.CreatePaymentUseCase
	getPayment      *appPayment.GetPaymentUseCase
	completePayment *appPayment.CompletePaymentUseCase
	failPayment     *appPayment.FailPaymentUseCase
}

func NewPaymentController(
	createPayment *appPayment.CreatePaymentUseCase,
	getPayment *appPayment.GetPaymentUseCase,
	completePayment *appPayment.CompletePaymentUseCase,
	failPayment *appPayment.FailPaymentUseCase,
) *PaymentController {
	return &PaymentController{
		createPayment:   createPayment,
		getPayment:      getPayment,
		completePayment: completePayment,
		failPayment:     failPayment,
	}
}

func (c *PaymentController) Create(w http.ResponseWriter, r *http.Request) {
	var req CreatePaymentRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	p, err := c.createPayment.Execute(r.Context(), appPayment.CreatePaymentRequest{
		OrderID: req.OrderID,
		Method:  req.Method,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, FromPayment(p))
}

func (c *PaymentController) Get(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, err)
		return
	}

	p, err := c.getPayment.Execute(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, FromPayment(p))
}

// Complete marks the payment successful and enqueues invoice generation
// in the same transaction. Stands in for the payment provider's webhook.
func (c *PaymentController) Complete(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, err)
		return
	}

	p, err := c.completePayment.Execute(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, FromPayment(p))
}

func (c *PaymentController) Fail(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, err)
		return
	}

	p, err := c.failPayment.Execute(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, FromPayment(p))
}
