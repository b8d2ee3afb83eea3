package room

import (
	"net/http"

	"github.com/sirupsen/logrus"

	"hav/internal/accounts"
	"hav/internal/ledger"
	"hav/internal/models"
	"hav/internal/utils"
)

type BookRequest struct {
	Password string `json:"password"`
	Value    string `json:"value"`
}

type BookForRequest struct {
	Recipient string `json:"recipient"`
	Password  string `json:"password"`
	Value     string `json:"value"`
}

// BookHandler handles POST /room/book
type BookHandler struct {
	Ledger   *ledger.Ledger
	Accounts accounts.Store
	Log      logrus.FieldLogger
}

func (h *BookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	sender, ok := caller(w, r)
	if !ok {
		return
	}
	var req BookRequest
	if !decode(w, r, &req) {
		return
	}
	value, ok := parseValue(w, req.Value)
	if !ok {
		return
	}

	call := ledger.Call{Sender: sender, Value: value}
	err := pay(r.Context(), h.Accounts, call, func() error {
		return h.Ledger.Book(call, req.Password)
	})
	if err != nil {
		writePaymentError(w, h.Log, err)
		return
	}
	utils.JSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Room booked", Data: models.RoomFrom(h.Ledger.Snapshot())})
}

// BookForHandler handles POST /room/book-for
type BookForHandler struct {
	Ledger   *ledger.Ledger
	Accounts accounts.Store
	Log      logrus.FieldLogger
}

func (h *BookForHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	sender, ok := caller(w, r)
	if !ok {
		return
	}
	var req BookForRequest
	if !decode(w, r, &req) {
		return
	}
	recipient, ok := parseAddress(w, "recipient", req.Recipient)
	if !ok {
		return
	}
	value, ok := parseValue(w, req.Value)
	if !ok {
		return
	}

	call := ledger.Call{Sender: sender, Value: value}
	err := pay(r.Context(), h.Accounts, call, func() error {
		return h.Ledger.BookFor(call, recipient, req.Password)
	})
	if err != nil {
		writePaymentError(w, h.Log, err)
		return
	}
	utils.JSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Room booked", Data: models.RoomFrom(h.Ledger.Snapshot())})
}
