package room

import (
	"net/http"

	"github.com/sirupsen/logrus"

	"hav/internal/ledger"
	"hav/internal/models"
	"hav/internal/utils"
)

type DelegateRequest struct {
	Delegate string `json:"delegate"`
}

// DelegateHandler handles POST /room/approve and POST /room/revoke.
type DelegateHandler struct {
	Ledger *ledger.Ledger
	Revoke bool
	Log    logrus.FieldLogger
}

func (h *DelegateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	sender, ok := caller(w, r)
	if !ok {
		return
	}
	var req DelegateRequest
	if !decode(w, r, &req) {
		return
	}
	delegate, ok := parseAddress(w, "delegate", req.Delegate)
	if !ok {
		return
	}

	call := ledger.Call{Sender: sender}
	msg := "Delegate approved"
	var err error
	if h.Revoke {
		msg = "Delegate revoked"
		err = h.Ledger.Revoke(call, delegate)
	} else {
		err = h.Ledger.Approve(call, delegate)
	}
	if err != nil {
		writeRevert(w, h.Log, err)
		return
	}
	utils.JSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: msg, Data: models.RoomFrom(h.Ledger.Snapshot())})
}
