package room

import (
	"net/http"

	"github.com/sirupsen/logrus"

	"hav/internal/ledger"
	"hav/internal/models"
	"hav/internal/utils"
)

// LeaveHandler handles POST /room/leave
type LeaveHandler struct {
	Ledger *ledger.Ledger
	Log    logrus.FieldLogger
}

func (h *LeaveHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	sender, ok := caller(w, r)
	if !ok {
		return
	}
	if err := h.Ledger.Leave(ledger.Call{Sender: sender}); err != nil {
		writeRevert(w, h.Log, err)
		return
	}
	utils.JSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Room vacated", Data: models.RoomFrom(h.Ledger.Snapshot())})
}
