package room

import (
	"net/http"

	"github.com/sirupsen/logrus"

	"hav/internal/ledger"
	"hav/internal/models"
	"hav/internal/utils"
)

// OwnerHandler handles GET /room/owner?address=
type OwnerHandler struct {
	Ledger *ledger.Ledger
	Log    logrus.FieldLogger
}

func (h *OwnerHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	query := ledger.ZeroAddress
	if s := r.URL.Query().Get("address"); s != "" {
		a, ok := parseAddress(w, "address", s)
		if !ok {
			return
		}
		query = a
	}
	owner, err := h.Ledger.ViewOwner(query)
	if err != nil {
		writeRevert(w, h.Log, err)
		return
	}
	utils.JSON(w, http.StatusOK, utils.APIResponse{Success: true, Data: map[string]ledger.Address{"owner": owner}})
}

// StateHandler handles GET /room
type StateHandler struct {
	Ledger *ledger.Ledger
}

func (h *StateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	utils.JSON(w, http.StatusOK, utils.APIResponse{Success: true, Data: models.RoomFrom(h.Ledger.Snapshot())})
}

type AdmitRequest struct {
	Password string `json:"password"`
}

// AdmitHandler handles POST /room/admit
type AdmitHandler struct {
	Ledger *ledger.Ledger
	Log    logrus.FieldLogger
}

func (h *AdmitHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	sender, ok := caller(w, r)
	if !ok {
		return
	}
	var req AdmitRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.Ledger.Admit(sender, req.Password); err != nil {
		writeRevert(w, h.Log, err)
		return
	}
	utils.JSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Admitted"})
}
