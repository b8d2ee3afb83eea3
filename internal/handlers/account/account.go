package account

import (
	"net/http"

	"github.com/sirupsen/logrus"

	"hav/internal/accounts"
	"hav/internal/middleware"
	"hav/internal/models"
	"hav/internal/utils"
)

// ListHandler handles GET /accounts
type ListHandler struct {
	Accounts accounts.Store
	Log      logrus.FieldLogger
}

func (h *ListHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	all, err := h.Accounts.List(r.Context())
	if err != nil {
		h.Log.WithError(err).Error("list accounts")
		utils.Fail(w, http.StatusInternalServerError, "Database error")
		return
	}
	out := make([]models.Account, 0, len(all))
	for _, a := range all {
		out = append(out, models.AccountFrom(a))
	}
	utils.JSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "accounts fetched", Data: out})
}

// MeHandler handles GET /accounts/me
type MeHandler struct {
	Accounts accounts.Store
	Log      logrus.FieldLogger
}

func (h *MeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	addr, ok := middleware.Caller(r.Context())
	if !ok {
		utils.Fail(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	acc, err := h.Accounts.Get(r.Context(), addr)
	if err != nil {
		h.Log.WithError(err).Warn("account lookup")
		utils.Fail(w, http.StatusNotFound, "Account not found")
		return
	}
	utils.JSON(w, http.StatusOK, utils.APIResponse{Success: true, Data: models.AccountFrom(acc)})
}
