package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"hav/internal/accounts"
	"hav/internal/ledger"
	"hav/internal/utils"
)

// TokenHandler issues a bearer token that makes the holder the sender of
// subsequent ledger calls. Only known accounts can get a token.
type TokenHandler struct {
	Accounts  accounts.Store
	JWTSecret string
	JWTTTLHrs int
	Log       logrus.FieldLogger
}

type TokenRequest struct {
	Address string `json:"address"`
}

type TokenResponse struct {
	Token   string         `json:"token"`
	Address ledger.Address `json:"address"`
	Label   string         `json:"label"`
}

// ServeHTTP handles POST /auth/token
func (h *TokenHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req TokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Fail(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	addr, err := ledger.ParseAddress(req.Address)
	if err != nil {
		utils.Fail(w, http.StatusBadRequest, err.Error())
		return
	}

	acc, err := h.Accounts.Get(r.Context(), addr)
	if errors.Is(err, accounts.ErrNotFound) {
		utils.Fail(w, http.StatusUnauthorized, "unknown account")
		return
	} else if err != nil {
		h.Log.WithError(err).Error("account lookup")
		utils.Fail(w, http.StatusInternalServerError, "Database error")
		return
	}

	token, err := utils.GenerateJWT(acc.Address.String(), h.JWTSecret, h.JWTTTLHrs)
	if err != nil {
		utils.Fail(w, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	utils.JSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Token issued",
		Data:    TokenResponse{Token: token, Address: acc.Address, Label: acc.Label},
	})
}
