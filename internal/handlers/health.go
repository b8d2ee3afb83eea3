package handlers

import (
	"net/http"

	"hav/internal/utils"
)

func HealthCheck(w http.ResponseWriter, r *http.Request) {
	utils.JSON(w, http.StatusOK, utils.APIResponse{Success: true, Data: map[string]string{"status": "ok"}})
}
