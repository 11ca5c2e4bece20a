package handlers

import (
	"net/http"

	"enrollment-portal/config"
	"enrollment-portal/http/response"
	"enrollment-portal/services"
)

// Healthz GET /healthz
func Healthz(w http.ResponseWriter, r *http.Request) {
	response.SuccessResponse(w, http.StatusOK, "ok", map[string]interface{}{
		"store":         config.AppConfig.StoreBackend,
		"kafka":         services.IsConnected(),
		"receiptWorker": services.IsConsumerRunning(),
	})
}
