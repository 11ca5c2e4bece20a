package handlers

import (
	"encoding/json"
	"net/http"

	"enrollment-portal/http/response"
	"enrollment-portal/logger"
	"enrollment-portal/services"
	"enrollment-portal/utils"
)

// GetDLQMessages retrieves unresolved DLQ messages
// GET /api/dlq/messages?limit=50
func GetDLQMessages(w http.ResponseWriter, r *http.Request) {
	limit := utils.QueryLimit(r, 50, 500)

	messages, err := services.GetDLQMessages(r.Context(), limit)
	if err != nil {
		logger.Error("Error fetching DLQ messages: %v", err)
		response.ErrorResponse(w, http.StatusInternalServerError, "Failed to fetch DLQ messages: "+err.Error())
		return
	}

	response.SuccessResponse(w, http.StatusOK, "DLQ messages retrieved", map[string]interface{}{
		"count": len(messages),
		"data":  messages,
	})
}

// RetryDLQMessage runs a parked event through its handler again
// POST /api/dlq/messages/{id}/retry
func RetryDLQMessage(w http.ResponseWriter, r *http.Request) {
	messageID := r.PathValue("id")
	if messageID == "" {
		response.ErrorResponse(w, http.StatusBadRequest, "Missing message ID parameter")
		return
	}

	ok, err := services.RetryDLQMessage(r.Context(), messageID)
	if err != nil {
		logger.Error("Error retrying DLQ message %s: %v", messageID, err)
		response.ErrorResponse(w, http.StatusInternalServerError, "Failed to retry message: "+err.Error())
		return
	}

	message := "Message retried successfully"
	if !ok {
		message = "Message retry failed; it stays in the DLQ"
	}
	response.SuccessResponse(w, http.StatusOK, message, map[string]interface{}{
		"messageId": messageID,
		"resolved":  ok,
	})
}

// ResolveDLQMessage marks a DLQ message as resolved
// POST /api/dlq/messages/{id}/resolve  {notes?}
func ResolveDLQMessage(w http.ResponseWriter, r *http.Request) {
	messageID := r.PathValue("id")
	if messageID == "" {
		response.ErrorResponse(w, http.StatusBadRequest, "Missing message ID parameter")
		return
	}

	var req struct {
		Notes string `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Notes == "" {
		req.Notes = "Manually resolved"
	}

	if err := services.ResolveDLQMessage(r.Context(), messageID, req.Notes); err != nil {
		logger.Error("Error resolving DLQ message %s: %v", messageID, err)
		response.ErrorResponse(w, http.StatusInternalServerError, "Failed to resolve message: "+err.Error())
		return
	}

	response.SuccessResponse(w, http.StatusOK, "Message marked as resolved", map[string]interface{}{
		"messageId": messageID,
	})
}
