package handlers

import (
	"net/http"

	"enrollment-portal/http/response"
	"enrollment-portal/models"
	"enrollment-portal/utils"
)

type profileView struct {
	models.ProfileRecord
	FullName string `json:"fullName"`
	Initials string `json:"initials"`
}

// GetProfile GET /api/profiles/{kind}/{id}, kind is students or admins
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	id, err := utils.PathID(r, "id")
	if err != nil {
		response.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	p, err := h.backend.GetProfile(r.Context(), r.PathValue("kind"), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.SuccessResponse(w, http.StatusOK, "Profile retrieved", profileView{
		ProfileRecord: p,
		FullName:      p.FullName(),
		Initials:      p.Initials(),
	})
}
