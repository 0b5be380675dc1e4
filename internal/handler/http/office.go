package http

import (
	"encoding/json"
	"net/http"

	"github.com/cmlabs-hris/ops-portal/internal/domain/office"
	"github.com/cmlabs-hris/ops-portal/internal/handler/http/response"
)

type OfficeHandler interface {
	Get(w http.ResponseWriter, r *http.Request)
	Update(w http.ResponseWriter, r *http.Request)
}

type officeHandlerImpl struct {
	officeService office.OfficeService
}

func NewOfficeHandler(officeService office.OfficeService) OfficeHandler {
	return &officeHandlerImpl{officeService: officeService}
}

// Get implements OfficeHandler.
func (h *officeHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	result, err := h.officeService.GetConfig(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// Update implements OfficeHandler.
func (h *officeHandlerImpl) Update(w http.ResponseWriter, r *http.Request) {
	var req office.UpdateOfficeConfigRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	result, err := h.officeService.UpdateConfig(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Office configuration updated successfully", result)
}
