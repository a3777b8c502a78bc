package handlers

import (
	"net/http"

	"github.com/Dosada05/boules-league/middleware"
	"github.com/Dosada05/boules-league/models"
	"github.com/Dosada05/boules-league/services"
	"github.com/go-chi/chi/v5"
)

type RegistrationHandler struct {
	registrationService services.RegistrationService
}

func NewRegistrationHandler(rs services.RegistrationService) *RegistrationHandler {
	return &RegistrationHandler{registrationService: rs}
}

func (h *RegistrationHandler) Register(w http.ResponseWriter, r *http.Request) {
	eventID, err := getIDFromURL(r, "eventID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	var input struct {
		PhoneNumber string `json:"phone_number"`
	}
	// Тело необязательно.
	if r.ContentLength > 0 {
		if err := readJSON(w, r, &input); err != nil {
			badRequestResponse(w, r, err)
			return
		}
	}

	reg, err := h.registrationService.Register(r.Context(), currentUserID, eventID, input.PhoneNumber)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusCreated, jsonResponse{"registration": reg}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *RegistrationHandler) Unregister(w http.ResponseWriter, r *http.Request) {
	eventID, err := getIDFromURL(r, "eventID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	if err := h.registrationService.Unregister(r.Context(), currentUserID, eventID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *RegistrationHandler) ListByEvent(w http.ResponseWriter, r *http.Request) {
	eventID, err := getIDFromURL(r, "eventID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	regs, err := h.registrationService.ListByEvent(r.Context(), eventID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if !middleware.IsAdminFromContext(r.Context()) {
		regs = publicRegistrations(regs)
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"registrations": regs}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// publicRegistrations strips contact details and check-in codes for other players.
func publicRegistrations(regs []*models.Registration) []*models.Registration {
	out := make([]*models.Registration, 0, len(regs))
	for _, reg := range regs {
		pub := &models.Registration{
			ID:            reg.ID,
			EventID:       reg.EventID,
			UserID:        reg.UserID,
			PaymentStatus: reg.PaymentStatus,
			CheckedInAt:   reg.CheckedInAt,
			CreatedAt:     reg.CreatedAt,
		}
		if reg.User != nil {
			pub.User = &models.User{
				ID:              reg.User.ID,
				FirstName:       reg.User.FirstName,
				LastName:        reg.User.LastName,
				Status:          reg.User.Status,
				ProfileImageURL: reg.User.ProfileImageURL,
				CreatedAt:       reg.User.CreatedAt,
			}
		}
		out = append(out, pub)
	}
	return out
}

func (h *RegistrationHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	regs, err := h.registrationService.ListMine(r.Context(), currentUserID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"registrations": regs}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *RegistrationHandler) VerifyCheckIn(w http.ResponseWriter, r *http.Request) {
	reg, err := h.registrationService.VerifyCheckIn(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"registration": reg}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *RegistrationHandler) CheckIn(w http.ResponseWriter, r *http.Request) {
	reg, err := h.registrationService.CheckIn(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"registration": reg}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
