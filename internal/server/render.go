package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"solarintake/internal/attachment"
	"solarintake/internal/cep"
	"solarintake/internal/intake"
	"solarintake/internal/submit"
)

type errorResponse struct {
	Error   string `json:"error"`
	Field   string `json:"field,omitempty"`
	Title   string `json:"title,omitempty"`
	Message string `json:"message,omitempty"`
}

func (s *Service) renderTemplate(w http.ResponseWriter, templateName string, data any) error {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	return s.templates.ExecuteTemplate(w, templateName, data)
}

func (s *Service) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.WithError(err).Error("failed to encode response")
	}
}

func (s *Service) internalServerError(w http.ResponseWriter) {
	s.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
}

// writeError maps domain errors onto status codes. Unknown errors are logged
// and answered with a 500.
func (s *Service) writeError(w http.ResponseWriter, err error) {
	status, body := s.describeError(err)
	if status == http.StatusInternalServerError {
		s.logger.WithError(err).Error("unhandled error")
	}
	s.writeJSON(w, status, body)
}

func (s *Service) describeError(err error) (int, errorResponse) {
	var (
		validationErr *intake.ValidationError
		budgetErr     *attachment.BudgetExceededError
		slotFullErr   *intake.SlotFullError
		transportErr  *submit.TransportError
		maxBytesErr   *http.MaxBytesError
	)

	switch {
	case errors.As(err, &validationErr):
		return http.StatusUnprocessableEntity, errorResponse{
			Error:   "validation_failed",
			Field:   validationErr.Field,
			Title:   validationErr.Title,
			Message: validationErr.Message,
		}
	case errors.As(err, &budgetErr):
		return http.StatusRequestEntityTooLarge, errorResponse{
			Error: "payload_too_large",
			Title: "Arquivos muito grandes",
			Message: fmt.Sprintf("O total dos arquivos (%s) excede o limite de %s. Remova alguns arquivos.",
				attachment.FormatSize(budgetErr.Total), attachment.FormatSize(budgetErr.Limit)),
		}
	case errors.As(err, &maxBytesErr):
		return http.StatusRequestEntityTooLarge, errorResponse{
			Error:   "request_too_large",
			Message: fmt.Sprintf("O envio excede o limite de %s", attachment.FormatSize(maxBytesErr.Limit)),
		}
	case errors.As(err, &slotFullErr):
		return http.StatusConflict, errorResponse{
			Error:   "slot_full",
			Field:   slotFullErr.Field,
			Title:   "Limite de arquivos",
			Message: fmt.Sprintf("Máximo de %d arquivos por campo", slotFullErr.Max),
		}
	case errors.Is(err, intake.ErrSubmissionInProgress):
		return http.StatusConflict, errorResponse{Error: "submission_in_progress", Message: err.Error()}
	case errors.Is(err, intake.ErrBatchInProgress):
		return http.StatusConflict, errorResponse{
			Error:   "upload_in_progress",
			Title:   "Envio de arquivos em andamento",
			Message: "Aguarde o processamento dos arquivos antes de enviar",
		}
	case errors.Is(err, intake.ErrDraftNotFound):
		return http.StatusUnauthorized, errorResponse{Error: "draft_required", Message: "start a draft with POST /forms"}
	case errors.Is(err, intake.ErrAttachmentNotFound),
		errors.Is(err, intake.ErrBeneficiaryNotFound),
		errors.Is(err, intake.ErrUnknownSlot),
		errors.Is(err, intake.ErrUnknownTag),
		errors.Is(err, intake.ErrUnknownAddress),
		errors.Is(err, cep.ErrNotFound):
		return http.StatusNotFound, errorResponse{Error: "not_found", Message: err.Error()}
	case errors.Is(err, intake.ErrInvalidFlag),
		errors.Is(err, intake.ErrBeneficiariesDisabled),
		errors.Is(err, cep.ErrInvalidCode),
		errors.Is(err, errBadRequest):
		return http.StatusBadRequest, errorResponse{Error: "bad_request", Message: err.Error()}
	case errors.As(err, &transportErr):
		return http.StatusBadGateway, errorResponse{Error: "submission_failed", Message: "não foi possível enviar o cadastro, tente novamente"}
	default:
		var lookupErr *cep.LookupError
		if errors.As(err, &lookupErr) {
			return http.StatusBadGateway, errorResponse{Error: "lookup_failed", Message: err.Error()}
		}
		return http.StatusInternalServerError, errorResponse{Error: "internal server error"}
	}
}

var errBadRequest = errors.New("malformed request")

func badRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errBadRequest, fmt.Sprintf(format, args...))
}
