package server

import (
	"net/http"

	"solarintake/pkg/types"

	"github.com/sirupsen/logrus"
)

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Service) handleHome(w http.ResponseWriter, r *http.Request) {
	data := types.FormPageData{
		BasePageData: types.BasePageData{
			Title:  "Cadastro de instalação solar",
			Notice: r.URL.Query().Get("notice"),
			Error:  r.URL.Query().Get("error"),
		},
		RoofStructures: types.RoofStructures,
		RoofCoverings:  types.RoofCoverings,
	}

	if draft, err := s.draftFromRequest(r); err == nil {
		data.Form = draft.Snapshot()
	}

	if err := s.renderTemplate(w, "page.form", data); err != nil {
		s.logger.WithError(err).Error("failed to render form page")
		s.internalServerError(w)
		return
	}
}

type createDraftResponse struct {
	ID string `json:"id"`
}

func (s *Service) handleCreateDraft(w http.ResponseWriter, r *http.Request) {
	draft := s.drafts.Create()

	encoded, err := s.cookie.Encode(s.config.CookieName, draft.ID())
	if err != nil {
		s.logger.WithError(err).Error("failed to encode draft cookie")
		s.drafts.Delete(draft.ID())
		s.internalServerError(w)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     s.config.CookieName,
		Value:    encoded,
		HttpOnly: true,
		Secure:   s.config.Environment != "development",
		SameSite: http.SameSiteLaxMode,
		MaxAge:   s.config.DraftMaxAgeSec,
		Path:     "/",
	})

	s.logger.WithField("draft_id", draft.ID()).Info("draft created")

	s.writeJSON(w, http.StatusCreated, createDraftResponse{ID: draft.ID()})
}

func (s *Service) handleGetForm(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, draftFromContext(r.Context()).Snapshot())
}

func (s *Service) handleResetForm(w http.ResponseWriter, r *http.Request) {
	draft := draftFromContext(r.Context())
	if err := draft.Reset(); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, draft.Snapshot())
}

type submitResponse struct {
	Receipt *types.SubmissionReceipt `json:"receipt"`
	Form    *types.FormSnapshot      `json:"form"`
}

// handleSubmit assembles the record and hands it to the transport. The form
// stays submitting, rejecting edits, until the transport returns.
func (s *Service) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var ctx = r.Context()
	draft := draftFromContext(ctx)

	record, err := draft.Assemble()
	if err != nil {
		s.writeError(w, err)
		return
	}

	log := s.logger.WithFields(logrus.Fields{
		"draft_id":      draft.ID(),
		"submission_id": record.ID,
		"transport":     s.transport.Name(),
	})

	receipt, err := s.transport.Send(ctx, record)
	if err != nil {
		log.WithError(err).Error("submission failed")
		draft.Abort()
		s.writeError(w, err)
		return
	}

	draft.Complete(receipt)
	log.Info("submission accepted")

	s.writeJSON(w, http.StatusOK, submitResponse{Receipt: receipt, Form: draft.Snapshot()})
}
