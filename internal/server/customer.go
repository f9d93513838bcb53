package server

import (
	"net/http"

	"solarintake/internal/intake"
	"solarintake/pkg/types"
)

func (s *Service) decodeForm(r *http.Request, dst any) error {
	if err := r.ParseForm(); err != nil {
		return badRequest("parse form: %v", err)
	}
	if err := decoder.Decode(dst, r.PostForm); err != nil {
		return badRequest("decode form: %v", err)
	}
	return nil
}

func (s *Service) handlePostCustomer(w http.ResponseWriter, r *http.Request) {
	draft := draftFromContext(r.Context())

	var patch intake.CustomerPatch
	if err := s.decodeForm(r, &patch); err != nil {
		s.writeError(w, err)
		return
	}

	if err := draft.UpdateCustomer(patch); err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, draft.Snapshot().Customer)
}

type beneficiaryFlagForm struct {
	Value string `form:"value"`
}

func (s *Service) handlePostBeneficiaryFlag(w http.ResponseWriter, r *http.Request) {
	draft := draftFromContext(r.Context())

	var input beneficiaryFlagForm
	if err := s.decodeForm(r, &input); err != nil {
		s.writeError(w, err)
		return
	}

	if err := draft.SetBeneficiaryFlag(types.BeneficiaryFlag(input.Value)); err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, draft.Snapshot())
}

type beneficiaryForm struct {
	Name string `form:"nome"`
}

type beneficiaryResponse struct {
	ID   string              `json:"id"`
	Form *types.FormSnapshot `json:"form"`
}

func (s *Service) handlePostBeneficiary(w http.ResponseWriter, r *http.Request) {
	draft := draftFromContext(r.Context())

	var input beneficiaryForm
	if err := s.decodeForm(r, &input); err != nil {
		s.writeError(w, err)
		return
	}

	id, err := draft.AddBeneficiary()
	if err != nil {
		s.writeError(w, err)
		return
	}

	if input.Name != "" {
		if err := draft.RenameBeneficiary(id, input.Name); err != nil {
			s.writeError(w, err)
			return
		}
	}

	s.writeJSON(w, http.StatusCreated, beneficiaryResponse{ID: id, Form: draft.Snapshot()})
}

func (s *Service) handleRenameBeneficiary(w http.ResponseWriter, r *http.Request) {
	draft := draftFromContext(r.Context())
	id := r.PathValue("beneficiaryID")

	var input beneficiaryForm
	if err := s.decodeForm(r, &input); err != nil {
		s.writeError(w, err)
		return
	}

	if err := draft.RenameBeneficiary(id, input.Name); err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, draft.Snapshot())
}

func (s *Service) handleDeleteBeneficiary(w http.ResponseWriter, r *http.Request) {
	draft := draftFromContext(r.Context())

	if err := draft.RemoveBeneficiary(r.PathValue("beneficiaryID")); err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, draft.Snapshot())
}

type roofToggleResponse struct {
	Selected bool       `json:"selected"`
	Roof     types.Roof `json:"roof"`
}

func (s *Service) handleToggleRoof(w http.ResponseWriter, r *http.Request) {
	draft := draftFromContext(r.Context())
	tag := r.PathValue("tag")

	var (
		selected bool
		err      error
	)
	switch r.PathValue("kind") {
	case "structure":
		selected, err = draft.ToggleRoofStructure(tag)
	case "covering":
		selected, err = draft.ToggleRoofCovering(tag)
	default:
		err = intake.ErrUnknownTag
	}
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, roofToggleResponse{Selected: selected, Roof: draft.Snapshot().Roof})
}

type roofDescriptionForm struct {
	Description string `form:"descricao"`
}

func (s *Service) handlePostRoofDescription(w http.ResponseWriter, r *http.Request) {
	draft := draftFromContext(r.Context())

	var input roofDescriptionForm
	if err := s.decodeForm(r, &input); err != nil {
		s.writeError(w, err)
		return
	}

	if err := draft.SetRoofDescription(input.Description); err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, draft.Snapshot().Roof)
}
