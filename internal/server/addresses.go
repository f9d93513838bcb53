package server

import (
	"errors"
	"net/http"

	"solarintake/internal/cep"
	"solarintake/internal/intake"
	"solarintake/pkg/types"
)

type addressResponse struct {
	Address     types.Address `json:"address"`
	LookedUp    bool          `json:"lookedUp"`
	LookupError string        `json:"lookupError,omitempty"`
}

func (s *Service) handlePostAddress(w http.ResponseWriter, r *http.Request) {
	var ref intake.AddressRef
	switch r.PathValue("target") {
	case "customer", "cliente":
		ref.Kind = intake.AddressCustomer
	case "installation", "instalacao":
		ref.Kind = intake.AddressInstallation
	default:
		s.writeError(w, intake.ErrUnknownAddress)
		return
	}

	s.updateAddress(w, r, ref)
}

func (s *Service) handlePostBeneficiaryAddress(w http.ResponseWriter, r *http.Request) {
	s.updateAddress(w, r, intake.AddressRef{
		Kind:          intake.AddressBeneficiary,
		BeneficiaryID: r.PathValue("beneficiaryID"),
	})
}

// updateAddress applies the posted fields and, once the postal code is
// complete, fills the rest from the lookup service. Lookup failures are
// reported alongside the address as typed.
func (s *Service) updateAddress(w http.ResponseWriter, r *http.Request, ref intake.AddressRef) {
	var ctx = r.Context()
	draft := draftFromContext(ctx)

	var patch intake.AddressPatch
	if err := s.decodeForm(r, &patch); err != nil {
		s.writeError(w, err)
		return
	}

	complete, err := draft.UpdateAddress(ref, patch)
	if err != nil {
		s.writeError(w, err)
		return
	}

	resp := addressResponse{}
	if complete && patch.CEP != nil {
		applied, err := draft.ResolvePostalCode(ctx, ref, s.lookuper)
		if err != nil {
			s.logger.WithError(err).WithField("draft_id", draft.ID()).Warn("postal code lookup failed")
			resp.LookupError = err.Error()
			if errors.Is(err, cep.ErrNotFound) {
				resp.LookupError = "CEP não encontrado"
			}
		}
		resp.LookedUp = applied
	}

	resp.Address = addressOf(draft.Snapshot(), ref)
	s.writeJSON(w, http.StatusOK, resp)
}

func addressOf(snap *types.FormSnapshot, ref intake.AddressRef) types.Address {
	switch ref.Kind {
	case intake.AddressCustomer:
		return snap.Customer.Address
	case intake.AddressInstallation:
		return snap.InstallationAddress
	}
	for _, b := range snap.Beneficiaries {
		if b.ID == ref.BeneficiaryID {
			return b.Address
		}
	}
	return types.Address{}
}

func (s *Service) handleLookupCEP(w http.ResponseWriter, r *http.Request) {
	res, err := s.lookuper.Lookup(r.Context(), r.PathValue("code"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, res)
}
