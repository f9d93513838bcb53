package types

import (
	"fmt"
	"strings"
)

// Attachment is one normalized file ready for inclusion in a submission.
// Size is the decoded byte length of Content.
type Attachment struct {
	Key     string `json:"key,omitempty"`
	Name    string `json:"name"`
	Type    string `json:"type"`
	Content string `json:"content"` // base64
	Size    int64  `json:"size"`
	Field   string `json:"field"`
	Width   int    `json:"width,omitempty"`
	Height  int    `json:"height,omitempty"`
}

func (a Attachment) IsImage() bool {
	return strings.HasPrefix(a.Type, "image/")
}

// SlotID identifies an upload bucket. The set is closed; see Slots.
type SlotID string

const (
	SlotEnergyBill          SlotID = "energy_bill"
	SlotIDDocument          SlotID = "id_document"
	SlotBreaker             SlotID = "breaker"
	SlotRoof                SlotID = "roof"
	SlotInstallationBreaker SlotID = "installation_breaker"
	SlotBeneficiaryBill     SlotID = "beneficiary_bill"
)

type SlotDefinition struct {
	ID       SlotID
	Field    string
	Label    string
	Required bool
}

// CustomerSlots lists the form level slots in submission order.
var CustomerSlots = []SlotDefinition{
	{ID: SlotEnergyBill, Field: "foto_conta", Label: "Foto da Conta de Energia", Required: true},
	{ID: SlotIDDocument, Field: "foto_cnh", Label: "CNH (Frente e Verso)", Required: true},
	{ID: SlotBreaker, Field: "foto_disjuntor", Label: "Foto do Disjuntor"},
	{ID: SlotRoof, Field: "foto_telhado", Label: "Fotos do Telhado"},
	{ID: SlotInstallationBreaker, Field: "disjuntor_instalacao", Label: "Foto do Disjuntor (Local de Instalação)"},
}

var BeneficiarySlot = SlotDefinition{
	ID:       SlotBeneficiaryBill,
	Field:    "benef_%d_conta",
	Label:    "Conta de Energia do Beneficiário",
	Required: true,
}

// BeneficiaryField returns the field name for the beneficiary at the given
// 1-based position.
func BeneficiaryField(position int) string {
	return fmt.Sprintf(BeneficiarySlot.Field, position)
}

func CustomerSlot(id SlotID) (SlotDefinition, bool) {
	for _, def := range CustomerSlots {
		if def.ID == id {
			return def, true
		}
	}
	return SlotDefinition{}, false
}
