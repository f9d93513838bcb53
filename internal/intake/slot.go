package intake

import (
	"fmt"
	"sync"

	"solarintake/pkg/types"
)

const DefaultSlotMaxFiles = 5

// SlotRef addresses a slot on a form. BeneficiaryID is only set for
// SlotBeneficiaryBill.
type SlotRef struct {
	Slot          types.SlotID
	BeneficiaryID string
}

func (r SlotRef) String() string {
	if r.BeneficiaryID != "" {
		return fmt.Sprintf("%s/%s", r.Slot, r.BeneficiaryID)
	}
	return string(r.Slot)
}

// Slot is one upload bucket. Its files are guarded by the owning form's
// lock; batch serializes whole batches against the same slot.
type Slot struct {
	def      types.SlotDefinition
	maxFiles int
	files    []types.Attachment
	batch    sync.Mutex
}

func newSlot(def types.SlotDefinition, maxFiles int) *Slot {
	return &Slot{def: def, maxFiles: maxFiles}
}

func (s *Slot) admit(incoming int) error {
	if len(s.files)+incoming > s.maxFiles {
		return &SlotFullError{
			Field:    s.def.Field,
			Current:  len(s.files),
			Incoming: incoming,
			Max:      s.maxFiles,
		}
	}
	return nil
}

func (s *Slot) commit(added []types.Attachment) {
	s.files = append(s.files, added...)
}

func (s *Slot) remove(index int) error {
	if index < 0 || index >= len(s.files) {
		return ErrAttachmentNotFound
	}

	files := make([]types.Attachment, 0, len(s.files)-1)
	files = append(files, s.files[:index]...)
	files = append(files, s.files[index+1:]...)
	s.files = files

	return nil
}

func (s *Slot) reset() {
	s.files = nil
}

// attachments returns copies keyed by field and position in the slot.
func (s *Slot) attachments(field string) []types.Attachment {
	out := make([]types.Attachment, len(s.files))
	for i, a := range s.files {
		a.Field = field
		a.Key = fmt.Sprintf("%s_%d", field, i)
		out[i] = a
	}
	return out
}

func (s *Slot) summary(field string, sizeOf func([]types.Attachment) int64, format func(int64) string) types.SlotSummary {
	bytes := sizeOf(s.files)
	return types.SlotSummary{
		ID:        s.def.ID,
		Field:     field,
		Label:     s.def.Label,
		Required:  s.def.Required,
		Count:     len(s.files),
		MaxFiles:  s.maxFiles,
		Bytes:     bytes,
		SizeLabel: format(bytes),
	}
}
