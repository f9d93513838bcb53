// Package intake holds the in-memory state of a registration form: customer
// and beneficiary data, addresses, roof attributes and the upload slots, and
// assembles the submission record once the form validates.
package intake

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"time"

	"solarintake/internal/attachment"
	"solarintake/internal/cep"
	"solarintake/internal/utils"
	"solarintake/pkg/types"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type Status string

const (
	StatusEditing    Status = "editing"
	StatusSubmitting Status = "submitting"
)

type Normalizer interface {
	Normalize(ctx context.Context, src attachment.Source) (*types.Attachment, error)
}

type Deps struct {
	Normalizer   Normalizer
	Guard        *attachment.Guard
	Logger       logrus.FieldLogger
	SlotMaxFiles int
}

type CustomerPatch struct {
	Name     *string `form:"nome"`
	TaxID    *string `form:"cpf"`
	Phone    *string `form:"contato"`
	Email    *string `form:"email"`
	Amperage *string `form:"amperagem"`
}

type beneficiary struct {
	id      string
	name    string
	address *addressState
	slot    *Slot
}

type Form struct {
	id         string
	normalizer Normalizer
	guard      *attachment.Guard
	logger     logrus.FieldLogger
	maxFiles   int

	mu              sync.Mutex
	status          Status
	customer        types.Customer
	customerAddress *addressState
	flag            types.BeneficiaryFlag
	beneficiaries   []*beneficiary
	installation    *addressState
	roof            types.Roof
	slots           map[types.SlotID]*Slot
	lastReceipt     *types.SubmissionReceipt
	batches         int
}

func NewForm(id string, deps Deps) *Form {
	if deps.SlotMaxFiles <= 0 {
		deps.SlotMaxFiles = DefaultSlotMaxFiles
	}
	if deps.Guard == nil {
		deps.Guard = attachment.NewGuard(0, 0)
	}
	if deps.Logger == nil {
		deps.Logger = logrus.StandardLogger()
	}

	f := &Form{
		id:         id,
		normalizer: deps.Normalizer,
		guard:      deps.Guard,
		logger:     deps.Logger.WithField("draft_id", id),
		maxFiles:   deps.SlotMaxFiles,
	}
	f.resetLocked()

	return f
}

func (f *Form) ID() string { return f.id }

func (f *Form) Status() Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status
}

func (f *Form) resetLocked() {
	f.status = StatusEditing
	f.customer = types.Customer{}
	f.flag = types.BeneficiaryUnset
	f.beneficiaries = nil
	f.roof = types.Roof{}

	if f.customerAddress == nil {
		f.customerAddress = newAddressState()
		f.installation = newAddressState()
	} else {
		f.customerAddress.reset()
		f.installation.reset()
	}

	if f.slots == nil {
		f.slots = make(map[types.SlotID]*Slot, len(types.CustomerSlots))
		for _, def := range types.CustomerSlots {
			f.slots[def.ID] = newSlot(def, f.maxFiles)
		}
	} else {
		for _, s := range f.slots {
			s.reset()
		}
	}
}

func (f *Form) editableLocked() error {
	if f.status != StatusEditing {
		return ErrSubmissionInProgress
	}
	return nil
}

// Reset empties the form and destroys every attachment.
func (f *Form) Reset() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.editableLocked(); err != nil {
		return err
	}
	f.resetLocked()
	return nil
}

func (f *Form) UpdateCustomer(p CustomerPatch) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.editableLocked(); err != nil {
		return err
	}

	if p.Name != nil {
		f.customer.Name = *p.Name
	}
	if p.TaxID != nil {
		f.customer.TaxID = FormatCPF(*p.TaxID)
	}
	if p.Phone != nil {
		f.customer.Phone = FormatPhone(*p.Phone)
	}
	if p.Email != nil {
		f.customer.Email = strings.TrimSpace(*p.Email)
	}
	if p.Amperage != nil {
		f.customer.Amperage = *p.Amperage
	}

	return nil
}

// SetBeneficiaryFlag records the answer to "has beneficiary". Answering no
// drops every beneficiary and their files.
func (f *Form) SetBeneficiaryFlag(flag types.BeneficiaryFlag) error {
	if flag != types.BeneficiaryYes && flag != types.BeneficiaryNo {
		return ErrInvalidFlag
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.editableLocked(); err != nil {
		return err
	}

	f.flag = flag
	if flag == types.BeneficiaryNo {
		f.beneficiaries = nil
	}
	return nil
}

func (f *Form) AddBeneficiary() (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.editableLocked(); err != nil {
		return "", err
	}
	if f.flag != types.BeneficiaryYes {
		return "", ErrBeneficiariesDisabled
	}

	b := &beneficiary{
		id:      uuid.NewString(),
		address: newAddressState(),
		slot:    newSlot(types.BeneficiarySlot, f.maxFiles),
	}
	f.beneficiaries = append(f.beneficiaries, b)

	return b.id, nil
}

func (f *Form) RemoveBeneficiary(id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.editableLocked(); err != nil {
		return err
	}

	i := f.beneficiaryIndexLocked(id)
	if i < 0 {
		return ErrBeneficiaryNotFound
	}
	f.beneficiaries = slices.Delete(f.beneficiaries, i, i+1)
	return nil
}

func (f *Form) RenameBeneficiary(id, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.editableLocked(); err != nil {
		return err
	}

	i := f.beneficiaryIndexLocked(id)
	if i < 0 {
		return ErrBeneficiaryNotFound
	}
	f.beneficiaries[i].name = name
	return nil
}

func (f *Form) beneficiaryIndexLocked(id string) int {
	return slices.IndexFunc(f.beneficiaries, func(b *beneficiary) bool { return b.id == id })
}

func (f *Form) ToggleRoofStructure(tag string) (bool, error) {
	return f.toggleRoof(tag, types.RoofStructures, &f.roof.Structures)
}

func (f *Form) ToggleRoofCovering(tag string) (bool, error) {
	return f.toggleRoof(tag, types.RoofCoverings, &f.roof.Coverings)
}

// toggleRoof flips tag in the selection and reports whether it is now
// selected.
func (f *Form) toggleRoof(tag string, catalog []types.RoofOption, selected *[]string) (bool, error) {
	known := slices.ContainsFunc(catalog, func(o types.RoofOption) bool { return o.ID == tag })
	if !known {
		return false, ErrUnknownTag
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.editableLocked(); err != nil {
		return false, err
	}

	if i := slices.Index(*selected, tag); i >= 0 {
		*selected = slices.Delete(*selected, i, i+1)
		return false, nil
	}
	*selected = append(*selected, tag)
	return true, nil
}

func (f *Form) SetRoofDescription(description string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.editableLocked(); err != nil {
		return err
	}
	f.roof.Description = description
	return nil
}

func (f *Form) addressLocked(ref AddressRef) (*addressState, error) {
	switch ref.Kind {
	case AddressCustomer:
		return f.customerAddress, nil
	case AddressInstallation:
		return f.installation, nil
	case AddressBeneficiary:
		i := f.beneficiaryIndexLocked(ref.BeneficiaryID)
		if i < 0 {
			return nil, ErrBeneficiaryNotFound
		}
		return f.beneficiaries[i].address, nil
	default:
		return nil, ErrUnknownAddress
	}
}

// UpdateAddress applies an edit and reports whether the postal code is
// complete and should be looked up.
func (f *Form) UpdateAddress(ref AddressRef, p AddressPatch) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.editableLocked(); err != nil {
		return false, err
	}

	addr, err := f.addressLocked(ref)
	if err != nil {
		return false, err
	}
	return addr.apply(p), nil
}

// ResolvePostalCode looks up the address's current postal code and merges
// the result into the address as it is when the lookup returns. Results of
// superseded lookups are dropped, as are fields edited while the lookup was
// running. A failed lookup leaves the address as typed; the error is
// returned only so callers can log it.
func (f *Form) ResolvePostalCode(ctx context.Context, ref AddressRef, lookuper cep.Lookuper) (bool, error) {
	f.mu.Lock()
	addr, err := f.addressLocked(ref)
	if err != nil {
		f.mu.Unlock()
		return false, err
	}
	code := addr.value.CEP
	if !cep.Complete(code) {
		f.mu.Unlock()
		return false, cep.ErrInvalidCode
	}
	token := addr.begin()
	f.mu.Unlock()

	res, lookupErr := lookuper.Lookup(ctx, code)

	f.mu.Lock()
	defer f.mu.Unlock()

	// the beneficiary may have been removed meanwhile
	addr, err = f.addressLocked(ref)
	if err != nil {
		return false, nil
	}

	if lookupErr != nil {
		addr.merge(token, nil)
		return false, lookupErr
	}

	applied := addr.merge(token, res)
	if !applied {
		f.logger.WithField("cep", code).Debug("discarding superseded postal code lookup")
	}
	return applied, nil
}

func (f *Form) slotLocked(ref SlotRef) (*Slot, string, error) {
	if ref.Slot == types.SlotBeneficiaryBill {
		i := f.beneficiaryIndexLocked(ref.BeneficiaryID)
		if i < 0 {
			return nil, "", ErrBeneficiaryNotFound
		}
		return f.beneficiaries[i].slot, types.BeneficiaryField(i + 1), nil
	}

	s, ok := f.slots[ref.Slot]
	if !ok {
		return nil, "", ErrUnknownSlot
	}
	return s, s.def.Field, nil
}

// CheckCapacity returns a *SlotFullError when incoming files would not fit
// in the slot. AddFiles still makes the binding decision.
func (f *Form) CheckCapacity(ref SlotRef, incoming int) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.editableLocked(); err != nil {
		return err
	}
	slot, _, err := f.slotLocked(ref)
	if err != nil {
		return err
	}
	return slot.admit(incoming)
}

// AddFiles runs a batch of selected files through the upload pipeline. A
// batch that would overflow the slot is rejected whole. Otherwise oversized
// and unreadable files are skipped and reported, and the rest are added to
// the slot in one step once the batch is done.
func (f *Form) AddFiles(ctx context.Context, ref SlotRef, sources []attachment.Source) (*BatchResult, error) {
	f.mu.Lock()
	slot, field, err := f.slotLocked(ref)
	f.mu.Unlock()
	if err != nil {
		return nil, err
	}

	slot.batch.Lock()
	defer slot.batch.Unlock()

	f.mu.Lock()
	err = f.editableLocked()
	if err == nil {
		err = slot.admit(len(sources))
	}
	if err == nil {
		f.batches++
	}
	f.mu.Unlock()
	if err != nil {
		return nil, err
	}

	log := f.logger.WithField("slot", field)
	result := &BatchResult{Added: []types.Attachment{}, Rejected: []Rejection{}}

	for _, src := range sources {
		if err := f.guard.AdmitFile(src.Name, src.Size); err != nil {
			log.WithField("file", src.Name).WithError(err).Info("file over size limit skipped")
			result.Rejected = append(result.Rejected, Rejection{Name: src.Name, Reason: err.Error(), Err: err})
			continue
		}

		att, err := f.normalizer.Normalize(ctx, src)
		if err != nil {
			if ctx.Err() != nil {
				log.WithError(err).Warn("batch interrupted, keeping files processed so far")
				break
			}
			log.WithField("file", src.Name).WithError(err).Warn("failed to process file")
			result.Rejected = append(result.Rejected, Rejection{Name: src.Name, Reason: err.Error(), Err: err})
			continue
		}

		att.Field = field
		result.Added = append(result.Added, *att)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.batches--

	// re-resolve: a beneficiary removed mid batch takes its slot with it
	current, field, err := f.slotLocked(ref)
	if err != nil {
		return nil, err
	}
	if current != slot {
		return nil, ErrBeneficiaryNotFound
	}

	for i := range result.Added {
		result.Added[i].Field = field
	}
	slot.commit(result.Added)

	log.WithFields(logrus.Fields{
		"added":    len(result.Added),
		"rejected": len(result.Rejected),
		"count":    len(slot.files),
	}).Info("upload batch processed")

	return result, nil
}

func (f *Form) RemoveFile(ref SlotRef, index int) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.editableLocked(); err != nil {
		return err
	}

	slot, _, err := f.slotLocked(ref)
	if err != nil {
		return err
	}
	return slot.remove(index)
}

// attachmentsLocked flattens every slot in submission order: customer slots
// first, then each beneficiary's bill.
func (f *Form) attachmentsLocked() []types.Attachment {
	var out []types.Attachment
	for _, def := range types.CustomerSlots {
		out = append(out, f.slots[def.ID].attachments(def.Field)...)
	}
	for i, b := range f.beneficiaries {
		out = append(out, b.slot.attachments(types.BeneficiaryField(i+1))...)
	}
	return out
}

func (f *Form) TotalSize() int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.guard.TotalSize(f.attachmentsLocked())
}

func blank(v string) bool {
	return strings.TrimSpace(v) == ""
}

// Validate checks the form in a fixed order and returns the first failure.
func (f *Form) Validate() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.validateLocked()
}

func (f *Form) validateLocked() error {
	c := f.customer
	if blank(c.Name) || blank(c.TaxID) || blank(c.Phone) || blank(c.Email) {
		return &ValidationError{
			Field:   "cliente",
			Title:   "Campos obrigatórios",
			Message: "Preencha todos os dados do cliente",
		}
	}

	if f.flag == types.BeneficiaryYes && len(f.beneficiaries) == 0 {
		return &ValidationError{
			Field:   "beneficiarios",
			Title:   "Beneficiário obrigatório",
			Message: "Adicione pelo menos um beneficiário",
		}
	}

	if len(f.roof.Structures) == 0 {
		return &ValidationError{
			Field:   "telhado.estruturas",
			Title:   "Estrutura obrigatória",
			Message: "Selecione pelo menos uma estrutura de telhado",
		}
	}

	if len(f.roof.Coverings) == 0 {
		return &ValidationError{
			Field:   "telhado.tipos",
			Title:   "Tipo de telha obrigatório",
			Message: "Selecione pelo menos um tipo de telha",
		}
	}

	if _, err := f.guard.Within(f.attachmentsLocked()); err != nil {
		return err
	}

	return nil
}

// Assemble validates the form and builds the submission record. It refuses
// while any upload batch is still running. On success the form is submitting
// until Complete or Abort is called.
func (f *Form) Assemble() (*types.SubmissionRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.editableLocked(); err != nil {
		return nil, err
	}
	if f.batches > 0 {
		return nil, ErrBatchInProgress
	}

	if err := f.validateLocked(); err != nil {
		var budgetErr *attachment.BudgetExceededError
		if errors.As(err, &budgetErr) {
			f.logger.WithError(err).Info("submission blocked by payload budget")
		}
		return nil, err
	}

	files := f.attachmentsLocked()

	customer := f.customer
	customer.Address = f.customerAddress.value

	beneficiaries := make([]types.Beneficiary, len(f.beneficiaries))
	for i, b := range f.beneficiaries {
		beneficiaries[i] = types.Beneficiary{
			ID:      b.id,
			Name:    b.name,
			Address: b.address.value,
		}
	}

	record := &types.SubmissionRecord{
		ID:                  utils.SubmissionID(),
		Customer:            customer,
		HasBeneficiary:      f.flag,
		Beneficiaries:       beneficiaries,
		InstallationAddress: f.installation.value,
		Roof: types.Roof{
			Structures:  slices.Clone(f.roof.Structures),
			Coverings:   slices.Clone(f.roof.Coverings),
			Description: f.roof.Description,
		},
		Files:      files,
		TotalBytes: f.guard.TotalSize(files),
		CreatedAt:  time.Now().UTC(),
	}

	f.status = StatusSubmitting

	f.logger.WithFields(logrus.Fields{
		"submission_id": record.ID,
		"files":         len(files),
		"total_bytes":   record.TotalBytes,
	}).Info("submission assembled")

	return record, nil
}

// Complete ends a submission that the transport accepted and resets the
// form.
func (f *Form) Complete(receipt *types.SubmissionReceipt) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.resetLocked()
	f.lastReceipt = receipt
}

// Abort returns a submitting form to editing with its state untouched.
func (f *Form) Abort() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.status = StatusEditing
}

func (f *Form) Snapshot() *types.FormSnapshot {
	f.mu.Lock()
	defer f.mu.Unlock()

	customer := f.customer
	customer.Address = f.customerAddress.value

	snap := &types.FormSnapshot{
		ID:                  f.id,
		Status:              string(f.status),
		Customer:            customer,
		HasBeneficiary:      f.flag,
		Beneficiaries:       make([]types.BeneficiarySummary, 0, len(f.beneficiaries)),
		InstallationAddress: f.installation.value,
		Roof: types.Roof{
			Structures:  slices.Clone(f.roof.Structures),
			Coverings:   slices.Clone(f.roof.Coverings),
			Description: f.roof.Description,
		},
		Slots:       make([]types.SlotSummary, 0, len(types.CustomerSlots)),
		BudgetBytes: f.guard.MaxPayload(),
		LastReceipt: f.lastReceipt,
	}

	for _, def := range types.CustomerSlots {
		s := f.slots[def.ID]
		snap.Slots = append(snap.Slots, s.summary(def.Field, f.guard.TotalSize, attachment.FormatSize))
		snap.FileCount += len(s.files)
	}

	for i, b := range f.beneficiaries {
		snap.Beneficiaries = append(snap.Beneficiaries, types.BeneficiarySummary{
			ID:      b.id,
			Name:    b.name,
			Address: b.address.value,
			Slot:    b.slot.summary(types.BeneficiaryField(i+1), f.guard.TotalSize, attachment.FormatSize),
		})
		snap.FileCount += len(b.slot.files)
	}

	snap.TotalBytes = f.guard.TotalSize(f.attachmentsLocked())
	snap.TotalLabel = attachment.FormatSize(snap.TotalBytes)

	return snap
}
