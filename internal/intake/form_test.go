package intake

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"solarintake/internal/attachment"
	"solarintake/internal/utils"
	"solarintake/pkg/types"

	"github.com/sirupsen/logrus"
)

const mib = 1024 * 1024

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// stubNormalizer returns an attachment whose content decodes to decodedSize
// bytes, without reading the source.
type stubNormalizer struct {
	decodedSize int
	calls       atomic.Int32
	content     string
	once        sync.Once
}

func (s *stubNormalizer) Normalize(_ context.Context, src attachment.Source) (*types.Attachment, error) {
	s.calls.Add(1)
	s.once.Do(func() {
		s.content = base64.StdEncoding.EncodeToString(make([]byte, s.decodedSize))
	})
	return &types.Attachment{
		Name:    src.Name,
		Type:    src.Type,
		Content: s.content,
		Size:    int64(s.decodedSize),
	}, nil
}

func newTestForm(n Normalizer) *Form {
	return NewForm("draft-1", Deps{
		Normalizer: n,
		Guard:      attachment.NewGuard(0, 0),
		Logger:     quietLogger(),
	})
}

func sources(n int, size int64) []attachment.Source {
	out := make([]attachment.Source, n)
	for i := range out {
		out[i] = attachment.Source{
			Name: "foto.jpg",
			Type: "image/jpeg",
			Size: size,
			Open: func() (io.ReadCloser, error) { return io.NopCloser(strings.NewReader("x")), nil },
		}
	}
	return out
}

func fillValidForm(t *testing.T, f *Form) {
	t.Helper()

	name, cpf, phone, email := "Maria Silva", "12345678901", "11987654321", "maria@example.com"
	if err := f.UpdateCustomer(CustomerPatch{Name: &name, TaxID: &cpf, Phone: &phone, Email: &email}); err != nil {
		t.Fatalf("UpdateCustomer: %v", err)
	}
	if _, err := f.ToggleRoofStructure("madeira"); err != nil {
		t.Fatalf("ToggleRoofStructure: %v", err)
	}
	if _, err := f.ToggleRoofCovering("ceramica"); err != nil {
		t.Fatalf("ToggleRoofCovering: %v", err)
	}
}

func slotCount(f *Form, id types.SlotID) int {
	for _, s := range f.Snapshot().Slots {
		if s.ID == id {
			return s.Count
		}
	}
	return -1
}

func TestAddFilesRejectsBatchOverCapacity(t *testing.T) {
	n := &stubNormalizer{decodedSize: 10}
	f := newTestForm(n)
	ref := SlotRef{Slot: types.SlotRoof}

	_, err := f.AddFiles(context.Background(), ref, sources(6, 100))

	var full *SlotFullError
	if !errors.As(err, &full) {
		t.Fatalf("err = %v, want *SlotFullError", err)
	}
	if full.Max != 5 || full.Incoming != 6 {
		t.Errorf("unexpected error fields: %+v", full)
	}
	if got := slotCount(f, types.SlotRoof); got != 0 {
		t.Errorf("slot count = %d, want 0", got)
	}
	if n.calls.Load() != 0 {
		t.Errorf("normalizer called %d times for a rejected batch", n.calls.Load())
	}

	if _, err := f.AddFiles(context.Background(), ref, sources(3, 100)); err != nil {
		t.Fatalf("AddFiles(3): %v", err)
	}
	if _, err := f.AddFiles(context.Background(), ref, sources(3, 100)); !errors.As(err, &full) {
		t.Fatalf("second batch err = %v, want *SlotFullError", err)
	}
	if got := slotCount(f, types.SlotRoof); got != 3 {
		t.Errorf("slot count = %d, want 3", got)
	}

	if err := f.CheckCapacity(ref, 2); err != nil {
		t.Errorf("CheckCapacity(2) = %v", err)
	}
	if err := f.CheckCapacity(ref, 3); !errors.As(err, &full) {
		t.Errorf("CheckCapacity(3) = %v, want *SlotFullError", err)
	}
	if err := f.CheckCapacity(SlotRef{Slot: "garage"}, 1); !errors.Is(err, ErrUnknownSlot) {
		t.Errorf("CheckCapacity unknown slot = %v", err)
	}
}

func TestAddFilesSkipsOversizedFile(t *testing.T) {
	n := &stubNormalizer{decodedSize: 10}
	f := newTestForm(n)

	batch := sources(2, 100)
	batch[0].Name = "grande.jpg"
	batch[0].Size = 11 * mib

	res, err := f.AddFiles(context.Background(), SlotRef{Slot: types.SlotEnergyBill}, batch)
	if err != nil {
		t.Fatalf("AddFiles: %v", err)
	}

	if len(res.Added) != 1 || len(res.Rejected) != 1 {
		t.Fatalf("added %d rejected %d, want 1 and 1", len(res.Added), len(res.Rejected))
	}
	var tooLarge *attachment.FileTooLargeError
	if !errors.As(res.Rejected[0].Err, &tooLarge) || res.Rejected[0].Name != "grande.jpg" {
		t.Errorf("rejection = %+v", res.Rejected[0])
	}
	if n.calls.Load() != 1 {
		t.Errorf("normalizer called %d times, want 1", n.calls.Load())
	}
	if got := slotCount(f, types.SlotEnergyBill); got != 1 {
		t.Errorf("slot count = %d, want 1", got)
	}
}

func TestAddFilesRejectsSingleOversizedFile(t *testing.T) {
	f := newTestForm(&stubNormalizer{decodedSize: 10})

	res, err := f.AddFiles(context.Background(), SlotRef{Slot: types.SlotEnergyBill}, sources(1, 11*mib))
	if err != nil {
		t.Fatalf("AddFiles: %v", err)
	}
	if len(res.Added) != 0 || len(res.Rejected) != 1 {
		t.Errorf("added %d rejected %d", len(res.Added), len(res.Rejected))
	}
	if got := slotCount(f, types.SlotEnergyBill); got != 0 {
		t.Errorf("slot count = %d, want 0", got)
	}
}

func TestAddFilesSkipsUndecodableImage(t *testing.T) {
	f := newTestForm(attachment.NewNormalizer(attachment.Options{}))

	batch := []attachment.Source{
		attachment.FromBytes("quebrada.jpg", "image/jpeg", []byte("garbage")),
		attachment.FromBytes("conta.pdf", "application/pdf", []byte("%PDF-1.4")),
	}

	res, err := f.AddFiles(context.Background(), SlotRef{Slot: types.SlotEnergyBill}, batch)
	if err != nil {
		t.Fatalf("AddFiles: %v", err)
	}

	if len(res.Added) != 1 || res.Added[0].Name != "conta.pdf" {
		t.Fatalf("added = %+v", res.Added)
	}
	var decodeErr *attachment.DecodeError
	if len(res.Rejected) != 1 || !errors.As(res.Rejected[0].Err, &decodeErr) {
		t.Fatalf("rejected = %+v", res.Rejected)
	}
	if res.Added[0].Field != "foto_conta" {
		t.Errorf("field = %q, want foto_conta", res.Added[0].Field)
	}
}

func TestConcurrentBatchesRespectSlotCap(t *testing.T) {
	f := newTestForm(&stubNormalizer{decodedSize: 10})
	ref := SlotRef{Slot: types.SlotBreaker}

	var wg sync.WaitGroup
	var failures atomic.Int32
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.AddFiles(context.Background(), ref, sources(3, 100)); err != nil {
				failures.Add(1)
			}
		}()
	}
	wg.Wait()

	if failures.Load() != 1 {
		t.Errorf("failed batches = %d, want 1", failures.Load())
	}
	if got := slotCount(f, types.SlotBreaker); got != 3 {
		t.Errorf("slot count = %d, want 3", got)
	}
}

func TestRemoveFile(t *testing.T) {
	f := newTestForm(&stubNormalizer{decodedSize: 10})
	ref := SlotRef{Slot: types.SlotRoof}

	if _, err := f.AddFiles(context.Background(), ref, sources(2, 100)); err != nil {
		t.Fatalf("AddFiles: %v", err)
	}
	if err := f.RemoveFile(ref, 5); !errors.Is(err, ErrAttachmentNotFound) {
		t.Errorf("out of range err = %v", err)
	}
	if err := f.RemoveFile(ref, 0); err != nil {
		t.Fatalf("RemoveFile: %v", err)
	}
	if got := slotCount(f, types.SlotRoof); got != 1 {
		t.Errorf("slot count = %d, want 1", got)
	}
}

func TestUnknownSlot(t *testing.T) {
	f := newTestForm(&stubNormalizer{decodedSize: 10})

	if _, err := f.AddFiles(context.Background(), SlotRef{Slot: "garage"}, sources(1, 1)); !errors.Is(err, ErrUnknownSlot) {
		t.Errorf("err = %v, want ErrUnknownSlot", err)
	}
	if _, err := f.AddFiles(context.Background(), SlotRef{Slot: types.SlotBeneficiaryBill, BeneficiaryID: "nope"}, sources(1, 1)); !errors.Is(err, ErrBeneficiaryNotFound) {
		t.Errorf("err = %v, want ErrBeneficiaryNotFound", err)
	}
}

func TestValidateOrder(t *testing.T) {
	f := newTestForm(&stubNormalizer{decodedSize: 10})

	check := func(wantField string) {
		t.Helper()
		err := f.Validate()
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("err = %v, want *ValidationError on %s", err, wantField)
		}
		if vErr.Field != wantField {
			t.Fatalf("field = %s, want %s", vErr.Field, wantField)
		}
	}

	check("cliente")

	_ = f.UpdateCustomer(CustomerPatch{Name: utils.Ptr("Maria"), TaxID: utils.Ptr("123"), Phone: utils.Ptr("11")})
	check("cliente")

	_ = f.UpdateCustomer(CustomerPatch{Email: utils.Ptr("   ")})
	check("cliente")

	_ = f.UpdateCustomer(CustomerPatch{Email: utils.Ptr("maria@example.com")})
	_ = f.SetBeneficiaryFlag(types.BeneficiaryYes)
	check("beneficiarios")

	if _, err := f.AddBeneficiary(); err != nil {
		t.Fatalf("AddBeneficiary: %v", err)
	}
	check("telhado.estruturas")

	_, _ = f.ToggleRoofStructure("laje")
	check("telhado.tipos")

	_, _ = f.ToggleRoofCovering("vidro")
	if err := f.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestBudgetBlocksSubmission(t *testing.T) {
	f := newTestForm(&stubNormalizer{decodedSize: 9 * mib})
	fillValidForm(t, f)

	roof := SlotRef{Slot: types.SlotRoof}
	if _, err := f.AddFiles(context.Background(), roof, sources(4, 9*mib)); err != nil {
		t.Fatalf("AddFiles roof: %v", err)
	}
	if _, err := f.AddFiles(context.Background(), SlotRef{Slot: types.SlotEnergyBill}, sources(1, 9*mib)); err != nil {
		t.Fatalf("AddFiles bill: %v", err)
	}

	_, err := f.Assemble()
	var budgetErr *attachment.BudgetExceededError
	if !errors.As(err, &budgetErr) {
		t.Fatalf("err = %v, want *BudgetExceededError", err)
	}
	if budgetErr.Total != 45*mib {
		t.Errorf("total = %d, want %d", budgetErr.Total, 45*mib)
	}
	if f.Status() != StatusEditing {
		t.Errorf("status = %s after blocked submission", f.Status())
	}

	if err := f.RemoveFile(roof, 0); err != nil {
		t.Fatalf("RemoveFile: %v", err)
	}

	record, err := f.Assemble()
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if record.TotalBytes != 36*mib {
		t.Errorf("TotalBytes = %d, want %d", record.TotalBytes, 36*mib)
	}
}

func TestAssembleRecord(t *testing.T) {
	f := newTestForm(&stubNormalizer{decodedSize: 10})
	fillValidForm(t, f)

	_ = f.SetBeneficiaryFlag(types.BeneficiaryYes)
	first, _ := f.AddBeneficiary()
	second, _ := f.AddBeneficiary()
	_ = f.RenameBeneficiary(second, "João")

	ctx := context.Background()
	if _, err := f.AddFiles(ctx, SlotRef{Slot: types.SlotEnergyBill}, sources(2, 100)); err != nil {
		t.Fatal(err)
	}
	if _, err := f.AddFiles(ctx, SlotRef{Slot: types.SlotBeneficiaryBill, BeneficiaryID: second}, sources(1, 100)); err != nil {
		t.Fatal(err)
	}
	// removing the first beneficiary renumbers the second one's slot
	if err := f.RemoveBeneficiary(first); err != nil {
		t.Fatal(err)
	}

	record, err := f.Assemble()
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}

	wantKeys := []string{"foto_conta_0", "foto_conta_1", "benef_1_conta_0"}
	if len(record.Files) != len(wantKeys) {
		t.Fatalf("files = %d, want %d", len(record.Files), len(wantKeys))
	}
	for i, want := range wantKeys {
		if record.Files[i].Key != want {
			t.Errorf("file %d key = %q, want %q", i, record.Files[i].Key, want)
		}
	}
	if len(record.Beneficiaries) != 1 || record.Beneficiaries[0].Name != "João" {
		t.Errorf("beneficiaries = %+v", record.Beneficiaries)
	}
	if record.Customer.TaxID != "123.456.789-01" || record.Customer.Phone != "(11) 98765-4321" {
		t.Errorf("customer formatting: %+v", record.Customer)
	}
	if record.ID == "" {
		t.Errorf("record has no id")
	}

	if _, err := f.Assemble(); !errors.Is(err, ErrSubmissionInProgress) {
		t.Errorf("second Assemble err = %v, want ErrSubmissionInProgress", err)
	}
	if err := f.SetRoofDescription("x"); !errors.Is(err, ErrSubmissionInProgress) {
		t.Errorf("edit while submitting err = %v", err)
	}
}

// gatedNormalizer holds every Normalize call until release is closed.
type gatedNormalizer struct {
	stubNormalizer
	started chan struct{}
	release chan struct{}
}

func (g *gatedNormalizer) Normalize(ctx context.Context, src attachment.Source) (*types.Attachment, error) {
	g.started <- struct{}{}
	<-g.release
	return g.stubNormalizer.Normalize(ctx, src)
}

func TestAssembleWaitsForRunningBatch(t *testing.T) {
	n := &gatedNormalizer{
		stubNormalizer: stubNormalizer{decodedSize: 10},
		started:        make(chan struct{}, 1),
		release:        make(chan struct{}),
	}
	f := newTestForm(n)
	fillValidForm(t, f)

	type outcome struct {
		result *BatchResult
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		res, err := f.AddFiles(context.Background(), SlotRef{Slot: types.SlotRoof}, sources(1, 100))
		done <- outcome{res, err}
	}()

	select {
	case <-n.started:
	case <-time.After(2 * time.Second):
		t.Fatal("batch never started")
	}

	if _, err := f.Assemble(); !errors.Is(err, ErrBatchInProgress) {
		t.Fatalf("Assemble during batch err = %v, want ErrBatchInProgress", err)
	}
	if f.Status() != StatusEditing {
		t.Fatalf("status = %s, want editing", f.Status())
	}

	close(n.release)
	res := <-done
	if res.err != nil {
		t.Fatalf("AddFiles: %v", res.err)
	}
	if len(res.result.Added) != 1 {
		t.Fatalf("added = %d, want 1", len(res.result.Added))
	}

	record, err := f.Assemble()
	if err != nil {
		t.Fatalf("Assemble after batch: %v", err)
	}
	if len(record.Files) != 1 || record.Files[0].Key != "foto_telhado_0" {
		t.Errorf("files = %+v", record.Files)
	}
}

func TestAbortKeepsState(t *testing.T) {
	f := newTestForm(&stubNormalizer{decodedSize: 10})
	fillValidForm(t, f)

	if _, err := f.Assemble(); err != nil {
		t.Fatal(err)
	}
	f.Abort()

	if f.Status() != StatusEditing {
		t.Fatalf("status = %s", f.Status())
	}
	if snap := f.Snapshot(); snap.Customer.Name != "Maria Silva" {
		t.Errorf("customer lost after abort: %+v", snap.Customer)
	}
}

func TestCompleteResetsForm(t *testing.T) {
	f := newTestForm(&stubNormalizer{decodedSize: 10})
	fillValidForm(t, f)
	if _, err := f.AddFiles(context.Background(), SlotRef{Slot: types.SlotRoof}, sources(2, 100)); err != nil {
		t.Fatal(err)
	}

	record, err := f.Assemble()
	if err != nil {
		t.Fatal(err)
	}
	f.Complete(&types.SubmissionReceipt{SubmissionID: record.ID, Transport: "log"})

	snap := f.Snapshot()
	if snap.Status != string(StatusEditing) || snap.FileCount != 0 || snap.Customer.Name != "" || len(snap.Roof.Structures) != 0 {
		t.Errorf("form not reset: %+v", snap)
	}
	if snap.LastReceipt == nil || snap.LastReceipt.SubmissionID != record.ID {
		t.Errorf("last receipt = %+v", snap.LastReceipt)
	}
}

func TestBeneficiaryFlag(t *testing.T) {
	f := newTestForm(&stubNormalizer{decodedSize: 10})

	if _, err := f.AddBeneficiary(); !errors.Is(err, ErrBeneficiariesDisabled) {
		t.Errorf("AddBeneficiary without flag err = %v", err)
	}
	if err := f.SetBeneficiaryFlag("talvez"); !errors.Is(err, ErrInvalidFlag) {
		t.Errorf("invalid flag err = %v", err)
	}

	_ = f.SetBeneficiaryFlag(types.BeneficiaryYes)
	_, _ = f.AddBeneficiary()
	_, _ = f.AddBeneficiary()
	_ = f.SetBeneficiaryFlag(types.BeneficiaryNo)

	if got := len(f.Snapshot().Beneficiaries); got != 0 {
		t.Errorf("beneficiaries after no = %d", got)
	}
}

func TestToggleRoof(t *testing.T) {
	f := newTestForm(&stubNormalizer{decodedSize: 10})

	if _, err := f.ToggleRoofStructure("palha"); !errors.Is(err, ErrUnknownTag) {
		t.Errorf("err = %v, want ErrUnknownTag", err)
	}

	on, _ := f.ToggleRoofStructure("metalica")
	_, _ = f.ToggleRoofStructure("laje")
	off, _ := f.ToggleRoofStructure("metalica")

	if !on || off {
		t.Errorf("toggle results on=%v off=%v", on, off)
	}
	if got := f.Snapshot().Roof.Structures; len(got) != 1 || got[0] != "laje" {
		t.Errorf("structures = %v", got)
	}
}

func TestFormatters(t *testing.T) {
	cpf := map[string]string{
		"":               "",
		"123":            "123",
		"1234":           "123.4",
		"1234567":        "123.456.7",
		"12345678901":    "123.456.789-01",
		"123.456.789-01": "123.456.789-01",
		"1234567890123":  "123.456.789-01",
	}
	for in, want := range cpf {
		if got := FormatCPF(in); got != want {
			t.Errorf("FormatCPF(%q) = %q, want %q", in, got, want)
		}
	}

	phone := map[string]string{
		"":            "",
		"1":           "(1",
		"1198":        "(11) 98",
		"1133334444":  "(11) 3333-4444",
		"11987654321": "(11) 98765-4321",
	}
	for in, want := range phone {
		if got := FormatPhone(in); got != want {
			t.Errorf("FormatPhone(%q) = %q, want %q", in, got, want)
		}
	}
}
