package intake

import (
	"context"
	"errors"
	"testing"
	"time"

	"solarintake/internal/cep"
	"solarintake/pkg/types"
)

// gatedLookuper holds each lookup until its code's gate is released.
type gatedLookuper struct {
	started chan string
	gates   map[string]chan struct{}
	results map[string]*types.AddressLookup
}

func newGatedLookuper(results map[string]*types.AddressLookup) *gatedLookuper {
	g := &gatedLookuper{
		started: make(chan string, 4),
		gates:   map[string]chan struct{}{},
		results: results,
	}
	for code := range results {
		g.gates[code] = make(chan struct{})
	}
	return g
}

func (g *gatedLookuper) Lookup(ctx context.Context, code string) (*types.AddressLookup, error) {
	g.started <- code
	select {
	case <-g.gates[code]:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	res := g.results[code]
	if res == nil {
		return nil, cep.ErrNotFound
	}
	copied := *res
	return &copied, nil
}

type failingLookuper struct{}

func (failingLookuper) Lookup(context.Context, string) (*types.AddressLookup, error) {
	return nil, &cep.LookupError{Code: "01310-100", Err: errors.New("connection refused")}
}

func waitStarted(t *testing.T, g *gatedLookuper, want string) {
	t.Helper()
	select {
	case code := <-g.started:
		if code != want {
			t.Fatalf("lookup started for %s, want %s", code, want)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("lookup for %s never started", want)
	}
}

var paulista = &types.AddressLookup{
	CEP:      "01310-100",
	Street:   "Avenida Paulista",
	District: "Bela Vista",
	City:     "São Paulo",
	State:    "SP",
}

func TestUpdateAddressFormatsPostalCode(t *testing.T) {
	f := newTestForm(&stubNormalizer{decodedSize: 10})
	ref := AddressRef{Kind: AddressInstallation}

	code := "0131"
	complete, err := f.UpdateAddress(ref, AddressPatch{CEP: &code})
	if err != nil {
		t.Fatal(err)
	}
	if complete {
		t.Errorf("partial code reported complete")
	}

	code = "01310100"
	state := "sp"
	complete, _ = f.UpdateAddress(ref, AddressPatch{CEP: &code, State: &state})
	if !complete {
		t.Errorf("full code not reported complete")
	}

	got := f.Snapshot().InstallationAddress
	if got.CEP != "01310-100" || got.State != "SP" {
		t.Errorf("address = %+v", got)
	}

	if _, err := f.UpdateAddress(AddressRef{Kind: "dock"}, AddressPatch{}); !errors.Is(err, ErrUnknownAddress) {
		t.Errorf("err = %v, want ErrUnknownAddress", err)
	}
}

func TestResolvePostalCodeKeepsEditsMadeDuringLookup(t *testing.T) {
	f := newTestForm(&stubNormalizer{decodedSize: 10})
	ref := AddressRef{Kind: AddressCustomer}
	lookuper := newGatedLookuper(map[string]*types.AddressLookup{"01310-100": paulista})

	code := "01310-100"
	if _, err := f.UpdateAddress(ref, AddressPatch{CEP: &code}); err != nil {
		t.Fatal(err)
	}

	type outcome struct {
		applied bool
		err     error
	}
	done := make(chan outcome, 1)
	go func() {
		applied, err := f.ResolvePostalCode(context.Background(), ref, lookuper)
		done <- outcome{applied, err}
	}()
	waitStarted(t, lookuper, "01310-100")

	street, number := "Rua Augusta", "1500"
	if _, err := f.UpdateAddress(ref, AddressPatch{Street: &street, Number: &number}); err != nil {
		t.Fatal(err)
	}
	close(lookuper.gates["01310-100"])

	res := <-done
	if res.err != nil || !res.applied {
		t.Fatalf("resolve = %+v", res)
	}

	got := f.Snapshot().Customer.Address
	want := types.Address{
		CEP:      "01310-100",
		Street:   "Rua Augusta",
		Number:   "1500",
		District: "Bela Vista",
		City:     "São Paulo",
		State:    "SP",
	}
	if got != want {
		t.Errorf("address = %+v, want %+v", got, want)
	}
}

func TestResolvePostalCodeDiscardsSupersededLookup(t *testing.T) {
	f := newTestForm(&stubNormalizer{decodedSize: 10})
	ref := AddressRef{Kind: AddressInstallation}

	copacabana := &types.AddressLookup{
		CEP:      "22070-002",
		Street:   "Avenida Atlântica",
		District: "Copacabana",
		City:     "Rio de Janeiro",
		State:    "RJ",
	}
	lookuper := newGatedLookuper(map[string]*types.AddressLookup{
		"01310-100": paulista,
		"22070-002": copacabana,
	})

	code := "01310100"
	_, _ = f.UpdateAddress(ref, AddressPatch{CEP: &code})

	first := make(chan bool, 1)
	go func() {
		applied, _ := f.ResolvePostalCode(context.Background(), ref, lookuper)
		first <- applied
	}()
	waitStarted(t, lookuper, "01310-100")

	code = "22070002"
	_, _ = f.UpdateAddress(ref, AddressPatch{CEP: &code})

	second := make(chan bool, 1)
	go func() {
		applied, _ := f.ResolvePostalCode(context.Background(), ref, lookuper)
		second <- applied
	}()
	waitStarted(t, lookuper, "22070-002")

	close(lookuper.gates["22070-002"])
	if !<-second {
		t.Fatalf("latest lookup not applied")
	}
	close(lookuper.gates["01310-100"])
	if <-first {
		t.Fatalf("superseded lookup applied")
	}

	got := f.Snapshot().InstallationAddress
	if got.City != "Rio de Janeiro" || got.CEP != "22070-002" {
		t.Errorf("address = %+v", got)
	}
}

func TestResolvePostalCodeFailureLeavesAddress(t *testing.T) {
	f := newTestForm(&stubNormalizer{decodedSize: 10})
	ref := AddressRef{Kind: AddressCustomer}

	code, street := "01310100", "Rua digitada"
	_, _ = f.UpdateAddress(ref, AddressPatch{CEP: &code, Street: &street})

	applied, err := f.ResolvePostalCode(context.Background(), ref, failingLookuper{})
	if applied || err == nil {
		t.Fatalf("applied = %v err = %v", applied, err)
	}
	if got := f.Snapshot().Customer.Address.Street; got != "Rua digitada" {
		t.Errorf("street = %q", got)
	}
}

func TestResolvePostalCodeRequiresCompleteCode(t *testing.T) {
	f := newTestForm(&stubNormalizer{decodedSize: 10})
	ref := AddressRef{Kind: AddressCustomer}

	code := "0131"
	_, _ = f.UpdateAddress(ref, AddressPatch{CEP: &code})

	if _, err := f.ResolvePostalCode(context.Background(), ref, failingLookuper{}); !errors.Is(err, cep.ErrInvalidCode) {
		t.Errorf("err = %v, want ErrInvalidCode", err)
	}
}

func TestBeneficiaryAddress(t *testing.T) {
	f := newTestForm(&stubNormalizer{decodedSize: 10})
	_ = f.SetBeneficiaryFlag(types.BeneficiaryYes)
	id, _ := f.AddBeneficiary()

	city := "Campinas"
	if _, err := f.UpdateAddress(AddressRef{Kind: AddressBeneficiary, BeneficiaryID: id}, AddressPatch{City: &city}); err != nil {
		t.Fatal(err)
	}
	if got := f.Snapshot().Beneficiaries[0].Address.City; got != "Campinas" {
		t.Errorf("city = %q", got)
	}

	if _, err := f.UpdateAddress(AddressRef{Kind: AddressBeneficiary, BeneficiaryID: "x"}, AddressPatch{}); !errors.Is(err, ErrBeneficiaryNotFound) {
		t.Errorf("err = %v, want ErrBeneficiaryNotFound", err)
	}
}
