package intake

import (
	"strings"

	"solarintake/internal/cep"
	"solarintake/pkg/types"
)

type AddressKind string

const (
	AddressCustomer     AddressKind = "customer"
	AddressInstallation AddressKind = "installation"
	AddressBeneficiary  AddressKind = "beneficiary"
)

type AddressRef struct {
	Kind          AddressKind
	BeneficiaryID string
}

// AddressPatch carries the fields present in an edit. Nil fields are left
// alone.
type AddressPatch struct {
	CEP        *string `form:"cep"`
	Street     *string `form:"logradouro"`
	Number     *string `form:"numero"`
	Complement *string `form:"complemento"`
	District   *string `form:"bairro"`
	City       *string `form:"cidade"`
	State      *string `form:"estado"`
}

const (
	fieldStreet     = "logradouro"
	fieldComplement = "complemento"
	fieldDistrict   = "bairro"
	fieldCity       = "cidade"
	fieldState      = "estado"
)

// addressState tracks one address and the postal code lookup running for
// it. token only grows; a lookup result applies only while its token is the
// latest. edited holds lookup-filled fields the user changed after the
// current lookup started.
type addressState struct {
	value   types.Address
	token   uint64
	pending bool
	edited  map[string]bool
}

func newAddressState() *addressState {
	return &addressState{edited: map[string]bool{}}
}

// apply writes the patch and reports whether the postal code is now complete
// and needs a lookup.
func (a *addressState) apply(p AddressPatch) bool {
	lookup := false

	if p.CEP != nil {
		formatted := cep.Format(*p.CEP)
		if formatted != a.value.CEP {
			// a new code supersedes whatever lookup is running
			a.token++
			a.pending = false
		}
		a.value.CEP = formatted
		lookup = cep.Complete(formatted)
	}

	set := func(field string, dst *string, v *string) {
		if v == nil {
			return
		}
		*dst = *v
		if a.pending {
			a.edited[field] = true
		}
	}

	set(fieldStreet, &a.value.Street, p.Street)
	set(fieldComplement, &a.value.Complement, p.Complement)
	set(fieldDistrict, &a.value.District, p.District)
	set(fieldCity, &a.value.City, p.City)
	set(fieldState, &a.value.State, p.State)

	if p.Number != nil {
		a.value.Number = *p.Number
	}

	if p.State != nil {
		a.value.State = strings.ToUpper(a.value.State)
	}

	return lookup
}

func (a *addressState) begin() uint64 {
	a.token++
	a.pending = true
	a.edited = map[string]bool{}
	return a.token
}

// merge applies a lookup result onto the current value. It returns false
// when the token is stale.
func (a *addressState) merge(token uint64, res *types.AddressLookup) bool {
	if token != a.token {
		return false
	}
	a.pending = false

	if res == nil {
		return true
	}

	fill := func(field string, dst *string, v string) {
		if a.edited[field] {
			return
		}
		*dst = v
	}

	fill(fieldStreet, &a.value.Street, res.Street)
	fill(fieldDistrict, &a.value.District, res.District)
	fill(fieldCity, &a.value.City, res.City)
	fill(fieldState, &a.value.State, res.State)
	if res.Complement != "" {
		fill(fieldComplement, &a.value.Complement, res.Complement)
	}

	return true
}

func (a *addressState) reset() {
	a.value = types.Address{}
	a.token++
	a.pending = false
	a.edited = map[string]bool{}
}
