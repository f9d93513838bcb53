package types

import "time"

type Address struct {
	CEP        string `json:"cep" form:"cep"`
	Street     string `json:"logradouro" form:"logradouro"`
	Number     string `json:"numero" form:"numero"`
	Complement string `json:"complemento" form:"complemento"`
	District   string `json:"bairro" form:"bairro"`
	City       string `json:"cidade" form:"cidade"`
	State      string `json:"estado" form:"estado"`
}

// AddressLookup is what a postal code service knows about a CEP.
type AddressLookup struct {
	CEP        string `json:"cep"`
	Street     string `json:"logradouro"`
	Complement string `json:"complemento"`
	District   string `json:"bairro"`
	City       string `json:"localidade"`
	State      string `json:"uf"`
}

type Customer struct {
	Name     string  `json:"nome"`
	TaxID    string  `json:"cpf"`
	Phone    string  `json:"contato"`
	Email    string  `json:"email"`
	Amperage string  `json:"amperagem"`
	Address  Address `json:"address"`
}

type Beneficiary struct {
	ID      string       `json:"id"`
	Name    string       `json:"nome"`
	Address Address      `json:"address"`
	Files   []Attachment `json:"files,omitempty"`
}

type BeneficiaryFlag string

const (
	BeneficiaryUnset BeneficiaryFlag = ""
	BeneficiaryYes   BeneficiaryFlag = "sim"
	BeneficiaryNo    BeneficiaryFlag = "nao"
)

type Roof struct {
	Structures  []string `json:"estruturas"`
	Coverings   []string `json:"tipos"`
	Description string   `json:"descricao"`
}

type RoofOption struct {
	ID    string
	Label string
}

var RoofStructures = []RoofOption{
	{ID: "metalica", Label: "Metálica"},
	{ID: "madeira", Label: "Madeira"},
	{ID: "concreto", Label: "Concreto"},
	{ID: "fibrocimento", Label: "Fibrocimento"},
	{ID: "colonial", Label: "Colonial"},
	{ID: "laje", Label: "Laje"},
}

var RoofCoverings = []RoofOption{
	{ID: "ceramica", Label: "Cerâmica"},
	{ID: "fibrocimento", Label: "Fibrocimento"},
	{ID: "metalico", Label: "Metálico"},
	{ID: "concreto", Label: "Concreto"},
	{ID: "vidro", Label: "Vidro"},
	{ID: "shingle", Label: "Shingle"},
}

// SubmissionRecord is the single JSON document handed to a transport.
type SubmissionRecord struct {
	ID                  string          `json:"id"`
	Customer            Customer        `json:"cliente"`
	HasBeneficiary      BeneficiaryFlag `json:"temBeneficiario"`
	Beneficiaries       []Beneficiary   `json:"beneficiarios"`
	InstallationAddress Address         `json:"enderecoInstalacao"`
	Roof                Roof            `json:"telhado"`
	Files               []Attachment    `json:"arquivos"`
	TotalBytes          int64           `json:"totalBytes"`
	CreatedAt           time.Time       `json:"createdAt"`
}

type SubmissionReceipt struct {
	SubmissionID string    `json:"submissionId" db:"id"`
	Transport    string    `json:"transport" db:"transport"`
	Location     string    `json:"location,omitempty" db:"location"`
	AcceptedAt   time.Time `json:"acceptedAt" db:"accepted_at"`
}
