package types

type BasePageData struct {
	Title  string
	Notice string
	Error  string
}

type SlotSummary struct {
	ID        SlotID `json:"id"`
	Field     string `json:"field"`
	Label     string `json:"label"`
	Required  bool   `json:"required"`
	Count     int    `json:"count"`
	MaxFiles  int    `json:"maxFiles"`
	Bytes     int64  `json:"bytes"`
	SizeLabel string `json:"sizeLabel"`
}

type BeneficiarySummary struct {
	ID      string      `json:"id"`
	Name    string      `json:"nome"`
	Address Address     `json:"address"`
	Slot    SlotSummary `json:"slot"`
}

// FormSnapshot is a read-only view of a draft.
type FormSnapshot struct {
	ID                  string               `json:"id"`
	Status              string               `json:"status"`
	Customer            Customer             `json:"cliente"`
	HasBeneficiary      BeneficiaryFlag      `json:"temBeneficiario"`
	Beneficiaries       []BeneficiarySummary `json:"beneficiarios"`
	InstallationAddress Address              `json:"enderecoInstalacao"`
	Roof                Roof                 `json:"telhado"`
	Slots               []SlotSummary        `json:"slots"`
	FileCount           int                  `json:"fileCount"`
	TotalBytes          int64                `json:"totalBytes"`
	TotalLabel          string               `json:"totalLabel"`
	BudgetBytes         int64                `json:"budgetBytes"`
	LastReceipt         *SubmissionReceipt   `json:"lastReceipt,omitempty"`
}

type FormPageData struct {
	BasePageData
	Form           *FormSnapshot
	RoofStructures []RoofOption
	RoofCoverings  []RoofOption
}
