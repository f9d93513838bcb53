package attachment

import "solarintake/pkg/types"

const (
	DefaultMaxPayloadBytes int64 = 40 * 1024 * 1024
	DefaultMaxFileBytes    int64 = 10 * 1024 * 1024
)

// Guard enforces the per-file cap at selection time and the aggregate
// payload ceiling at submit time.
type Guard struct {
	maxPayload int64
	maxFile    int64
}

func NewGuard(maxPayload, maxFile int64) *Guard {
	if maxPayload <= 0 {
		maxPayload = DefaultMaxPayloadBytes
	}
	if maxFile <= 0 {
		maxFile = DefaultMaxFileBytes
	}

	return &Guard{maxPayload: maxPayload, maxFile: maxFile}
}

func (g *Guard) MaxPayload() int64 { return g.maxPayload }

func (g *Guard) MaxFile() int64 { return g.maxFile }

// TotalSize sums the decoded size of every attachment. The size is
// recomputed from the encoded content rather than read from Size.
func (g *Guard) TotalSize(attachments []types.Attachment) int64 {
	var total int64
	for _, a := range attachments {
		total += DecodedLen(a.Content)
	}
	return total
}

func (g *Guard) CheckBudget(total int64) bool {
	return total <= g.maxPayload
}

// Within returns the aggregate size and a *BudgetExceededError when it is
// over the ceiling.
func (g *Guard) Within(attachments []types.Attachment) (int64, error) {
	total := g.TotalSize(attachments)
	if !g.CheckBudget(total) {
		return total, &BudgetExceededError{Total: total, Limit: g.maxPayload}
	}
	return total, nil
}

// AdmitFile rejects a raw source larger than the per-file cap.
func (g *Guard) AdmitFile(name string, size int64) error {
	if size > g.maxFile {
		return &FileTooLargeError{Name: name, Size: size, Limit: g.maxFile}
	}
	return nil
}
