package utils

import gonanoid "github.com/matoous/go-nanoid/v2"

const (
	idAlphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

	// DraftIDSize is long enough to act as a bearer token for a draft.
	DraftIDSize      = 32
	SubmissionIDSize = 16
)

// NanoID returns a draft sized id.
func NanoID() string {
	return NanoIDSize(DraftIDSize)
}

func SubmissionID() string {
	return NanoIDSize(SubmissionIDSize)
}

func NanoIDSize(size int) string {
	if size <= 0 {
		size = DraftIDSize
	}
	return gonanoid.MustGenerate(idAlphabet, size)
}
