package server

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"solarintake/internal/attachment"
	"solarintake/internal/intake"
	"solarintake/pkg/types"
)

const uploadField = "files"

type fileSummary struct {
	Name      string `json:"name"`
	Type      string `json:"type"`
	Size      int64  `json:"size"`
	SizeLabel string `json:"sizeLabel"`
	Width     int    `json:"width,omitempty"`
	Height    int    `json:"height,omitempty"`
}

type uploadResponse struct {
	Added    []fileSummary       `json:"added"`
	Rejected []intake.Rejection  `json:"rejected"`
	Form     *types.FormSnapshot `json:"form"`
}

func (s *Service) handlePostSlotFiles(w http.ResponseWriter, r *http.Request) {
	s.addFiles(w, r, intake.SlotRef{Slot: types.SlotID(r.PathValue("slot"))})
}

func (s *Service) handlePostBeneficiaryFiles(w http.ResponseWriter, r *http.Request) {
	s.addFiles(w, r, intake.SlotRef{
		Slot:          types.SlotBeneficiaryBill,
		BeneficiaryID: r.PathValue("beneficiaryID"),
	})
}

func (s *Service) addFiles(w http.ResponseWriter, r *http.Request, ref intake.SlotRef) {
	var ctx = r.Context()
	draft := draftFromContext(ctx)

	mr, err := r.MultipartReader()
	if err != nil {
		s.writeError(w, badRequest("read multipart form: %v", err))
		return
	}

	// The slot count is checked at each part header, before its body is
	// read. Only kept parts count toward MaxRequestBytes.
	var (
		sources []attachment.Source
		kept    int64
	)
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			s.writeError(w, badRequest("read multipart part: %v", err))
			return
		}
		if part.FormName() != uploadField || part.FileName() == "" {
			_ = part.Close()
			continue
		}

		if err := draft.CheckCapacity(ref, len(sources)+1); err != nil {
			_ = part.Close()
			s.writeError(w, err)
			return
		}

		src, err := attachment.FromPart(part, s.guard.MaxFile())
		_ = part.Close()
		if err != nil {
			s.writeError(w, badRequest("read file %q: %v", part.FileName(), err))
			return
		}

		if s.guard.MaxFile() <= 0 || src.Size <= s.guard.MaxFile() {
			kept += src.Size
			if limit := s.config.MaxRequestBytes; limit > 0 && kept > limit {
				s.writeError(w, &http.MaxBytesError{Limit: limit})
				return
			}
		}
		sources = append(sources, src)
	}

	if len(sources) == 0 {
		s.writeError(w, badRequest("no files in field %q", uploadField))
		return
	}

	result, err := draft.AddFiles(ctx, ref, sources)
	if err != nil {
		s.writeError(w, err)
		return
	}

	resp := uploadResponse{
		Added:    make([]fileSummary, len(result.Added)),
		Rejected: result.Rejected,
		Form:     draft.Snapshot(),
	}
	for i, a := range result.Added {
		resp.Added[i] = fileSummary{
			Name:      a.Name,
			Type:      a.Type,
			Size:      a.Size,
			SizeLabel: attachment.FormatSize(a.Size),
			Width:     a.Width,
			Height:    a.Height,
		}
	}

	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Service) handleDeleteSlotFile(w http.ResponseWriter, r *http.Request) {
	s.removeFile(w, r, intake.SlotRef{Slot: types.SlotID(r.PathValue("slot"))})
}

func (s *Service) handleDeleteBeneficiaryFile(w http.ResponseWriter, r *http.Request) {
	s.removeFile(w, r, intake.SlotRef{
		Slot:          types.SlotBeneficiaryBill,
		BeneficiaryID: r.PathValue("beneficiaryID"),
	})
}

func (s *Service) removeFile(w http.ResponseWriter, r *http.Request, ref intake.SlotRef) {
	draft := draftFromContext(r.Context())

	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		s.writeError(w, badRequest("invalid file index"))
		return
	}

	if err := draft.RemoveFile(ref, index); err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, draft.Snapshot())
}
