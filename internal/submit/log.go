package submit

import (
	"context"
	"time"

	"solarintake/internal/attachment"
	"solarintake/pkg/types"

	"github.com/k0kubun/pp/v3"
	"github.com/sirupsen/logrus"
)

// LogTransport accepts every record after a simulated delay and logs a
// summary of it. Nothing leaves the process.
type LogTransport struct {
	logger *logrus.Logger
	delay  time.Duration
	now    func() time.Time
}

func NewLogTransport(logger *logrus.Logger, delay time.Duration) *LogTransport {
	return &LogTransport{logger: logger, delay: delay, now: time.Now}
}

func (t *LogTransport) Name() string { return types.TransportLog }

func (t *LogTransport) Send(ctx context.Context, record *types.SubmissionRecord) (*types.SubmissionReceipt, error) {
	if t.delay > 0 {
		timer := time.NewTimer(t.delay)
		defer timer.Stop()

		select {
		case <-timer.C:
		case <-ctx.Done():
			return nil, failed(t.Name(), ctx.Err())
		}
	}

	t.logger.WithFields(logrus.Fields{
		"submission_id": record.ID,
		"customer":      record.Customer.Name,
		"beneficiaries": len(record.Beneficiaries),
		"files":         len(record.Files),
		"total":         attachment.FormatSize(record.TotalBytes),
	}).Info("submission received")

	if t.logger.IsLevelEnabled(logrus.DebugLevel) {
		t.logger.Debug(pp.Sprint(skeleton(record)))
	}

	return &types.SubmissionReceipt{
		SubmissionID: record.ID,
		Transport:    t.Name(),
		AcceptedAt:   t.now().UTC(),
	}, nil
}

// skeleton drops file contents so a debug dump stays readable.
func skeleton(record *types.SubmissionRecord) *types.SubmissionRecord {
	out := *record
	out.Files = make([]types.Attachment, len(record.Files))
	for i, f := range record.Files {
		f.Content = ""
		out.Files[i] = f
	}
	return &out
}
