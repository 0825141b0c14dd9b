package imaging

import (
	"time"

	"github.com/bft-labs/morsebridge/internal/domain"
	"github.com/bft-labs/morsebridge/pkg/log"
)

// Processor decodes, orients and saves frames.
type Processor struct {
	store  *Store
	logger log.Logger
	now    func() time.Time
}

// NewProcessor creates a processor writing through store.
func NewProcessor(store *Store, logger log.Logger) *Processor {
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	return &Processor{store: store, logger: logger, now: time.Now}
}

// Process turns frame into a saved, oriented image. The file is named by
// the frame's receive time.
func (p *Processor) Process(frame domain.Frame) (domain.CapturedImage, error) {
	img, format, err := Decode(frame.Payload)
	if err != nil {
		return domain.CapturedImage{}, err
	}
	oriented := Orient(img)

	if err := p.store.EnsureDir(); err != nil {
		return domain.CapturedImage{}, err
	}

	at := frame.ReceivedAt
	if at.IsZero() {
		at = p.now()
	}
	path, err := p.store.Save(oriented, at)
	if err != nil {
		return domain.CapturedImage{}, err
	}

	p.logger.Info("image saved",
		log.String("path", path),
		log.String("format", format),
		log.Int("width", oriented.Rect.Dx()),
		log.Int("height", oriented.Rect.Dy()),
		log.String("trace_id", frame.TraceID),
	)

	return domain.CapturedImage{
		Path:       path,
		Bounds:     oriented.Rect,
		CapturedAt: at,
		TraceID:    frame.TraceID,
	}, nil
}
