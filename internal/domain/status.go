package domain

import "time"

// Status is a snapshot of bridge activity, persisted after every iteration
// for operators. Nothing reads it back to make decisions.
type Status struct {
	Iterations int64 `json:"iterations"`
	Captures   int64 `json:"captures"`
	NoData     int64 `json:"no_data"`
	Failures   int64 `json:"failures"`
	Emitted    int64 `json:"emitted"`

	LastTraceID       string    `json:"last_trace_id,omitempty"`
	LastImagePath     string    `json:"last_image_path,omitempty"`
	LastTranscription string    `json:"last_transcription,omitempty"`
	LastMessage       string    `json:"last_message,omitempty"`
	LastError         string    `json:"last_error,omitempty"`
	LastCaptureAt     time.Time `json:"last_capture_at,omitempty"`
	LastEmitAt        time.Time `json:"last_emit_at,omitempty"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// RecordNoData counts an attempt where the device sent nothing.
func (s *Status) RecordNoData(at time.Time) {
	s.Iterations++
	s.NoData++
	s.UpdatedAt = at
}

// RecordFailure counts a failed attempt and keeps its error text.
func (s *Status) RecordFailure(err error, at time.Time) {
	s.Iterations++
	s.Failures++
	if err != nil {
		s.LastError = err.Error()
	}
	s.UpdatedAt = at
}

// RecordCapture notes a frame that was decoded and saved.
func (s *Status) RecordCapture(img CapturedImage) {
	s.Captures++
	s.LastTraceID = img.TraceID
	s.LastImagePath = img.Path
	s.LastCaptureAt = img.CapturedAt
}

// RecordEmit completes a successful iteration.
func (s *Status) RecordEmit(transcription string, msg DecodedMessage, at time.Time) {
	s.Iterations++
	s.Emitted++
	s.LastTranscription = transcription
	s.LastMessage = msg.Text
	s.LastEmitAt = at
	s.UpdatedAt = at
}
