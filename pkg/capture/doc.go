// Package capture reads image frames from the capture device's serial stream.
//
// # Wire format
//
// A frame is three text lines around a raw payload:
//
//	START_IMAGE\n
//	SIZE:<decimal byte count>\n
//	<exactly that many raw bytes>
//	END_IMAGE\n
//
// Marker lines are compared after trimming surrounding whitespace, so CRLF
// line endings from microcontroller println calls are accepted. Lines seen
// before START_IMAGE are device chatter and are skipped.
//
// # Outcomes
//
// [Receiver.Next] returns a frame, [ErrNoData] when the device stayed silent
// for a full read timeout, or a [*ProtocolError] describing malformed input.
// Whatever the outcome, unread input is discarded before Next returns so the
// following attempt starts searching for START_IMAGE on fresh bytes.
package capture
