// Package ports defines the interfaces (ports) that connect the pipeline
// driver to its adapters.
//
// # Port Interfaces
//
//   - [FrameReceiver]: reads framed images from the capture device
//   - [ImageProcessor]: decodes, orients and saves a frame
//   - [Transcriber]: asks the model for the marks in an image
//   - [Interpreter]: asks the model to read the marks as Morse code
//   - [Emitter]: writes a message to the display device
//   - [StatusRepository]: persists the activity snapshot
//
// # Usage
//
// The application layer (internal/app) depends only on these interfaces.
// pkg/capture, pkg/imaging, pkg/decoder, pkg/downlink and
// internal/adapters provide the implementations, so the driver can be
// tested with in-memory fakes.
package ports
