// Package decoder runs the two model calls that turn a captured image into
// a short message.
//
// [Transcriber] sends the image and asks for the dots and dashes it shows,
// row by row. [Interpreter] sends that transcription back as text and asks
// for the International Morse Code reading, one letter per row. When the
// image has no marks the model is asked for a short scene description
// instead.
package decoder
