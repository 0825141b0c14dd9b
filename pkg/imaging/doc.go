// Package imaging turns received frame payloads into oriented JPEG files.
//
// The capture camera is mounted so that its raw output is mirrored
// vertically. [Orient] undoes that by flipping left-to-right and then
// rotating 180 degrees. [Store] names files by capture time
// (image_YYYYMMDD_HHMMSS.jpg) inside a single output directory, and
// [Processor] chains decode, orient and save for the pipeline.
package imaging
