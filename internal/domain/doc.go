// Package domain contains the core entities that flow through one bridge
// iteration: the received Frame, the CapturedImage written to disk, the
// DecodedMessage sent downstream and the observational Status.
//
// The package has no infrastructure dependencies.
package domain
