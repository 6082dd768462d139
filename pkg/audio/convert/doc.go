// ABOUTME: Format conversion package for decoded audio
// ABOUTME: Adapts decoder output to the device channel count and sample rate
// Package convert adapts decoded streams to a fixed output format.
//
// Every voice in the mixer is read through a Reader so that its frames
// can be added to the device buffer sample for sample.
package convert
