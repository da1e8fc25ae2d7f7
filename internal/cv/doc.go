// Package cv binds the frame loop to OpenCV through gocv: the camera, the
// MobileNet SSD network, the preview window and drawing on Mats.
//
// Everything that needs cgo and OpenCV lives here so the rest of the module
// builds and tests without it.
package cv
