// Package detection turns one inference pass into per-object records and
// reduces those records into per-class presence flags.
//
// Responsibilities: confidence filtering, box denormalisation, the SSD label
// table and the class-of-interest set. Nothing in this package keeps state
// between frames.
package detection
