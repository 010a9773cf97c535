// Package media defines the shared media vocabulary: job kinds, container
// format classification, and the quality probe describing what is known about
// a source file.
//
// A Probe is strictly best-effort. Every field that detection can fail to
// produce is a pointer; nil means "unknown" and must never be collapsed to
// zero, because the parameter resolver treats unknown and zero differently.
package media
