// Package report renders review contexts into persisted markdown artifacts.
//
// Report paths derive from the head ref and the generation minute, so
// repeated identical requests overwrite their own artifact while requests
// for different refs never collide.
package report
