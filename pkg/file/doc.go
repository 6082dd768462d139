// ABOUTME: Game file access package
// ABOUTME: Resolves a//, s// and p// logical paths and lists directories
// Package file loads game files by logical name.
//
// Names may carry a location prefix:
//
//	a//laser.ogg   asset directory
//	s//save1.bin   save file directory
//	p//level.json  project directory
//	music.ogg      used as a plain path
//
// A Loader resolves prefixes against directories on disk, an FSLoader
// against any fs.FS such as an embedded asset bundle.
package file
