package fontdb

import "os"

// SourceKind identifies where a font's bytes live.
type SourceKind uint8

const (
	// SourceBinary is raw font data held in memory.
	SourceBinary SourceKind = iota

	// SourceFile is a font file path. The file is re-read on every
	// access, so no long-lived reference to its content is held.
	SourceFile

	// SourceSharedFile is a font file path together with a persistently
	// shared in-memory copy of its content.
	SourceSharedFile
)

// String returns the string representation of the source kind.
func (k SourceKind) String() string {
	switch k {
	case SourceBinary:
		return "Binary"
	case SourceFile:
		return "File"
	case SourceSharedFile:
		return "SharedFile"
	default:
		return "Unknown"
	}
}

// Source describes where a face's bytes come from.
//
// A Source stores the whole font, not just a single face: all faces of a
// font collection share one Source value whose data slice (if any) is
// shared, never copied per face.
type Source struct {
	kind SourceKind
	path string
	data []byte
}

// BinarySource creates a Source backed by in-memory font data.
// The slice is shared, not copied; callers must not mutate it afterwards.
func BinarySource(data []byte) Source {
	return Source{kind: SourceBinary, data: data}
}

// FileSource creates a Source backed by a font file path.
func FileSource(path string) Source {
	return Source{kind: SourceFile, path: path}
}

// SharedFileSource creates a Source backed by a font file path with a
// shared in-memory copy of its content.
//
// The shared data is a snapshot: if the backing file is modified
// externally afterwards, the snapshot and the file diverge. Keeping them
// consistent is the caller's responsibility.
func SharedFileSource(path string, data []byte) Source {
	return Source{kind: SourceSharedFile, path: path, data: data}
}

// Kind returns the kind of the source.
func (s Source) Kind() SourceKind {
	return s.kind
}

// Path returns the file path for File and SharedFile sources,
// or "" for Binary sources.
func (s Source) Path() string {
	return s.path
}

// withData executes fn against the font bytes backing the source.
//
// The byte slice is only guaranteed to be valid for the duration of the
// call; fn must not retain it. For SourceFile the file is read from disk
// on every call. Returns false if the bytes could not be obtained.
func (s Source) withData(fn func(data []byte)) bool {
	switch s.kind {
	case SourceBinary, SourceSharedFile:
		fn(s.data)
		return true
	case SourceFile:
		data, err := os.ReadFile(s.path)
		if err != nil {
			return false
		}
		fn(data)
		return true
	default:
		return false
	}
}
