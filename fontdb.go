// Package fontdb is an in-memory font face store with CSS-like matching.
//
// A Database holds metadata for every loaded face: family names,
// PostScript name, weight, stretch, style and where its bytes live.
// Faces are addressed by stable generational handles, matched with
// CSS Fonts Level 3 queries and read through scoped data access so the
// store never hands out long-lived references to font bytes.
package fontdb

import (
	"bytes"
	"fmt"
	"iter"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-text/typesetting/font/opentype"
)

// ID is a unique per-database face handle.
//
// Handles are generational: removing a face invalidates its ID and a
// later insertion reusing the same slot yields a distinct ID. The zero
// value is never a valid handle.
type ID struct {
	index      uint32
	generation uint32
}

// IsValid reports whether the ID could refer to a face. It does not
// check that the face is still present in any database.
func (id ID) IsValid() bool {
	return id.generation != 0
}

// String returns the string representation of the ID.
func (id ID) String() string {
	return fmt.Sprintf("%d:%d", id.index, id.generation)
}

// FamilyEntry is one family name of a face with its BCP 47 language tag.
type FamilyEntry struct {
	Name     string
	Language string
}

// FaceInfo is the metadata record of a single loaded face.
type FaceInfo struct {
	// ID is the handle of this face.
	ID ID

	// Source is where the face's bytes live.
	Source Source

	// Index is the face index inside a font collection, 0 for a
	// standalone font file.
	Index int

	// Families lists the typographic family names of the face with
	// their languages. The US English name, when present, comes first.
	Families []FamilyEntry

	// PostScriptName is the face's PostScript name, or "".
	PostScriptName string

	// Style is the face slope declared by the font.
	Style Style

	// Weight is the face weight declared by the font.
	Weight Weight

	// Stretch is the face width class declared by the font.
	Stretch Stretch

	// Monospaced reports whether the font declares itself fixed pitch.
	Monospaced bool
}

type faceSlot struct {
	generation uint32
	live       bool
	info       FaceInfo
}

// Database is an in-memory collection of font faces.
//
// Database is not safe for concurrent use; callers that share one across
// goroutines must synchronize externally.
type Database struct {
	slots []faceSlot
	free  []uint32
	count int

	familySerif     string
	familySansSerif string
	familyCursive   string
	familyFantasy   string
	familyMonospace string
}

// New creates an empty Database with conventional defaults for the CSS
// generic families.
func New() *Database {
	return &Database{
		familySerif:     "Times New Roman",
		familySansSerif: "Arial",
		familyCursive:   "Comic Sans MS",
		familyFantasy:   "Impact",
		familyMonospace: "Courier New",
	}
}

// SetSerifFamily sets the concrete family used for the 'serif' generic.
func (db *Database) SetSerifFamily(name string) { db.familySerif = name }

// SetSansSerifFamily sets the concrete family used for the 'sans-serif'
// generic.
func (db *Database) SetSansSerifFamily(name string) { db.familySansSerif = name }

// SetCursiveFamily sets the concrete family used for the 'cursive'
// generic.
func (db *Database) SetCursiveFamily(name string) { db.familyCursive = name }

// SetFantasyFamily sets the concrete family used for the 'fantasy'
// generic.
func (db *Database) SetFantasyFamily(name string) { db.familyFantasy = name }

// SetMonospaceFamily sets the concrete family used for the 'monospace'
// generic.
func (db *Database) SetMonospaceFamily(name string) { db.familyMonospace = name }

// Len returns the number of live faces in the database.
func (db *Database) Len() int {
	return db.count
}

// IsEmpty returns true if the database holds no faces.
func (db *Database) IsEmpty() bool {
	return db.count == 0
}

// Faces iterates over all live faces in insertion slot order.
// The yielded records must not be retained across mutations.
func (db *Database) Faces() iter.Seq[*FaceInfo] {
	return func(yield func(*FaceInfo) bool) {
		for i := range db.slots {
			if !db.slots[i].live {
				continue
			}
			if !yield(&db.slots[i].info) {
				return
			}
		}
	}
}

// Face returns the metadata record for id, or false if the handle is
// stale or was never issued.
func (db *Database) Face(id ID) (*FaceInfo, bool) {
	slot := db.slot(id)
	if slot == nil {
		return nil, false
	}
	return &slot.info, true
}

// FaceSource returns the source and collection index of a face.
func (db *Database) FaceSource(id ID) (Source, int, bool) {
	slot := db.slot(id)
	if slot == nil {
		return Source{}, 0, false
	}
	return slot.info.Source, slot.info.Index, true
}

// LoadFontData loads all faces of an in-memory font or font collection.
// The data slice is shared between all resulting faces, never copied.
// Returns the handles of the loaded faces; malformed fonts yield none.
func (db *Database) LoadFontData(data []byte) []ID {
	return db.LoadFontSource(BinarySource(data))
}

// LoadFontSource loads all faces reachable through the given source.
// Faces that fail to parse are skipped with a logged warning; the rest
// of the collection still loads.
func (db *Database) LoadFontSource(source Source) []ID {
	var ids []ID
	source.withData(func(data []byte) {
		ids = db.loadFaces(source, data)
	})
	return ids
}

// LoadFontFile loads all faces of a font file. The file is registered as
// a path-only source and re-read on every data access.
func (db *Database) LoadFontFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	db.loadFaces(FileSource(path), data)
	return nil
}

// LoadFontsDir recursively loads every font file found under dir.
// Files with unrecognized extensions and files that fail to load are
// skipped; the walk itself never fails.
func (db *Database) LoadFontsDir(dir string) {
	filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".ttf", ".ttc", ".otf", ".otc":
			if err := db.LoadFontFile(path); err != nil {
				Logger().Warn("failed to load font file", "path", path, "error", err)
			}
		}
		return nil
	})
}

// PushFaceInfo inserts an already assembled metadata record and returns
// its handle. The record's ID field is overwritten with the new handle.
func (db *Database) PushFaceInfo(info FaceInfo) ID {
	return db.insert(info)
}

// RemoveFace removes a face from the database, invalidating its handle.
// Returns false if the handle was already stale.
func (db *Database) RemoveFace(id ID) bool {
	slot := db.slot(id)
	if slot == nil {
		return false
	}
	slot.live = false
	slot.info = FaceInfo{}
	if slot.generation < math.MaxUint32 {
		slot.generation++
		db.free = append(db.free, id.index)
	}
	// A slot whose generation counter is exhausted is retired for good.
	db.count--
	return true
}

// MakeSharedFaceData promotes a File source to a SharedFile source and
// returns the shared bytes together with the face's collection index.
//
// Every face loaded from the same path is promoted at once, so the file
// is read exactly one more time no matter how many faces it carries.
// Binary and SharedFile sources are returned as-is. Returns false if the
// handle is stale or the file cannot be read.
func (db *Database) MakeSharedFaceData(id ID) ([]byte, int, bool) {
	slot := db.slot(id)
	if slot == nil {
		return nil, 0, false
	}
	src := slot.info.Source
	switch src.kind {
	case SourceBinary, SourceSharedFile:
		return src.data, slot.info.Index, true
	case SourceFile:
		data, err := os.ReadFile(src.path)
		if err != nil {
			return nil, 0, false
		}
		shared := SharedFileSource(src.path, data)
		for i := range db.slots {
			s := &db.slots[i]
			if s.live && s.info.Source.kind == SourceFile && s.info.Source.path == src.path {
				s.info.Source = shared
			}
		}
		return data, slot.info.Index, true
	default:
		return nil, 0, false
	}
}

// MakeFaceDataUnshared demotes a SharedFile source back to a plain File
// source, releasing the in-memory copy for every face loaded from the
// same path. Binary and File sources are left untouched.
func (db *Database) MakeFaceDataUnshared(id ID) {
	slot := db.slot(id)
	if slot == nil {
		return
	}
	src := slot.info.Source
	if src.kind != SourceSharedFile {
		return
	}
	plain := FileSource(src.path)
	for i := range db.slots {
		s := &db.slots[i]
		if s.live && s.info.Source.kind == SourceSharedFile && s.info.Source.path == src.path {
			s.info.Source = plain
		}
	}
}

// WithFaceData executes fn against the bytes backing a face and its
// collection index, returning fn's result.
//
// The byte slice is only valid during the call; fn must not retain it.
// Returns false if the handle is stale or the bytes cannot be obtained.
func WithFaceData[T any](db *Database, id ID, fn func(data []byte, index int) T) (T, bool) {
	var result T
	slot := db.slot(id)
	if slot == nil {
		return result, false
	}
	index := slot.info.Index
	ok := slot.info.Source.withData(func(data []byte) {
		result = fn(data, index)
	})
	return result, ok
}

func (db *Database) slot(id ID) *faceSlot {
	if !id.IsValid() || int(id.index) >= len(db.slots) {
		return nil
	}
	slot := &db.slots[id.index]
	if !slot.live || slot.generation != id.generation {
		return nil
	}
	return slot
}

func (db *Database) insert(info FaceInfo) ID {
	var idx uint32
	if n := len(db.free); n > 0 {
		idx = db.free[n-1]
		db.free = db.free[:n-1]
		db.slots[idx].live = true
		db.slots[idx].info = info
	} else {
		if len(db.slots) >= math.MaxUint32 {
			panic("fontdb: face handle space exhausted")
		}
		idx = uint32(len(db.slots))
		db.slots = append(db.slots, faceSlot{generation: 1, live: true, info: info})
	}
	id := ID{index: idx, generation: db.slots[idx].generation}
	db.slots[idx].info.ID = id
	db.count++
	return id
}

// loadFaces parses every face of a font or collection and inserts the
// ones that parse cleanly.
func (db *Database) loadFaces(source Source, data []byte) []ID {
	loaders, err := opentype.NewLoaders(bytes.NewReader(data))
	if err != nil {
		Logger().Warn("failed to load font", "source", source.Path(), "error", err)
		return nil
	}
	var ids []ID
	for i, ld := range loaders {
		info, err := parseFaceInfo(source, ld, i)
		if err != nil {
			Logger().Warn("skipping malformed face", "source", source.Path(), "index", i, "error", err)
			continue
		}
		id := db.insert(info)
		Logger().Debug("loaded face", "id", id.String(), "index", i)
		ids = append(ids, id)
	}
	return ids
}
