package source

import (
	"bytes"
	"path"
)

// FileID indexes a file inside its FileSet.
type FileID uint32

// FileFlags records how a file's content was obtained.
type FileFlags uint8

const (
	FileVirtual        FileFlags = 1 << iota // added from memory, not read from disk
	FileHadBOM                               // a UTF-8 BOM was stripped
	FileNormalizedCRLF                       // \r\n line endings became \n
)

// File is one source text after normalization. Hash is the sha256 of
// Content and keys the compile cache.
type File struct {
	ID      FileID
	Path    string // slash-separated, cleaned
	Content []byte
	LineIdx []uint32 // byte offset of every line start after the first
	Hash    [32]byte
	Flags   FileFlags
}

func (f *File) Virtual() bool { return f.Flags&FileVirtual != 0 }

// Stem is the base name without its extension: "src/vec.kn" gives "vec".
func (f *File) Stem() string {
	base := path.Base(f.Path)
	return base[:len(base)-len(path.Ext(base))]
}

// LineCol is a 1-based position.
type LineCol struct {
	Line uint32
	Col  uint32
}

var bom = []byte{0xEF, 0xBB, 0xBF}

// normalize strips a leading BOM and rewrites \r\n to \n. A lone \r is
// kept.
func normalize(content []byte) ([]byte, FileFlags) {
	var flags FileFlags
	if rest, ok := bytes.CutPrefix(content, bom); ok {
		content = rest
		flags |= FileHadBOM
	}
	if bytes.Contains(content, []byte("\r\n")) {
		content = bytes.ReplaceAll(content, []byte("\r\n"), []byte("\n"))
		flags |= FileNormalizedCRLF
	}
	return content, flags
}
