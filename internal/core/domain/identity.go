package domain

import (
	"crypto/sha1" //nolint:gosec // content addressing, not a security boundary
	"encoding/hex"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

// idDigestLength is the number of hex characters kept from the seed digest.
const idDigestLength = 16

// chunkIDSeparator joins a document ID and a chunk position.
const chunkIDSeparator = "__"

// DocumentID derives a stable identifier from a source seed.
// The same prefix and seed always yield the same ID.
func DocumentID(prefix, seed string) string {
	sum := sha1.Sum([]byte(seed)) //nolint:gosec // see import
	return prefix + "_" + hex.EncodeToString(sum[:])[:idDigestLength]
}

// FileDocumentID returns the ID for a local file.
// The seed is the path as returned by ResolvePath.
func FileDocumentID(path string) string {
	return DocumentID(SourceTypeFile.IDPrefix(), ResolvePath(path))
}

// ResolvePath returns the cleaned absolute form of path with symlinks
// followed, so every link to a file resolves to one path. A path that no
// longer exists keeps its name under its resolved parent directory.
func ResolvePath(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	path = filepath.Clean(path)
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		return resolved
	}
	if dir, err := filepath.EvalSymlinks(filepath.Dir(path)); err == nil {
		return filepath.Join(dir, filepath.Base(path))
	}
	return path
}

// URLDocumentID returns the ID for a web page. The URL is used verbatim.
func URLDocumentID(url string) string {
	return DocumentID(SourceTypeURL.IDPrefix(), url)
}

// YouTubeDocumentID returns the ID for a video, seeded by its video ID.
func YouTubeDocumentID(videoID string) string {
	return DocumentID(SourceTypeYouTube.IDPrefix(), videoID)
}

// ChunkID returns the ID of the chunk at position within a document.
func ChunkID(docID string, position int) string {
	return docID + chunkIDSeparator + strconv.Itoa(position)
}

// ParseChunkID splits a chunk ID into its document ID and position.
func ParseChunkID(id string) (docID string, position int, ok bool) {
	i := strings.LastIndex(id, chunkIDSeparator)
	if i <= 0 {
		return "", 0, false
	}
	pos, err := strconv.Atoi(id[i+len(chunkIDSeparator):])
	if err != nil || pos < 0 {
		return "", 0, false
	}
	return id[:i], pos, true
}

var blankRunPattern = regexp.MustCompile(`\n{3,}`)

// NormaliseText replaces each run of invalid UTF-8 bytes with U+FFFD,
// unifies line endings to \n, collapses runs of three or more newlines to
// a single blank line and trims surrounding whitespace. The result is
// valid UTF-8, so rune-based chunking reproduces it exactly.
// NormaliseText(NormaliseText(s)) == NormaliseText(s).
func NormaliseText(s string) string {
	s = strings.ToValidUTF8(s, string(utf8.RuneError))
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = blankRunPattern.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
