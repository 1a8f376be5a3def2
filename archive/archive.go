// Package archive writes harvested papers to disk: the PDF and abstract files
// under <root>/<group>/<year>/ and the CSV index that lists them.
package archive

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"unicode"
)

// CollisionSuffix is appended to a file name stem until the name is free.
const CollisionSuffix = "_1"

// AbstractExt is the extension of abstract files.
const AbstractExt = ".abs"

// MaxNameBytes is the longest file name most filesystems accept.
const MaxNameBytes = 255

// Errors wrapped by NameError
var (
	ErrOutsideRoot = errors.New("path leaves the archive root")
	ErrBadName     = errors.New("unusable file name")
)

// NameError reports a directory or file name that cannot be stored, such as
// one with control characters, one too long for the filesystem or one that
// would leave the archive root. It concerns a single paper, unlike FSError.
type NameError struct {
	Name string
	Err  error
}

func (e *NameError) Error() string {
	return fmt.Sprintf("cannot store %q: %v", e.Name, e.Err)
}

func (e *NameError) Unwrap() error {
	return e.Err
}

// FSError reports a filesystem failure. These are fatal to a run.
type FSError struct {
	Op   string
	Path string
	Err  error
}

func (e *FSError) Error() string {
	return fmt.Sprintf("failed to %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *FSError) Unwrap() error {
	return e.Err
}

// Archive is a directory tree of downloaded papers.
type Archive struct {
	root string
}

// Stored is where a paper ended up.
type Stored struct {
	PaperFile    string
	AbstractFile string
}

// New creates an empty archive at root, discarding whatever was there.
func New(root string) (*Archive, error) {
	if err := os.RemoveAll(root); err != nil {
		return nil, &FSError{Op: "remove", Path: root, Err: err}
	}
	return Open(root)
}

// Open uses root as is, keeping existing files. New names are still chosen
// so nothing already there is overwritten.
func Open(root string) (*Archive, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, &FSError{Op: "create directory", Path: root, Err: err}
	}
	return &Archive{root: root}, nil
}

// Root returns the archive's root directory.
func (a *Archive) Root() string {
	return a.root
}

// Save stores a paper's PDF and abstract in dir (relative to the root). If
// fileName is taken in dir, CollisionSuffix is appended to its stem until it
// isn't. The name is reserved with an exclusive create, and both files are
// written to temporary files and renamed into place, so a failed Save
// leaves nothing behind at the paper's path. Names that cannot be stored
// fail with a NameError; anything else is an FSError.
func (a *Archive) Save(dir, fileName string, pdf []byte, abstract string) (*Stored, error) {
	if err := checkName(fileName); err != nil {
		return nil, err
	}
	if filepath.Ext(fileName) == AbstractExt {
		// The abstract would overwrite the paper otherwise.
		fileName += ".pdf"
	}

	bucket := filepath.Join(a.root, dir)
	if !within(a.root, bucket) {
		return nil, &NameError{Name: dir, Err: ErrOutsideRoot}
	}
	if hasControl(dir) {
		return nil, &NameError{Name: dir, Err: ErrBadName}
	}
	if err := os.MkdirAll(bucket, 0o755); err != nil {
		return nil, &FSError{Op: "create directory", Path: bucket, Err: err}
	}

	paperPath, err := reserve(bucket, fileName)
	if err != nil {
		return nil, err
	}
	abstractPath := AbstractPath(paperPath)

	if err := writeAtomic(paperPath, pdf); err != nil {
		os.Remove(paperPath)
		return nil, err
	}
	if err := writeAtomic(abstractPath, []byte(abstract)); err != nil {
		os.Remove(paperPath)
		return nil, err
	}

	return &Stored{PaperFile: paperPath, AbstractFile: abstractPath}, nil
}

// checkName accepts a single path segment without control characters.
func checkName(name string) error {
	if name == "" || name == "." || name == ".." || name != filepath.Base(name) || hasControl(name) {
		return &NameError{Name: name, Err: ErrBadName}
	}
	if len(name) > MaxNameBytes || len(filepath.Base(AbstractPath(name))) > MaxNameBytes {
		return &NameError{Name: name, Err: syscall.ENAMETOOLONG}
	}
	return nil
}

func hasControl(s string) bool {
	return strings.IndexFunc(s, unicode.IsControl) >= 0
}

// within reports whether path is root or below it.
func within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// reserve claims a free name in bucket by creating an empty file there.
func reserve(bucket, fileName string) (string, error) {
	name := fileName
	for {
		if err := checkName(name); err != nil {
			return "", err
		}
		path := filepath.Join(bucket, name)

		if _, err := os.Lstat(AbstractPath(path)); err == nil {
			name = WithSuffix(name)
			continue
		}

		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, fs.ErrExist) {
			name = WithSuffix(name)
			continue
		}
		if errors.Is(err, syscall.ENAMETOOLONG) || errors.Is(err, syscall.EINVAL) {
			return "", &NameError{Name: name, Err: err}
		}
		if err != nil {
			return "", &FSError{Op: "create", Path: path, Err: err}
		}
		if err := f.Close(); err != nil {
			return "", &FSError{Op: "close", Path: path, Err: err}
		}

		return path, nil
	}
}

func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".papercrawl-*")
	if err != nil {
		return &FSError{Op: "create temporary file in", Path: filepath.Dir(path), Err: err}
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return &FSError{Op: "write", Path: tmpName, Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return &FSError{Op: "close", Path: tmpName, Err: err}
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return &FSError{Op: "chmod", Path: tmpName, Err: err}
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return &FSError{Op: "rename", Path: path, Err: err}
	}

	return nil
}

// WithSuffix appends CollisionSuffix to the stem of name: "foo.pdf" becomes
// "foo_1.pdf" and "foo_1.pdf" becomes "foo_1_1.pdf".
func WithSuffix(name string) string {
	ext := filepath.Ext(name)
	return strings.TrimSuffix(name, ext) + CollisionSuffix + ext
}

// AbstractPath returns the abstract file path that goes with a paper file.
func AbstractPath(paperPath string) string {
	return strings.TrimSuffix(paperPath, filepath.Ext(paperPath)) + AbstractExt
}
