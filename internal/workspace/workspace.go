package workspace

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/maruel/natural"
	"go.uber.org/zap"

	"spanmark/internal/annotation"
)

var (
	ErrNoDirectory     = errors.New("workspace has no directory")
	ErrInvalidDocument = errors.New("invalid annotation document")
)

const (
	SortByFilename = "filename"
	SortByContent  = "content"

	SortAsc  = "asc"
	SortDesc = "desc"
)

type Options struct {
	// Autosave writes a document back as soon as it is marked dirty.
	Autosave bool
	Logger   *zap.Logger
}

// Workspace is the set of annotation documents in one directory plus the
// index of the active one.
type Workspace struct {
	dir       string
	files     []*annotation.Document
	active    int
	sortField string
	sortOrder string
	autosave  bool
	log       *zap.Logger
}

func New(options Options) *Workspace {
	log := options.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Workspace{
		active:    -1,
		sortField: SortByFilename,
		sortOrder: SortAsc,
		autosave:  options.Autosave,
		log:       log,
	}
}

// Open creates a workspace and loads dir into it.
func Open(dir string, options Options) (*Workspace, error) {
	ws := New(options)
	if err := ws.Load(dir); err != nil {
		return nil, err
	}
	return ws, nil
}

// Load replaces the document list with the contents of dir. Every .txt file
// is converted to an empty annotation document, written next to it as .json
// and removed. Every .json file that is a well formed annotation document is
// loaded; others are skipped with a warning. The first document becomes
// active.
func (w *Workspace) Load(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("reading workspace %s: %w", dir, err)
	}

	present := make(map[string]struct{}, len(entries))
	for _, entry := range entries {
		present[entry.Name()] = struct{}{}
	}

	var loaded []*annotation.Document
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		path := filepath.Join(dir, name)
		switch strings.ToLower(filepath.Ext(name)) {
		case ".txt":
			if _, exists := present[JSONName(name)]; exists {
				w.log.Warn("skipping text file, annotation file already exists",
					zap.String("file", name), zap.String("annotation", JSONName(name)))
				continue
			}
			doc, err := convertText(dir, name)
			if err != nil {
				return err
			}
			w.log.Info("converted text file", zap.String("file", name), zap.String("annotation", doc.Filename))
			loaded = append(loaded, doc)
		case ".json":
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("reading %s: %w", path, err)
			}
			doc, err := Decode(data)
			if err != nil {
				w.log.Warn("skipping invalid annotation file", zap.String("file", name), zap.Error(err))
				continue
			}
			loaded = append(loaded, doc)
		}
	}

	w.dir = dir
	w.files = loaded
	w.active = -1
	if len(loaded) > 0 {
		w.active = 0
	}
	w.log.Debug("loaded workspace", zap.String("dir", dir), zap.Int("documents", len(loaded)))
	return nil
}

func convertText(dir, name string) (*annotation.Document, error) {
	path := filepath.Join(dir, name)
	text, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	doc := FromText(name, text)
	if err := writeDocument(dir, doc); err != nil {
		return nil, err
	}
	if err := os.Remove(path); err != nil {
		return nil, fmt.Errorf("removing %s: %w", path, err)
	}
	return doc, nil
}

func writeDocument(dir string, doc *annotation.Document) error {
	data, err := Encode(doc)
	if err != nil {
		return err
	}
	path := filepath.Join(dir, JSONName(doc.Filename))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

func (w *Workspace) Dir() string { return w.dir }

func (w *Workspace) Len() int { return len(w.files) }

// Files returns the documents in load order.
func (w *Workspace) Files() []*annotation.Document {
	return w.files
}

func (w *Workspace) File(i int) (*annotation.Document, bool) {
	if i < 0 || i >= len(w.files) {
		return nil, false
	}
	return w.files[i], true
}

// Find returns the position of the document with the given filename. Text
// names match the annotation file they were converted to.
func (w *Workspace) Find(name string) (int, bool) {
	want := JSONName(name)
	for i, doc := range w.files {
		if doc.Filename == name || JSONName(doc.Filename) == want {
			return i, true
		}
	}
	return -1, false
}

func (w *Workspace) ActiveIndex() int { return w.active }

func (w *Workspace) Active() *annotation.Document {
	doc, _ := w.File(w.active)
	return doc
}

func (w *Workspace) SetActive(i int) bool {
	if i < 0 || i >= len(w.files) {
		return false
	}
	w.active = i
	return true
}

// MarkDirty flags document i as modified, saving it right away when
// autosave is on.
func (w *Workspace) MarkDirty(i int) error {
	doc, ok := w.File(i)
	if !ok {
		return nil
	}
	doc.MarkDirty()
	if w.autosave {
		return w.SaveFile(i)
	}
	return nil
}

func (w *Workspace) MarkActiveDirty() error {
	return w.MarkDirty(w.active)
}

// SaveFile writes document i to the workspace directory and clears its
// dirty flag. Out of range indexes are ignored.
func (w *Workspace) SaveFile(i int) error {
	if w.dir == "" {
		return ErrNoDirectory
	}
	doc, ok := w.File(i)
	if !ok {
		return nil
	}
	if err := writeDocument(w.dir, doc); err != nil {
		return err
	}
	doc.MarkClean()
	w.log.Debug("saved document", zap.String("file", doc.Filename))
	return nil
}

func (w *Workspace) SaveActive() error {
	if w.active < 0 {
		return nil
	}
	return w.SaveFile(w.active)
}

// DumpAll saves every dirty document and returns how many were written.
func (w *Workspace) DumpAll() (int, error) {
	if w.dir == "" {
		return 0, ErrNoDirectory
	}
	saved := 0
	for i, doc := range w.files {
		if !doc.Dirty() {
			continue
		}
		if err := w.SaveFile(i); err != nil {
			return saved, err
		}
		saved++
	}
	return saved, nil
}

func (w *Workspace) DirtyCount() int {
	n := 0
	for _, doc := range w.files {
		if doc.Dirty() {
			n++
		}
	}
	return n
}

// Delete drops document i from the list. The file on disk is left alone.
func (w *Workspace) Delete(i int) bool {
	if i < 0 || i >= len(w.files) {
		return false
	}
	w.files = append(w.files[:i], w.files[i+1:]...)
	if w.active >= len(w.files) {
		w.active = len(w.files) - 1
	}
	return true
}

// SetSorting chooses the order Sorted returns. Unknown values fall back to
// filename ascending.
func (w *Workspace) SetSorting(field, order string) {
	switch field {
	case SortByFilename, SortByContent:
		w.sortField = field
	default:
		w.sortField = SortByFilename
	}
	switch order {
	case SortAsc, SortDesc:
		w.sortOrder = order
	default:
		w.sortOrder = SortAsc
	}
}

// Sorted returns the documents in the configured order. Strings are compared
// naturally, so doc2 sorts before doc10.
func (w *Workspace) Sorted() []*annotation.Document {
	sorted := make([]*annotation.Document, len(w.files))
	copy(sorted, w.files)
	field := w.sortField
	desc := w.sortOrder == SortDesc
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sortValue(sorted[i], field), sortValue(sorted[j], field)
		if desc {
			return natural.Less(b, a)
		}
		return natural.Less(a, b)
	})
	return sorted
}

func sortValue(doc *annotation.Document, field string) string {
	if field == SortByContent {
		return doc.Content
	}
	return doc.Filename
}
