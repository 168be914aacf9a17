package assets

import (
	"bytes"
	"image"
	_ "image/png"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	"go.uber.org/zap"
)

// Status is the load state of one image path.
type Status int

const (
	StatusUnknown Status = iota
	StatusPending
	StatusReady
	StatusFailed
)

type entry struct {
	status  Status
	decoded image.Image
	img     *ebiten.Image
}

// Resolver loads atlas images from disk on a background goroutine. Image
// never blocks: it returns nil until the image is decoded, and nil forever if
// the file cannot be read and no fallback sheet is registered.
type Resolver struct {
	dir string
	log *zap.Logger

	mu        sync.Mutex
	entries   map[string]*entry
	fallbacks map[string]Sheet

	requests chan string
	closeCh  chan struct{}
	done     chan struct{}
	once     sync.Once
}

// NewResolver starts a resolver reading from dir.
func NewResolver(log *zap.Logger, dir string) *Resolver {
	if log == nil {
		log = zap.NewNop()
	}
	r := &Resolver{
		dir:       dir,
		log:       log,
		entries:   map[string]*entry{},
		fallbacks: map[string]Sheet{},
		requests:  make(chan string, 64),
		closeCh:   make(chan struct{}),
		done:      make(chan struct{}),
	}
	go r.run()
	return r
}

// SetFallback registers a generated sheet used when path cannot be loaded.
func (r *Resolver) SetFallback(path string, sheet Sheet) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fallbacks[cleanAssetPath(path)] = sheet
}

// Image returns the image at path, or nil while it is loading or missing.
func (r *Resolver) Image(path string) *ebiten.Image {
	if r == nil || path == "" {
		return nil
	}
	key := cleanAssetPath(path)

	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[key]
	if !ok {
		e = &entry{}
		r.entries[key] = e
	}
	switch e.status {
	case StatusUnknown:
		r.request(key, e)
		return nil
	case StatusReady:
		if e.img == nil {
			e.img = ebiten.NewImageFromImage(e.decoded)
			e.decoded = nil
		}
		return e.img
	default:
		return nil
	}
}

// Preload queues paths for loading.
func (r *Resolver) Preload(paths ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range paths {
		key := cleanAssetPath(p)
		e, ok := r.entries[key]
		if !ok {
			e = &entry{}
			r.entries[key] = e
		}
		if e.status == StatusUnknown {
			r.request(key, e)
		}
	}
}

// Status reports the load state of path.
func (r *Resolver) Status(path string) Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.entries[cleanAssetPath(path)]; ok {
		return e.status
	}
	return StatusUnknown
}

// Invalidate forgets path so the next Image call reloads it.
func (r *Resolver) Invalidate(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, cleanAssetPath(path))
}

// Dirs lists root and every directory below it, for file watching. A missing
// root yields nil.
func Dirs(root string) []string {
	var dirs []string
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			dirs = append(dirs, path)
		}
		return nil
	})
	return dirs
}

// Close stops the loader goroutine.
func (r *Resolver) Close() {
	r.once.Do(func() {
		close(r.closeCh)
		<-r.done
	})
}

// request must be called with r.mu held.
func (r *Resolver) request(key string, e *entry) {
	select {
	case r.requests <- key:
		e.status = StatusPending
	default:
		// Queue full; the next Image call asks again.
	}
}

func (r *Resolver) run() {
	defer close(r.done)
	for {
		select {
		case key := <-r.requests:
			img, err := r.decode(key)
			r.publish(key, img, err)
		case <-r.closeCh:
			return
		}
	}
}

func (r *Resolver) publish(key string, img image.Image, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[key]
	if !ok {
		return
	}
	if err != nil {
		sheet, ok := r.fallbacks[key]
		if !ok {
			e.status = StatusFailed
			r.log.Warn("image unavailable", zap.String("path", key), zap.Error(err))
			return
		}
		img = sheet.Image()
		r.log.Debug("image replaced by placeholder", zap.String("path", key), zap.Error(err))
	}
	e.decoded = img
	e.status = StatusReady
}

func (r *Resolver) decode(key string) (image.Image, error) {
	data, err := os.ReadFile(filepath.Join(r.dir, filepath.FromSlash(key)))
	if err != nil {
		return nil, err
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return img, nil
}

func cleanAssetPath(path string) string {
	if path == "" {
		return ""
	}
	if filepath.IsAbs(path) {
		s := filepath.ToSlash(path)
		if idx := strings.LastIndex(s, "/assets/"); idx >= 0 {
			return s[idx+len("/assets/"):]
		}
		return filepath.Base(path)
	}
	s := filepath.ToSlash(path)
	if after, ok := strings.CutPrefix(s, "assets/"); ok {
		return after
	}
	return s
}
