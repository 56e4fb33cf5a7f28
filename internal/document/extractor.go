// Package document extracts plain text from the reference PDF that grounds
// the admission assistant.
package document

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/ledongthuc/pdf"
	"golang.org/x/sync/singleflight"
)

// LoadFunc reads a document and returns its plain text.
type LoadFunc func(path string) (string, error)

type cacheEntry struct {
	size    int64
	modTime time.Time
	text    string
}

// Extractor returns the text of reference documents, caching it process-wide.
// A cached entry is served only while the file's size and modification time
// are unchanged; any change triggers a fresh extraction. Concurrent callers
// asking for the same file version share one extraction.
type Extractor struct {
	load  LoadFunc
	group singleflight.Group

	mu    sync.Mutex
	cache map[string]cacheEntry
}

// NewExtractor creates an extractor that parses PDF files.
func NewExtractor() *Extractor {
	return NewExtractorWithLoader(ReadPDF)
}

// NewExtractorWithLoader creates an extractor with a custom loader (for testing
// and non-PDF reference documents).
func NewExtractorWithLoader(load LoadFunc) *Extractor {
	return &Extractor{
		load:  load,
		cache: make(map[string]cacheEntry),
	}
}

// Extract returns the plain text of every page of the document at path.
func (e *Extractor) Extract(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("stat reference document: %w", err)
	}

	if text, ok := e.cached(path, info); ok {
		return text, nil
	}

	key := fmt.Sprintf("%s\x00%d\x00%d", path, info.Size(), info.ModTime().UnixNano())
	v, err, _ := e.group.Do(key, func() (any, error) {
		if text, ok := e.cached(path, info); ok {
			return text, nil
		}
		start := time.Now()
		text, err := e.load(path)
		if err != nil {
			e.mu.Lock()
			delete(e.cache, path)
			e.mu.Unlock()
			return "", fmt.Errorf("extract %s: %w", path, err)
		}
		slog.Debug("reference document extracted", "path", path, "chars", len(text), "duration_ms", time.Since(start).Milliseconds())

		e.mu.Lock()
		e.cache[path] = cacheEntry{size: info.Size(), modTime: info.ModTime(), text: text}
		e.mu.Unlock()
		return text, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (e *Extractor) cached(path string, info os.FileInfo) (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	entry, ok := e.cache[path]
	if !ok || entry.size != info.Size() || !entry.modTime.Equal(info.ModTime()) {
		return "", false
	}
	return entry.text, true
}

// ReadPDF extracts the plain text of all pages of a PDF file. Each page's text
// ends with a newline so adjacent pages never run together.
// The pdf package panics on some malformed content streams; those panics are
// returned as errors.
func ReadPDF(path string) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("parse pdf: %v", r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	var b strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		pageText, err := p.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("read pdf page %d: %w", i, err)
		}
		b.WriteString(pageText)
		b.WriteString("\n")
	}
	return b.String(), nil
}
