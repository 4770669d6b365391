package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"ytharvest/harvest"
)

const indexFile = "index.json"

var unsafeFileChars = regexp.MustCompile(`[^\w.-]+`)

// JSONStore writes each harvested batch to its own timestamped file
// under a base directory and keeps an index of batches per channel.
type JSONStore struct {
	dir string
	log zerolog.Logger

	mu     sync.Mutex
	index  *jsonIndex
	closed bool

	// now is swappable for tests.
	now func() time.Time
}

// BatchFile is the on-disk shape of one stored batch.
type BatchFile struct {
	ChannelName string                  `json:"channel_name"`
	Meta        BatchMeta               `json:"meta"`
	VideoCount  int                     `json:"video_count"`
	Videos      []harvest.HarvestedVideo `json:"videos"`
}

// jsonIndex maps channel names to their batch files, newest last.
type jsonIndex struct {
	UpdatedAt time.Time           `json:"updated_at"`
	Batches   map[string][]string `json:"batches"`
}

// NewJSONStore opens (or creates) a flat-file store rooted at dir.
func NewJSONStore(dir string, log zerolog.Logger) (*JSONStore, error) {
	s := &JSONStore{
		dir: dir,
		log: log,
		now: time.Now,
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, &StorageError{Op: "init", Backend: "json", Err: err}
	}
	if err := s.loadIndex(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *JSONStore) loadIndex() error {
	data, err := os.ReadFile(filepath.Join(s.dir, indexFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.index = &jsonIndex{Batches: make(map[string][]string)}
			return nil
		}
		return &StorageError{Op: "init", Backend: "json", Err: err}
	}
	s.index = &jsonIndex{}
	if err := json.Unmarshal(data, s.index); err != nil {
		return &StorageError{Op: "init", Backend: "json", Err: ErrStorageCorrupt}
	}
	if s.index.Batches == nil {
		s.index.Batches = make(map[string][]string)
	}
	return nil
}

// StoreBatch writes the batch to <channel>_<timestamp>.json and records
// it in the index. Both writes are atomic.
func (s *JSONStore) StoreBatch(ctx context.Context, channelName string, videos []harvest.HarvestedVideo, meta BatchMeta) error {
	if channelName == "" {
		return &StorageError{Op: "store", Backend: "json", Err: ErrInvalidInput}
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return &StorageError{Op: "store", Backend: "json", Channel: channelName, Err: ErrClosed}
	}

	name := fmt.Sprintf("%s_%s.json", sanitizeFilename(channelName), s.now().UTC().Format("20060102_150405"))
	doc := BatchFile{
		ChannelName: channelName,
		Meta:        meta,
		VideoCount:  len(videos),
		Videos:      videos,
	}
	if err := s.writeJSON(filepath.Join(s.dir, name), doc); err != nil {
		return &StorageError{Op: "store", Backend: "json", Channel: channelName, Err: err}
	}

	s.index.Batches[channelName] = append(s.index.Batches[channelName], name)
	s.index.UpdatedAt = s.now().UTC()
	if err := s.writeJSON(filepath.Join(s.dir, indexFile), s.index); err != nil {
		return &StorageError{Op: "store", Backend: "json", Channel: channelName, Err: err}
	}

	s.log.Info().Str("channel", channelName).Str("file", name).Int("videos", len(videos)).Msg("batch written")
	return nil
}

// LoadBatch reads one batch file back.
func (s *JSONStore) LoadBatch(filename string) (*BatchFile, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, filename))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &StorageError{Op: "query", Backend: "json", Err: ErrNotFound}
		}
		return nil, &StorageError{Op: "query", Backend: "json", Err: err}
	}
	doc := &BatchFile{}
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, &StorageError{Op: "query", Backend: "json", Err: ErrStorageCorrupt}
	}
	return doc, nil
}

// Batches returns the filenames recorded for a channel, oldest first.
func (s *JSONStore) Batches(channelName string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := s.index.Batches[channelName]
	out := make([]string, len(names))
	copy(out, names)
	return out
}

// Close marks the store closed. Writes are already durable.
func (s *JSONStore) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *JSONStore) writeJSON(path string, v any) error {
	w, err := newAtomicWriter(path)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		w.Abort()
		return err
	}
	return w.Commit()
}

// sanitizeFilename replaces characters unsafe in filenames so channel
// display names can title batch files.
func sanitizeFilename(name string) string {
	name = strings.TrimSpace(name)
	name = unsafeFileChars.ReplaceAllString(name, "_")
	name = strings.Trim(name, "_")
	if name == "" {
		return "channel"
	}
	return name
}
