// SPDX-License-Identifier: MPL-2.0

package logstore

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"doppio-engine/internal/engineerr"
)

// DefaultChunkSize is used by ReadChunk when the caller passes zero.
const DefaultChunkSize = 256 * 1024

// MinChunkSize is the floor ReadChunk clamps maxBytes to.
const MinChunkSize = 4 * 1024

// Store is a process-wide singleton owning one JSONL file per execution,
// each serialized by its own mutex so concurrent step workers never
// interleave partial JSON lines.
type Store struct {
	dir string

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New returns a Store that writes under <dataDir>/skill_executions/logs.
func New(dataDir string) *Store {
	return &Store{
		dir:   filepath.Join(dataDir, "skill_executions", "logs"),
		locks: make(map[string]*sync.Mutex),
	}
}

func (s *Store) pathFor(executionID string) string {
	return filepath.Join(s.dir, fmt.Sprintf("interactive-%s.jsonl", executionID))
}

func (s *Store) lockFor(executionID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[executionID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[executionID] = l
	}
	return l
}

// Append writes entry to executionID's log file, creating the directory
// and file as needed. Writes are serialized per execution.
func (s *Store) Append(executionID string, entry Entry) error {
	lock := s.lockFor(executionID)
	lock.Lock()
	defer lock.Unlock()

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return engineerr.IO("logstore.Append", err)
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return engineerr.Internal("logstore.Append", err)
	}
	data = append(data, '\n')

	f, err := os.OpenFile(s.pathFor(executionID), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return engineerr.IO("logstore.Append", err)
	}
	defer func() { _ = f.Close() }()

	if _, err := f.Write(data); err != nil {
		return engineerr.IO("logstore.Append", err)
	}
	return nil
}

// Chunk is the result of a paginated read.
type Chunk struct {
	Cursor     int64
	NextCursor int64
	EOF        bool
	Entries    []Entry
}

// ReadChunk returns up to maxBytes worth of log lines starting at cursor
// (a byte offset into the file). A zero maxBytes uses DefaultChunkSize;
// any nonzero value below MinChunkSize is raised to MinChunkSize.
// Malformed lines become synthetic system entries rather than aborting the
// read, so one corrupt line never stalls the stream.
func (s *Store) ReadChunk(executionID string, cursor int64, maxBytes int) (Chunk, error) {
	if maxBytes == 0 {
		maxBytes = DefaultChunkSize
	}
	if maxBytes < MinChunkSize {
		maxBytes = MinChunkSize
	}

	lock := s.lockFor(executionID)
	lock.Lock()
	defer lock.Unlock()

	f, err := os.Open(s.pathFor(executionID))
	if err != nil {
		if os.IsNotExist(err) {
			return Chunk{Cursor: cursor, NextCursor: cursor, EOF: true}, nil
		}
		return Chunk{}, engineerr.IO("logstore.ReadChunk", err)
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return Chunk{}, engineerr.IO("logstore.ReadChunk", err)
	}
	size := info.Size()
	if cursor >= size {
		return Chunk{Cursor: cursor, NextCursor: cursor, EOF: true}, nil
	}

	window := make([]byte, maxBytes)
	n, err := f.ReadAt(window, cursor)
	if err != nil && err != io.EOF {
		return Chunk{}, engineerr.IO("logstore.ReadChunk", err)
	}
	window = window[:n]

	// Only complete lines are consumed; a line split by the window boundary
	// is left for the next read so the cursor always lands on a line start.
	var consumed int64
	if cut := bytes.LastIndexByte(window, '\n'); cut >= 0 {
		window = window[:cut+1]
		consumed = int64(cut + 1)
	} else {
		// One line longer than the whole window: consume it as-is so the
		// stream keeps advancing; it surfaces as a malformed system entry.
		consumed = int64(n)
	}

	var entries []Entry
	for _, line := range bytes.Split(window, []byte{'\n'}) {
		if len(line) == 0 {
			continue
		}
		var e Entry
		if err := json.Unmarshal(line, &e); err != nil {
			entries = append(entries, Entry{
				Stream:  StreamSystem,
				Message: fmt.Sprintf("malformed log line: %v", err),
			})
			continue
		}
		entries = append(entries, e)
	}

	nextCursor := cursor + consumed
	return Chunk{
		Cursor:     cursor,
		NextCursor: nextCursor,
		EOF:        nextCursor >= size,
		Entries:    entries,
	}, nil
}
