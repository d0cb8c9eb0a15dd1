package adapters

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"hash/crc32"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"avular-packages/internal/types"
)

// fileCacheFormatVersion is the byte written at the head of every L2
// cache file. Bumped whenever the record layout changes so a stale
// cache directory is recognized and rebuilt rather than misread.
const fileCacheFormatVersion byte = 1

// FileL2Store is a disk-backed core.L2Store: one file per cache
// directory, append-only records of (length, crc32, JSON payload of
// key, value and metadata), each independently checksummed so a torn
// write from a crash corrupts
// at most the record in progress, grounded on the teacher's
// write-whole-file cache shape in repo_index_builder.go's
// readCache/writeCache, generalized here to a multi-entry log since
// the Intelligent Cache holds many keys rather than one per file.
type FileL2Store struct {
	mu   sync.Mutex
	path string
}

// NewFileL2Store opens (creating if absent) a disk cache at path.
func NewFileL2Store(path string) (*FileL2Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to create cache directory").
			WithCause(err)
	}
	s := &FileL2Store{path: path}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := s.rewrite(nil); err != nil {
			return nil, err
		}
	} else {
		records, _, err := s.readAll()
		if err != nil {
			return nil, err
		}
		if err := s.rewrite(records); err != nil {
			return nil, err
		}
	}
	return s, nil
}

type fileCacheRecord struct {
	Key   string                    `json:"key"`
	Value []byte                    `json:"value"`
	Meta  types.CacheEntryMetadata `json:"meta"`
}

// Get reads the full log and returns the last record written for key
// (later records supersede earlier ones with the same key). A
// corrupt record truncates the read at that point rather than failing
// the whole store, per §4.4's "no data loss on corruption" guarantee:
// everything written before the corruption is still recovered.
func (s *FileL2Store) Get(key string) ([]byte, types.CacheEntryMetadata, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	records, _, err := s.readAll()
	if err != nil {
		return nil, types.CacheEntryMetadata{}, false, err
	}
	rec, ok := records[key]
	if !ok {
		return nil, types.CacheEntryMetadata{}, false, nil
	}
	return rec.Value, rec.Meta, true, nil
}

// Put appends a new record for key. Superseded records for the same
// key are compacted away the next time the store is opened or Remove
// runs; Put itself stays an O(1) append so hot writes don't pay for a
// full rewrite.
func (s *FileL2Store) Put(key string, value []byte, meta types.CacheEntryMetadata) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to open cache file for append").
			WithCause(err)
	}
	defer f.Close()
	return writeRecord(f, fileCacheRecord{Key: key, Value: value, Meta: meta})
}

// Remove deletes key by rewriting the log without it (a tombstone
// append would grow the file unboundedly for a cache that churns).
func (s *FileL2Store) Remove(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	records, _, err := s.readAll()
	if err != nil {
		return err
	}
	delete(records, key)
	return s.rewrite(records)
}

// Keys returns every live key currently in the store.
func (s *FileL2Store) Keys() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	records, order, err := s.readAll()
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(records))
	for _, k := range order {
		if _, ok := records[k]; ok {
			out = append(out, k)
		}
	}
	return out, nil
}

// readAll replays the log, keeping the last record per key, stopping
// at the first corrupt (bad checksum or truncated) record.
func (s *FileL2Store) readAll() (map[string]fileCacheRecord, []string, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]fileCacheRecord{}, nil, nil
		}
		return nil, nil, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to open cache file").
			WithCause(err)
	}
	defer f.Close()

	r := bufio.NewReader(f)
	header := make([]byte, 1)
	if _, err := io.ReadFull(r, header); err != nil {
		if err == io.EOF {
			return map[string]fileCacheRecord{}, nil, nil
		}
		return nil, nil, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to read cache file header").
			WithCause(err)
	}
	if header[0] != fileCacheFormatVersion {
		return map[string]fileCacheRecord{}, nil, nil
	}

	records := map[string]fileCacheRecord{}
	var order []string
	for {
		rec, ok, err := readRecord(r)
		if err != nil {
			break // stop at first corruption; prior records are preserved
		}
		if !ok {
			break
		}
		if _, seen := records[rec.Key]; !seen {
			order = append(order, rec.Key)
		}
		records[rec.Key] = rec
	}
	return records, order, nil
}

func (s *FileL2Store) rewrite(records map[string]fileCacheRecord) error {
	tmp := s.path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to create cache temp file").
			WithCause(err)
	}
	if _, err := f.Write([]byte{fileCacheFormatVersion}); err != nil {
		f.Close()
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to write cache file header").
			WithCause(err)
	}
	for _, rec := range records {
		if err := writeRecord(f, rec); err != nil {
			f.Close()
			return err
		}
	}
	if err := f.Close(); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to close cache temp file").
			WithCause(err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to finalize cache file").
			WithCause(err)
	}
	return nil
}

func writeRecord(w io.Writer, rec fileCacheRecord) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to encode cache record").
			WithCause(err)
	}
	checksum := crc32.ChecksumIEEE(payload)
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(payload)))
	var crcBuf [4]byte
	binary.BigEndian.PutUint32(crcBuf[:], checksum)
	if _, err := w.Write(lenBuf[:]); err != nil {
		return errbuilder.New().WithCode(errbuilder.CodeInternal).WithMsg("failed to write cache record length").WithCause(err)
	}
	if _, err := w.Write(crcBuf[:]); err != nil {
		return errbuilder.New().WithCode(errbuilder.CodeInternal).WithMsg("failed to write cache record checksum").WithCause(err)
	}
	if _, err := w.Write(payload); err != nil {
		return errbuilder.New().WithCode(errbuilder.CodeInternal).WithMsg("failed to write cache record").WithCause(err)
	}
	return nil
}

func readRecord(r *bufio.Reader) (fileCacheRecord, bool, error) {
	var lenBuf, crcBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		if err == io.EOF {
			return fileCacheRecord{}, false, nil
		}
		return fileCacheRecord{}, false, err
	}
	if _, err := io.ReadFull(r, crcBuf[:]); err != nil {
		return fileCacheRecord{}, false, err
	}
	size := binary.BigEndian.Uint32(lenBuf[:])
	payload := make([]byte, size)
	if _, err := io.ReadFull(r, payload); err != nil {
		return fileCacheRecord{}, false, err
	}
	if crc32.ChecksumIEEE(payload) != binary.BigEndian.Uint32(crcBuf[:]) {
		return fileCacheRecord{}, false, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("cache record checksum mismatch")
	}
	var rec fileCacheRecord
	if err := json.Unmarshal(payload, &rec); err != nil {
		return fileCacheRecord{}, false, err
	}
	return rec, true, nil
}
