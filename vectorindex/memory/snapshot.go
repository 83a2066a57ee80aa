// Copyright 2025 LLabs Tech
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package memory

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-crypt/x/blake2b"

	"github.com/LLabsTech/EstateSearchAI/vectorindex"
)

// Snapshot file layout, little-endian:
//
//	4 bytes magic "ESVI", u8 version
//	u32 dimension, u32 entry count
//	count encoded entries (vectorindex wire format)
//	32-byte BLAKE2b-256 checksum over everything before it
var snapshotMagic = []byte("ESVI")

const (
	snapshotVersion  = 1
	checksumSize     = 32
	snapshotFileMode = 0644
)

// Persist writes a snapshot of the index to its snapshot path. The snapshot
// is written to a temporary file and renamed into place, so a crash mid-write
// never clobbers the previous snapshot. No-op when no path is configured.
func (idx *Index) Persist(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if idx.snapshotPath == "" {
		return nil
	}

	idx.mu.RLock()
	if idx.closed {
		idx.mu.RUnlock()
		return vectorindex.ErrIndexClosed
	}
	data, err := idx.encodeSnapshotLocked()
	count := len(idx.entries)
	idx.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}

	tmp := idx.snapshotPath + ".tmp"
	if err := os.WriteFile(tmp, data, snapshotFileMode); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	if err := os.Rename(tmp, idx.snapshotPath); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replacing snapshot: %w", err)
	}

	idx.logger.Info("persisted index snapshot",
		"path", filepath.Base(idx.snapshotPath),
		"entries", count)

	return nil
}

// Reload replaces in-memory state with the snapshot's contents. Validation
// happens against a scratch map first; on any failure the index keeps its
// prior state untouched.
func (idx *Index) Reload(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if idx.snapshotPath == "" {
		return vectorindex.ErrSnapshotUnavailable
	}

	data, err := os.ReadFile(idx.snapshotPath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", vectorindex.ErrSnapshotUnavailable, idx.snapshotPath)
		}
		return fmt.Errorf("reading snapshot: %w", err)
	}

	entries, err := idx.decodeSnapshot(data)
	if err != nil {
		return err
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()
	if idx.closed {
		return vectorindex.ErrIndexClosed
	}
	idx.entries = entries

	idx.logger.Info("reloaded index snapshot", "entries", len(entries))

	return nil
}

func (idx *Index) encodeSnapshotLocked() ([]byte, error) {
	var buf bytes.Buffer
	buf.Write(snapshotMagic)
	buf.WriteByte(snapshotVersion)

	var header [8]byte
	binary.LittleEndian.PutUint32(header[0:], uint32(idx.dimension))
	binary.LittleEndian.PutUint32(header[4:], uint32(len(idx.entries)))
	buf.Write(header[:])

	for _, e := range idx.entries {
		data, err := vectorindex.MarshalEntry(&e)
		if err != nil {
			return nil, fmt.Errorf("entry %q: %w", e.ID, err)
		}
		buf.Write(data)
	}

	buf.Write(checksum(buf.Bytes()))

	return buf.Bytes(), nil
}

func (idx *Index) decodeSnapshot(data []byte) (map[string]vectorindex.Entry, error) {
	if len(data) < len(snapshotMagic)+1+8+checksumSize {
		return nil, fmt.Errorf("%w: file too short", vectorindex.ErrSnapshotCorrupt)
	}
	if !bytes.Equal(data[:len(snapshotMagic)], snapshotMagic) {
		return nil, fmt.Errorf("%w: bad magic", vectorindex.ErrSnapshotCorrupt)
	}
	if data[len(snapshotMagic)] != snapshotVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", vectorindex.ErrSnapshotCorrupt, data[len(snapshotMagic)])
	}

	body := data[:len(data)-checksumSize]
	stored := data[len(data)-checksumSize:]
	if !bytes.Equal(checksum(body), stored) {
		return nil, fmt.Errorf("%w: checksum mismatch", vectorindex.ErrSnapshotCorrupt)
	}

	off := len(snapshotMagic) + 1
	dimension := int(binary.LittleEndian.Uint32(body[off:]))
	count := int(binary.LittleEndian.Uint32(body[off+4:]))
	off += 8

	if dimension != idx.dimension {
		return nil, fmt.Errorf("%w: snapshot has %d dimensions, index has %d",
			vectorindex.ErrDimensionMismatch, dimension, idx.dimension)
	}

	entries := make(map[string]vectorindex.Entry, count)
	for i := 0; i < count; i++ {
		entry, n, err := vectorindex.UnmarshalEntry(body[off:])
		if err != nil {
			return nil, fmt.Errorf("%w: entry %d: %v", vectorindex.ErrSnapshotCorrupt, i, err)
		}
		if len(entry.Vector) != dimension {
			return nil, fmt.Errorf("%w: entry %q has %d dimensions",
				vectorindex.ErrSnapshotCorrupt, entry.ID, len(entry.Vector))
		}
		entries[entry.ID] = *entry
		off += n
	}

	return entries, nil
}

func checksum(data []byte) []byte {
	h, _ := blake2b.New(checksumSize, nil)
	h.Write(data)
	return h.Sum(nil)
}
