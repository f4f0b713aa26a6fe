package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"priceScope/internal/model"
)

// JsonlStorage appends JSON lines to a file. It serves both as the block
// output of the fetch command and as a delta sink.
type JsonlStorage struct {
	path string
	mu   sync.Mutex
}

func NewJsonlStorage(path string) *JsonlStorage {
	return &JsonlStorage{path: path}
}

func (s *JsonlStorage) Name() string { return "jsonl" }

// PutBlocks appends one line per block.
func (s *JsonlStorage) PutBlocks(blocks []model.Block) error {
	if len(blocks) == 0 {
		return nil
	}
	items := make([]any, len(blocks))
	for i := range blocks {
		items[i] = blocks[i]
	}
	return s.appendLines(items)
}

// Publish appends the block's delta batch as a single line.
func (s *JsonlStorage) Publish(_ context.Context, batch BlockDeltas) error {
	return s.appendLines([]any{batch})
}

func (s *JsonlStorage) Close() error { return nil }

func (s *JsonlStorage) appendLines(items []any) error {
	dir := filepath.Dir(s.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open output file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	for _, item := range items {
		line, err := json.Marshal(item)
		if err != nil {
			return fmt.Errorf("marshal line: %w", err)
		}
		if _, err := writer.Write(line); err != nil {
			return fmt.Errorf("write line: %w", err)
		}
		if err := writer.WriteByte('\n'); err != nil {
			return fmt.Errorf("write newline: %w", err)
		}
	}

	if err := writer.Flush(); err != nil {
		return fmt.Errorf("flush output: %w", err)
	}
	return nil
}

// ReadBlocks streams blocks from a JSONL file written by PutBlocks.
func ReadBlocks(path string, fn func(model.Block) error) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open input file: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 1024*1024), 64*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		var block model.Block
		if err := json.Unmarshal(raw, &block); err != nil {
			return fmt.Errorf("decode block at line %d: %w", line, err)
		}
		if err := fn(block); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scan input: %w", err)
	}
	return nil
}
