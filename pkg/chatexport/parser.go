package chatexport

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

var (
	// ErrInputNotFound is returned when the export file does not exist
	ErrInputNotFound = errors.New("input file not found")
	// ErrInvalidJSON is returned when the export is not valid JSON
	ErrInvalidJSON = errors.New("input is not valid JSON")
	// ErrNotArray is returned when the top-level JSON value is not an array
	ErrNotArray = errors.New("input must be a JSON array of conversations")
)

// ParseFile reads and parses an exported conversations file
func ParseFile(path string) (conversations []Conversation, err error) {
	file, ferr := os.Open(path)
	if ferr != nil {
		if errors.Is(ferr, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrInputNotFound, path)
		}
		return nil, fmt.Errorf("failed to open file: %w", ferr)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close file: %w", cerr)
		}
	}()

	return Parse(file)
}

// Parse reads an export from r. The whole document is loaded into memory.
func Parse(r io.Reader) ([]Conversation, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}

	if !json.Valid(data) {
		// Re-run the decoder to get a positioned error message
		var probe interface{}
		if derr := json.Unmarshal(data, &probe); derr != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, derr)
		}
		return nil, ErrInvalidJSON
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, ErrNotArray
	}

	var elements []json.RawMessage
	if err := json.Unmarshal(trimmed, &elements); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotArray, err)
	}

	conversations := make([]Conversation, 0, len(elements))
	for _, element := range elements {
		conversations = append(conversations, decodeConversation(element))
	}

	return conversations, nil
}

// decodeConversation never fails: elements that are not objects produce an
// empty conversation so placeholders apply downstream.
func decodeConversation(element json.RawMessage) Conversation {
	conv := Conversation{Raw: element}

	var raw rawConversation
	if err := json.Unmarshal(element, &raw); err != nil {
		return conv
	}

	conv.ID = strings.TrimSpace(string(raw.ID))
	conv.Title = strings.TrimSpace(string(raw.Title))
	conv.InsertedAt = raw.InsertedAt
	conv.UpdatedAt = raw.UpdatedAt
	conv.Mapping = raw.Mapping
	return conv
}
