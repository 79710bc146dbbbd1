package service

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/wI2L/jsondiff"

	"github.com/noah-isme/member-console/internal/models"
)

type patchOperation struct {
	Op   string `json:"op"`
	Path string `json:"path"`
}

// Diff returns the top-level profile fields whose values differ between
// original and updated, keyed by their JSON names and carrying the updated value.
func Diff(original, updated models.MemberProfile) (models.PartialUpdate, error) {
	patch, err := jsondiff.Compare(original, updated)
	if err != nil {
		return nil, fmt.Errorf("compare member profiles: %w", err)
	}
	if len(patch) == 0 {
		return models.PartialUpdate{}, nil
	}

	rawPatch, err := json.Marshal(patch)
	if err != nil {
		return nil, fmt.Errorf("encode profile patch: %w", err)
	}
	var ops []patchOperation
	if err := json.Unmarshal(rawPatch, &ops); err != nil {
		return nil, fmt.Errorf("decode profile patch: %w", err)
	}

	rawUpdated, err := json.Marshal(updated)
	if err != nil {
		return nil, fmt.Errorf("encode member profile: %w", err)
	}
	var fields map[string]interface{}
	if err := json.Unmarshal(rawUpdated, &fields); err != nil {
		return nil, fmt.Errorf("decode member profile: %w", err)
	}

	changes := models.PartialUpdate{}
	for _, op := range ops {
		key := topLevelKey(op.Path)
		if key == "" {
			continue
		}
		if value, ok := fields[key]; ok {
			changes[key] = value
		} else {
			changes[key] = nil
		}
	}
	return changes, nil
}

// topLevelKey extracts the first JSON pointer segment.
func topLevelKey(pointer string) string {
	pointer = strings.TrimPrefix(pointer, "/")
	if i := strings.IndexByte(pointer, '/'); i >= 0 {
		pointer = pointer[:i]
	}
	pointer = strings.ReplaceAll(pointer, "~1", "/")
	return strings.ReplaceAll(pointer, "~0", "~")
}
