// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package coordinator

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	apperrors "github.com/kraklabs/vibeindex/internal/errors"
)

// checkpoint is the incremental-mode restart record: one content hash
// per indexed file, so a subsequent incremental run can skip anything
// unchanged. Grounded on pkg/ingestion/checkpoint.go's Checkpoint,
// narrowed from a multi-project, batch-resumable record (FileHashes,
// SentBatchRequestIDs, cached Datalog scripts) to the single field this
// module's FileMetadata/WorkspaceInfo model actually needs.
type checkpoint struct {
	FileHashes map[string]string `json:"file_hashes"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

func checkpointPath(workspaceRoot string) string {
	return filepath.Join(workspaceRoot, ".vibe", "checkpoint.json")
}

// loadCheckpoint returns an empty checkpoint, not an error, when none
// exists yet — the first run of any workspace has no prior state.
func loadCheckpoint(workspaceRoot string) (*checkpoint, error) {
	data, err := os.ReadFile(checkpointPath(workspaceRoot))
	if err != nil {
		if os.IsNotExist(err) {
			return &checkpoint{FileHashes: make(map[string]string)}, nil
		}
		return nil, apperrors.New(apperrors.KindWorkspace, "load_checkpoint", "failed to read checkpoint", err)
	}
	var cp checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return nil, apperrors.New(apperrors.KindWorkspace, "load_checkpoint", "failed to parse checkpoint", err)
	}
	if cp.FileHashes == nil {
		cp.FileHashes = make(map[string]string)
	}
	return &cp, nil
}

// saveCheckpoint writes atomically: temp file then rename, so a crash
// mid-write never leaves a corrupt checkpoint behind.
func saveCheckpoint(workspaceRoot string, cp *checkpoint) error {
	path := checkpointPath(workspaceRoot)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return apperrors.New(apperrors.KindWorkspace, "save_checkpoint", "failed to create .vibe directory", err).WithFatal()
	}
	cp.UpdatedAt = time.Now()
	data, err := json.MarshalIndent(cp, "", "  ")
	if err != nil {
		return apperrors.New(apperrors.KindWorkspace, "save_checkpoint", "failed to encode checkpoint", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return apperrors.New(apperrors.KindWorkspace, "save_checkpoint", "failed to write checkpoint", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return apperrors.New(apperrors.KindWorkspace, "save_checkpoint", "failed to rename checkpoint into place", err)
	}
	return nil
}
