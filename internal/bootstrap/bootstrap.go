// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package bootstrap handles workspace initialization: creating the
// .vibe directory, opening the Graph Store, and discovering workspaces
// that have already been indexed. Adapted from a CozoDB-backed,
// project-id-keyed bootstrap to a plain directory-per-workspace
// convention matching how config.DefaultStorage and the Coordinator's
// checkpoint already name their on-disk state.
package bootstrap

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/kraklabs/vibeindex/internal/graph"
)

// WorkspaceConfig controls workspace initialization.
type WorkspaceConfig struct {
	// Root is the workspace's source tree root. Required.
	Root string
}

// WorkspaceInfo describes a successfully opened or initialized workspace.
type WorkspaceInfo struct {
	Root   string
	DBPath string
}

// InitWorkspace creates <root>/.vibe if missing and opens the Graph
// Store, creating its schema on first use. Idempotent: calling it
// against an already-initialized workspace reopens the same database
// without altering existing data.
func InitWorkspace(cfg WorkspaceConfig, logger *slog.Logger) (*graph.SQLiteStore, WorkspaceInfo, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Root == "" {
		return nil, WorkspaceInfo{}, fmt.Errorf("workspace root is required")
	}

	vibeDir := filepath.Join(cfg.Root, ".vibe")
	if err := os.MkdirAll(vibeDir, 0o755); err != nil {
		return nil, WorkspaceInfo{}, fmt.Errorf("create .vibe dir: %w", err)
	}
	dbPath := filepath.Join(vibeDir, "code.db")

	logger.Info("bootstrap.workspace.init.start", "root", cfg.Root, "db_path", dbPath)

	store, err := graph.Open(dbPath)
	if err != nil {
		return nil, WorkspaceInfo{}, fmt.Errorf("open graph store: %w", err)
	}

	logger.Info("bootstrap.workspace.init.success", "root", cfg.Root, "db_path", dbPath)
	return store, WorkspaceInfo{Root: cfg.Root, DBPath: dbPath}, nil
}

// OpenWorkspace opens an already-initialized workspace's Graph Store.
// It fails if .vibe/code.db does not yet exist, unlike InitWorkspace
// which creates it.
func OpenWorkspace(root string, logger *slog.Logger) (*graph.SQLiteStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if root == "" {
		return nil, fmt.Errorf("workspace root is required")
	}

	dbPath := filepath.Join(root, ".vibe", "code.db")
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("workspace not initialized: %s (run 'vibeindex index' first)", root)
	}

	logger.Debug("bootstrap.workspace.open", "root", root, "db_path", dbPath)
	return graph.Open(dbPath)
}

// ListWorkspaces returns the subdirectories of parentDir that look like
// initialized workspaces (i.e. contain .vibe/code.db), for CLI discovery
// when a caller manages several indexed trees under one parent.
func ListWorkspaces(parentDir string) ([]string, error) {
	entries, err := os.ReadDir(parentDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read parent dir: %w", err)
	}

	var workspaces []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dbPath := filepath.Join(parentDir, entry.Name(), ".vibe", "code.db")
		if _, err := os.Stat(dbPath); err == nil {
			workspaces = append(workspaces, entry.Name())
		}
	}
	return workspaces, nil
}
