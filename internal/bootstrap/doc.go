// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package bootstrap handles workspace initialization and discovery.
//
// It creates the on-disk .vibe directory for a workspace, opens its
// Graph Store (schema created on first use), and lists workspaces
// already initialized under a parent directory.
//
// # Initialization Workflow
//
// A typical workflow for setting up a new workspace:
//
//	store, info, err := bootstrap.InitWorkspace(bootstrap.WorkspaceConfig{
//	    Root: "/path/to/project",
//	}, logger)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer store.Close()
//	fmt.Printf("workspace initialized at: %s\n", info.DBPath)
//
//	// Later, reopen the workspace for queries
//	store, err := bootstrap.OpenWorkspace("/path/to/project", logger)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer store.Close()
//
// # Idempotency
//
// InitWorkspace is idempotent: calling it multiple times against the
// same root is safe and will not corrupt existing data.
//
// # Workspace Discovery
//
// List workspaces already initialized under a parent directory:
//
//	workspaces, err := bootstrap.ListWorkspaces("/path/to/parent")
//	for _, name := range workspaces {
//	    fmt.Println(name)
//	}
package bootstrap
