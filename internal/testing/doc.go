// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package testing provides shared test helpers for seeding a Graph
// Store without each caller re-deriving graph.Open/t.TempDir
// boilerplate.
//
// # Quick Start
//
// Use SetupTestBackend to open a Graph Store backed by a temporary
// SQLite file, and the Insert* helpers to seed it:
//
//	func TestMyFeature(t *testing.T) {
//	    backend := testing.SetupTestBackend(t)
//	    testing.InsertTestElement(t, backend, "elem:f", "HandleAuth", model.ElementFunction, "auth.go", 10, 25)
//	    testing.InsertTestRelationship(t, backend, "rel:f-g", "elem:f", "elem:g", model.RelCalls)
//	}
//
// # Seeding Test Data
//
//   - InsertTestElement: add a code element with a given kind and span
//   - InsertTestElementWithEmbedding: add an element carrying a semantic embedding, for search tests
//   - InsertTestRelationship: link two elements with a structural relationship edge
package testing
