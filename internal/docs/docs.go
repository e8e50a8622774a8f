// Copyright (c) 2026 Meridian Bank. All rights reserved.
// Author: api-platform@meridianbank.io

// Package docs holds the documentation tree of the developer portal: the
// guides, tutorials, and reference pages rendered by the SPA's viewer.
package docs

import (
	"sort"
	"time"
)

// Page is one markdown document in the documentation tree.
//
// # Rules
//   - Slug is unique across the whole tree (pages are addressed flat, the
//     hierarchy is presentation only).
//   - ParentID is empty for root pages.
//   - Unpublished pages are visible only to admin and editor callers.
type Page struct {
	ID          string    `json:"id"`
	ParentID    string    `json:"parent_id,omitempty"`
	Slug        string    `json:"slug"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	Position    int       `json:"position"`
	IsPublished bool      `json:"is_published"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Node is a page with its resolved children, as served to the viewer's
// navigation sidebar. Content is omitted — the sidebar only needs titles;
// the full page is fetched by slug on selection.
type Node struct {
	ID          string  `json:"id"`
	ParentID    string  `json:"parent_id,omitempty"`
	Slug        string  `json:"slug"`
	Title       string  `json:"title"`
	Position    int     `json:"position"`
	IsPublished bool    `json:"is_published"`
	Children    []*Node `json:"children,omitempty"`
}

// BuildTree assembles the flat page rows into the nested sidebar structure.
//
// Pages referencing a missing parent are promoted to the root rather than
// dropped, so an accidentally deleted parent never hides a subtree.
// Siblings are ordered by Position, then Title for stable ties.
func BuildTree(pages []*Page) []*Node {
	nodes := make(map[string]*Node, len(pages))
	for _, page := range pages {
		nodes[page.ID] = &Node{
			ID:          page.ID,
			ParentID:    page.ParentID,
			Slug:        page.Slug,
			Title:       page.Title,
			Position:    page.Position,
			IsPublished: page.IsPublished,
		}
	}

	var roots []*Node
	for _, page := range pages {
		node := nodes[page.ID]
		parent, ok := nodes[page.ParentID]
		if page.ParentID == "" || !ok {
			roots = append(roots, node)
			continue
		}
		parent.Children = append(parent.Children, node)
	}

	var sortChildren func(siblings []*Node)
	sortChildren = func(siblings []*Node) {
		sort.SliceStable(siblings, func(i, j int) bool {
			if siblings[i].Position != siblings[j].Position {
				return siblings[i].Position < siblings[j].Position
			}
			return siblings[i].Title < siblings[j].Title
		})
		for _, node := range siblings {
			sortChildren(node.Children)
		}
	}
	sortChildren(roots)

	return roots
}
