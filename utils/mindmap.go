package utils

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/clubdev/clubdev/models"
)

// ParseOutline converts an indented text outline into mind map nodes and edges.
// Each non-blank line becomes a node; its indentation depth (index of the first
// non-space character) decides nesting. A node's parent is the nearest earlier
// node with a smaller indentation, expressed through the layout positions:
// x grows with depth, y with line order.
func ParseOutline(outline string) ([]models.MindMapNode, []models.MindMapEdge) {
	nodes := []models.MindMapNode{}
	edges := []models.MindMapEdge{}

	for _, line := range strings.Split(outline, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		level := indexOfNonSpace(line)
		node := models.MindMapNode{
			ID:    strconv.Itoa(len(nodes) + 1),
			Label: strings.TrimSpace(line),
			X:     level * 200,
			Y:     len(nodes) * 100,
		}

		// Parent is the most recent node shallower than this one.
		for i := len(nodes) - 1; i >= 0; i-- {
			if nodes[i].X < node.X {
				edges = append(edges, models.MindMapEdge{
					ID:     fmt.Sprintf("e%s-%s", nodes[i].ID, node.ID),
					Source: nodes[i].ID,
					Target: node.ID,
				})
				break
			}
		}

		nodes = append(nodes, node)
	}

	return nodes, edges
}

func indexOfNonSpace(line string) int {
	for i, r := range line {
		if r != ' ' && r != '\t' {
			return i
		}
	}
	return -1
}
