package utils

import "testing"

func TestParseOutlineBuildsTree(t *testing.T) {
	outline := "Project\n  Backend\n    API\n  Frontend"
	nodes, edges := ParseOutline(outline)

	if len(nodes) != 4 {
		t.Fatalf("nodes = %d, want 4", len(nodes))
	}
	if len(edges) != 3 {
		t.Fatalf("edges = %d, want 3", len(edges))
	}

	if nodes[0].Label != "Project" || nodes[0].X != 0 || nodes[0].Y != 0 {
		t.Errorf("root node = %+v", nodes[0])
	}
	if nodes[1].Label != "Backend" || nodes[1].X != 400 || nodes[1].Y != 100 {
		t.Errorf("second node = %+v", nodes[1])
	}
	if nodes[2].X != 800 {
		t.Errorf("grandchild x = %d, want 800", nodes[2].X)
	}

	// API hangs off Backend, Frontend hangs off Project.
	if edges[1].Source != nodes[1].ID || edges[1].Target != nodes[2].ID {
		t.Errorf("edge[1] = %+v", edges[1])
	}
	if edges[2].Source != nodes[0].ID || edges[2].Target != nodes[3].ID {
		t.Errorf("edge[2] = %+v", edges[2])
	}
	if edges[0].ID != "e1-2" {
		t.Errorf("edge id = %q, want e1-2", edges[0].ID)
	}
}

func TestParseOutlineSkipsBlankLines(t *testing.T) {
	nodes, edges := ParseOutline("Alpha\n\n  Beta\n   \n")
	if len(nodes) != 2 {
		t.Fatalf("nodes = %d, want 2", len(nodes))
	}
	if len(edges) != 1 {
		t.Fatalf("edges = %d, want 1", len(edges))
	}
	if nodes[1].Y != 100 {
		t.Errorf("second node y = %d, blank lines must not advance layout", nodes[1].Y)
	}
}

func TestParseOutlineEmpty(t *testing.T) {
	nodes, edges := ParseOutline("")
	if len(nodes) != 0 || len(edges) != 0 {
		t.Fatalf("empty outline produced %d nodes, %d edges", len(nodes), len(edges))
	}
}
