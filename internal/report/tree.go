// =============================================================================
// Sell Out Trends - Report Tree
// =============================================================================
//
// The grid shows trend rows as a two level tree. With the client hierarchy a
// client group holds one child per product; with the product hierarchy a
// product group holds one child per client. Every node carries the summed
// windows of the rows below it and is classified on its own sums, so a
// client can be "down" overall while one of its products is "new".
//
//   TOTAL
//   ├── CLIENT A            (sums of its products)
//   │   ├── P1 | TYRE 205   (one trend row)
//   │   └── P2 | TYRE 195
//   └── CLIENT B
//
// =============================================================================

package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/sellout-trends/internal/trend"
	"github.com/ginjaninja78/sellout-trends/internal/types"
)

// =============================================================================
// HIERARCHY
// =============================================================================

// Hierarchy selects which attribute forms the outer level of the tree.
type Hierarchy string

const (
	// HierarchyClient groups client -> product.
	HierarchyClient Hierarchy = "client"

	// HierarchyProduct groups product -> client.
	HierarchyProduct Hierarchy = "product"
)

// ParseHierarchy accepts "client" or "product", case-insensitive. An empty
// string selects the client hierarchy.
func ParseHierarchy(s string) (Hierarchy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "client", "clients":
		return HierarchyClient, nil
	case "product", "products":
		return HierarchyProduct, nil
	default:
		return "", fmt.Errorf("unknown hierarchy %q (expected client or product)", s)
	}
}

// Levels names the tree levels, outer first.
func (h Hierarchy) Levels() [2]string {
	if h == HierarchyProduct {
		return [2]string{"product", "client"}
	}
	return [2]string{"client", "product"}
}

// Title is the header of the tree column.
func (h Hierarchy) Title() string {
	if h == HierarchyProduct {
		return "Hierarchy (Product > Client)"
	}
	return "Hierarchy (Client > Product)"
}

// =============================================================================
// NODES
// =============================================================================

// Node is one group or leaf of the report tree.
type Node struct {
	// Label is the client name or the product label.
	Label string

	// Level is "client", "product" or "total".
	Level string

	// Depth is 0 for the total, 1 for outer groups and 2 for leaves.
	Depth int

	// Classification is set on product nodes.
	Classification string

	// Windows holds the summed quantities, in trend.Windows order.
	Windows []types.WindowSum

	// ReferenceYearTotal is the summed reference year quantity.
	ReferenceYearTotal decimal.Decimal

	// LastActivity is the latest activity below the node, nil if none.
	LastActivity *time.Time

	// Rows counts the trend rows merged into the node.
	Rows int

	Children []*Node
}

// Trends classifies every window of the node.
func (n *Node) Trends() []trend.Trend {
	out := make([]trend.Trend, len(n.Windows))
	for i, w := range n.Windows {
		out[i] = trend.Classify(w.Previous, w.Current)
	}
	return out
}

// LastActivityEpochMs is the last activity in Unix milliseconds, 0 if none.
func (n *Node) LastActivityEpochMs() int64 {
	if n.LastActivity == nil {
		return 0
	}
	return n.LastActivity.UnixMilli()
}

// Walk visits n and its descendants depth first, parents before children.
func (n *Node) Walk(fn func(*Node)) {
	fn(n)
	for _, c := range n.Children {
		c.Walk(fn)
	}
}

// add folds a trend row into the node sums.
func (n *Node) add(r types.TrendRow) {
	for i := range r.Windows {
		if i >= len(n.Windows) {
			break
		}
		n.Windows[i].Current = n.Windows[i].Current.Add(r.Windows[i].Current)
		n.Windows[i].Previous = n.Windows[i].Previous.Add(r.Windows[i].Previous)
	}
	n.ReferenceYearTotal = n.ReferenceYearTotal.Add(r.ReferenceYearTotal)
	if r.LastActivity != nil && (n.LastActivity == nil || r.LastActivity.After(*n.LastActivity)) {
		last := *r.LastActivity
		n.LastActivity = &last
	}
	n.Rows++
}

func newNode(label, level string, depth int) *Node {
	windows := make([]types.WindowSum, len(trend.Windows))
	for i, w := range trend.Windows {
		windows[i] = types.WindowSum{Label: w.Label, Months: w.Months, Current: decimal.Zero, Previous: decimal.Zero}
	}
	return &Node{
		Label:              label,
		Level:              level,
		Depth:              depth,
		Windows:            windows,
		ReferenceYearTotal: decimal.Zero,
	}
}

// =============================================================================
// TREE
// =============================================================================

// Tree is the grouped report.
type Tree struct {
	Hierarchy Hierarchy

	// Total sums every row. Its children are the outer groups.
	Total *Node
}

// Groups returns the outer level nodes.
func (t *Tree) Groups() []*Node {
	if t == nil || t.Total == nil {
		return nil
	}
	return t.Total.Children
}

// BuildTree groups trend rows into a two level tree ordered by h. Sums and
// last activity are rolled up to every ancestor and children are sorted by
// label.
func BuildTree(rows []types.TrendRow, h Hierarchy) *Tree {
	if h == "" {
		h = HierarchyClient
	}
	levels := h.Levels()
	total := newNode("TOTAL", "total", 0)

	outer := make(map[string]*Node)
	inner := make(map[string]map[string]*Node)

	for _, r := range rows {
		outerLabel, innerLabel := r.Client, r.ProductLabel
		if h == HierarchyProduct {
			outerLabel, innerLabel = r.ProductLabel, r.Client
		}

		group, ok := outer[outerLabel]
		if !ok {
			group = newNode(outerLabel, levels[0], 1)
			if h == HierarchyProduct {
				group.Classification = r.Classification
			}
			outer[outerLabel] = group
			inner[outerLabel] = make(map[string]*Node)
			total.Children = append(total.Children, group)
		}

		// Rows of one product with different classifications stay apart.
		leafKey := innerLabel + "\x00" + r.Classification
		leaf, ok := inner[outerLabel][leafKey]
		if !ok {
			leaf = newNode(innerLabel, levels[1], 2)
			if h == HierarchyClient {
				leaf.Classification = r.Classification
			}
			inner[outerLabel][leafKey] = leaf
			group.Children = append(group.Children, leaf)
		}

		leaf.add(r)
		group.add(r)
		total.add(r)
	}

	sortNodes(total.Children)
	for _, g := range total.Children {
		sortNodes(g.Children)
	}

	return &Tree{Hierarchy: h, Total: total}
}

func sortNodes(nodes []*Node) {
	sort.SliceStable(nodes, func(i, j int) bool {
		if nodes[i].Label != nodes[j].Label {
			return nodes[i].Label < nodes[j].Label
		}
		return nodes[i].Classification < nodes[j].Classification
	})
}
