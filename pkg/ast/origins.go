package ast

// Walk visits root and its descendants depth-first in document order. Returning
// false from visit skips the node's children.
func Walk(root *Node, visit func(*Node) bool) {
	if root == nil {
		return
	}
	if !visit(root) {
		return
	}
	for _, child := range root.Children {
		Walk(child, visit)
	}
}

// AnnotateOrigins records the source path on every node reachable from root.
func AnnotateOrigins(root *Node, path string) {
	if path == "" {
		return
	}
	Walk(root, func(n *Node) bool {
		n.Origin = path
		return true
	})
}
