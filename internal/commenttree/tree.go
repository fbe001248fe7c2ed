// Package commenttree mutates the per-post comment forest.
//
// A forest is the ordered slice of root comments of one post; every node owns its
// replies. Mutations never modify their input: the returned forest shares every
// subtree that is not on the path from a root to the mutated node.
package commenttree

import (
	"errors"

	"github.com/noah-isme/subnets-api/internal/models"
)

// DefaultMaxDepth bounds traversal when Engine.MaxDepth is not set. Root comments have depth 1.
const DefaultMaxDepth = 256

var (
	// ErrCommentNotFound is returned when no node carries the requested id.
	ErrCommentNotFound = errors.New("comment not found")
	// ErrTreeTooDeep is returned when traversal or insertion would exceed the depth limit.
	ErrTreeTooDeep = errors.New("comment tree exceeds maximum depth")
)

// Toggle reports the state of a node after an upvote toggle.
type Toggle struct {
	Upvotes    int  `json:"upvotes"`
	HasUpvoted bool `json:"hasUpvoted"`
}

// Engine applies mutations to comment forests. The zero value is ready to use.
type Engine struct {
	MaxDepth int
}

// Append adds comment to the forest. With an empty parentID the comment becomes the
// last root; otherwise it becomes the newest reply of the first node (depth-first,
// pre-order) whose id equals parentID. When no node matches, the forest is returned
// unchanged together with ErrCommentNotFound.
func (e Engine) Append(forest []models.Comment, comment models.Comment, parentID string) ([]models.Comment, error) {
	if comment.Replies == nil {
		comment.Replies = []models.Comment{}
	}

	if parentID == "" {
		out := make([]models.Comment, len(forest), len(forest)+1)
		copy(out, forest)
		return append(out, comment), nil
	}

	updated, found, err := e.rebuild(forest, parentID, 1, func(parent *models.Comment, depth int) error {
		if depth+1 > e.maxDepth() {
			return ErrTreeTooDeep
		}
		replies := make([]models.Comment, len(parent.Replies), len(parent.Replies)+1)
		copy(replies, parent.Replies)
		parent.Replies = append(replies, comment)
		return nil
	})
	if err != nil {
		return forest, err
	}
	if !found {
		return forest, ErrCommentNotFound
	}
	return updated, nil
}

// ToggleUpvote flips userID's upvote on the node with commentID at any depth.
func (e Engine) ToggleUpvote(forest []models.Comment, commentID, userID string) ([]models.Comment, Toggle, error) {
	var result Toggle

	updated, found, err := e.rebuild(forest, commentID, 1, func(node *models.Comment, _ int) error {
		result.HasUpvoted = node.ToggleUpvote(userID)
		result.Upvotes = node.Reactions.Upvotes
		return nil
	})
	if err != nil {
		return forest, Toggle{}, err
	}
	if !found {
		return forest, Toggle{}, ErrCommentNotFound
	}
	return updated, result, nil
}

// rebuild applies mutate to a copy of the first node matching id and returns nodes
// with only the path to that node replaced. Subtrees below the depth limit are
// skipped; ErrTreeTooDeep is reported only when id was not found elsewhere.
func (e Engine) rebuild(nodes []models.Comment, id string, depth int, mutate func(*models.Comment, int) error) ([]models.Comment, bool, error) {
	var pruned bool
	updated, found, err := e.rebuildAt(nodes, id, depth, mutate, &pruned)
	if err != nil {
		return nil, false, err
	}
	if !found && pruned {
		return nil, false, ErrTreeTooDeep
	}
	return updated, found, nil
}

func (e Engine) rebuildAt(nodes []models.Comment, id string, depth int, mutate func(*models.Comment, int) error, pruned *bool) ([]models.Comment, bool, error) {
	if depth > e.maxDepth() {
		*pruned = true
		return nodes, false, nil
	}

	for i := range nodes {
		if nodes[i].ID == id {
			node := nodes[i]
			if err := mutate(&node, depth); err != nil {
				return nil, false, err
			}
			return replaceAt(nodes, i, node), true, nil
		}

		if len(nodes[i].Replies) == 0 {
			continue
		}

		replies, found, err := e.rebuildAt(nodes[i].Replies, id, depth+1, mutate, pruned)
		if err != nil {
			return nil, false, err
		}
		if found {
			node := nodes[i]
			node.Replies = replies
			return replaceAt(nodes, i, node), true, nil
		}
	}

	return nodes, false, nil
}

func (e Engine) maxDepth() int {
	if e.MaxDepth <= 0 {
		return DefaultMaxDepth
	}
	return e.MaxDepth
}

func replaceAt(nodes []models.Comment, i int, node models.Comment) []models.Comment {
	out := make([]models.Comment, len(nodes))
	copy(out, nodes)
	out[i] = node
	return out
}

// Find returns the first node with id in depth-first pre-order.
func Find(forest []models.Comment, id string) (models.Comment, bool) {
	found, ok := walk(forest, func(node models.Comment, _ int) bool { return node.ID == id })
	return found, ok
}

// Count returns the number of nodes in the forest.
func Count(forest []models.Comment) int {
	total := 0
	walk(forest, func(models.Comment, int) bool {
		total++
		return false
	})
	return total
}

// Depth returns the depth of the deepest node, 0 for an empty forest.
func Depth(forest []models.Comment) int {
	deepest := 0
	walk(forest, func(_ models.Comment, depth int) bool {
		if depth > deepest {
			deepest = depth
		}
		return false
	})
	return deepest
}

type frame struct {
	node  models.Comment
	depth int
}

// walk visits nodes iteratively in depth-first pre-order until visit returns true.
func walk(forest []models.Comment, visit func(models.Comment, int) bool) (models.Comment, bool) {
	stack := make([]frame, 0, len(forest))
	for i := len(forest) - 1; i >= 0; i-- {
		stack = append(stack, frame{node: forest[i], depth: 1})
	}

	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if visit(current.node, current.depth) {
			return current.node, true
		}
		for i := len(current.node.Replies) - 1; i >= 0; i-- {
			stack = append(stack, frame{node: current.node.Replies[i], depth: current.depth + 1})
		}
	}

	return models.Comment{}, false
}
