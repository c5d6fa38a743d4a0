package feed

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"golang.org/x/text/unicode/norm"

	"AutoBlogger/internal/domain"
)

// postsKey is the reserved member holding the posts of a node in the
// structure file.
const postsKey = "posts"

var (
	// ErrReservedName rejects a category named like the posts member.
	ErrReservedName = errors.New(`category name "posts" is reserved`)
	// ErrInvalidSegment rejects empty or path-like category names.
	ErrInvalidSegment = errors.New("invalid category name")
	// ErrEmptyPath rejects an operation without any category.
	ErrEmptyPath = errors.New("empty category path")
	// ErrUnknownPath is returned when a post targets a category that was never ensured.
	ErrUnknownPath = errors.New("unknown category path")
)

// Node is one category: its children in insertion order and its posts.
type Node struct {
	Name     string
	Children []*Node
	Posts    []domain.Post
}

// Tree is the category hierarchy with an index from path to node.
type Tree struct {
	root  *Node
	index map[string]*Node
}

// NewTree returns an empty tree.
func NewTree() *Tree {
	return &Tree{root: &Node{}, index: map[string]*Node{}}
}

// LoadTree reads the structure file; a missing file yields an empty tree.
func LoadTree(path string) (*Tree, error) {
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return NewTree(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read structure %s: %w", path, err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return NewTree(), nil
	}

	tree := NewTree()
	if err := json.Unmarshal(raw, tree); err != nil {
		return nil, fmt.Errorf("parse structure %s: %w", path, err)
	}
	return tree, nil
}

// Save writes the whole tree to path atomically.
func (t *Tree) Save(path string) error {
	raw, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("encode structure: %w", err)
	}
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, raw, "", "    "); err != nil {
		return fmt.Errorf("indent structure: %w", err)
	}
	pretty.WriteByte('\n')
	if err := writeFileAtomic(path, pretty.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write structure %s: %w", path, err)
	}
	return nil
}

// NormalizePath trims and NFC-normalizes every segment and validates it.
func NormalizePath(path []string) ([]string, error) {
	if len(path) == 0 {
		return nil, ErrEmptyPath
	}
	out := make([]string, len(path))
	for i, segment := range path {
		segment = norm.NFC.String(strings.TrimSpace(segment))
		switch {
		case segment == postsKey:
			return nil, ErrReservedName
		case segment == "", segment == ".", segment == "..", strings.ContainsAny(segment, `/\`):
			return nil, fmt.Errorf("%w: %q", ErrInvalidSegment, path[i])
		}
		out[i] = segment
	}
	return out, nil
}

// Ensure creates the missing nodes along path and returns the prefixes that
// were created, shortest first. Existing nodes are left untouched.
func (t *Tree) Ensure(path []string) ([][]string, error) {
	path, err := NormalizePath(path)
	if err != nil {
		return nil, err
	}

	var created [][]string
	parent := t.root
	for depth := range path {
		prefix := path[:depth+1]
		node, ok := t.index[pathKey(prefix)]
		if !ok {
			node = &Node{Name: path[depth]}
			parent.Children = append(parent.Children, node)
			t.index[pathKey(prefix)] = node
			created = append(created, append([]string(nil), prefix...))
		}
		parent = node
	}
	return created, nil
}

// Lookup returns the node at path.
func (t *Tree) Lookup(path []string) (*Node, bool) {
	path, err := NormalizePath(path)
	if err != nil {
		return nil, false
	}
	node, ok := t.index[pathKey(path)]
	return node, ok
}

// AppendPost adds post to the node at path, which must exist.
func (t *Tree) AppendPost(path []string, post domain.Post) error {
	node, ok := t.Lookup(path)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownPath, strings.Join(path, "/"))
	}
	node.Posts = append(node.Posts, post)
	return nil
}

// Len returns the number of category nodes.
func (t *Tree) Len() int {
	return len(t.index)
}

func pathKey(path []string) string {
	return strings.Join(path, "\x1f")
}

// MarshalJSON writes nested objects keyed by category name, children in
// insertion order, with the posts list under the reserved key.
func (t *Tree) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := encodeNode(&buf, t.root); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeNode(buf *bytes.Buffer, node *Node) error {
	buf.WriteByte('{')
	first := true
	member := func(name string) error {
		if !first {
			buf.WriteByte(',')
		}
		first = false
		key, err := json.Marshal(name)
		if err != nil {
			return err
		}
		buf.Write(key)
		buf.WriteByte(':')
		return nil
	}

	for _, child := range node.Children {
		if err := member(child.Name); err != nil {
			return err
		}
		if err := encodeNode(buf, child); err != nil {
			return err
		}
	}
	if node.Posts != nil {
		if err := member(postsKey); err != nil {
			return err
		}
		posts, err := json.Marshal(node.Posts)
		if err != nil {
			return err
		}
		buf.Write(posts)
	}
	buf.WriteByte('}')
	return nil
}

// UnmarshalJSON reads the structure file format and rebuilds the index.
func (t *Tree) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	root := &Node{}
	if err := decodeNode(dec, root); err != nil {
		return err
	}
	t.root = root
	t.index = map[string]*Node{}
	t.reindex(root, nil)
	return nil
}

func decodeNode(dec *json.Decoder, node *Node) error {
	if err := expectDelim(dec, '{'); err != nil {
		return err
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("structure: unexpected token %v", tok)
		}
		if key == postsKey {
			var posts []domain.Post
			if err := dec.Decode(&posts); err != nil {
				return fmt.Errorf("structure: posts of %q: %w", node.Name, err)
			}
			node.Posts = append(node.Posts, posts...)
			if node.Posts == nil {
				node.Posts = []domain.Post{}
			}
			continue
		}
		child := &Node{Name: norm.NFC.String(key)}
		if err := decodeNode(dec, child); err != nil {
			return err
		}
		node.Children = append(node.Children, child)
	}
	return expectDelim(dec, '}')
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if got, ok := tok.(json.Delim); !ok || got != want {
		return fmt.Errorf("structure: expected %q, got %v", want, tok)
	}
	return nil
}

func (t *Tree) reindex(node *Node, prefix []string) {
	for _, child := range node.Children {
		path := append(append([]string(nil), prefix...), child.Name)
		t.index[pathKey(path)] = child
		t.reindex(child, path)
	}
}
