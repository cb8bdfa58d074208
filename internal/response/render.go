package response

// NodeKind tells the presentation layer how to draw a Node.
type NodeKind int

const (
	NodeText NodeKind = iota
	NodeImage
	NodeGallery
	NodeGroup
)

// Placeholder texts used by the renderer.
const (
	TextNotAvailable = "N/A"
	TextYes          = "Yes"
	TextNo           = "No"
	TextNone         = "None"
	TextNoData       = "No data"
	TextTooDeep      = "[nested too deeply]"
)

// Node is the rendered form of one Value. Leaves carry Text or Images,
// groups carry Children. Label is empty for the root.
type Node struct {
	Label    string
	Kind     NodeKind
	Text     string
	Images   []string
	Children []*Node
	Depth    int
}

// IsLeaf reports whether the node has no children to descend into.
func (n *Node) IsLeaf() bool {
	return n.Kind != NodeGroup
}

// Renderer converts Values into Node trees with a nesting cap.
type Renderer struct {
	MaxDepth int
}

// NewRenderer creates a renderer. A non-positive maxDepth uses MaxDepth.
func NewRenderer(maxDepth int) *Renderer {
	if maxDepth <= 0 {
		maxDepth = MaxDepth
	}
	return &Renderer{MaxDepth: maxDepth}
}

// Render renders v with the default depth cap.
func Render(v Value, depth int) *Node {
	return NewRenderer(MaxDepth).Render(v, depth)
}

// Render converts v into a display tree. depth is the nesting level of v and
// is stored on every node for indentation. Values deeper than the cap become
// a placeholder leaf.
func (r *Renderer) Render(v Value, depth int) *Node {
	if depth > r.MaxDepth {
		return &Node{Kind: NodeText, Text: TextTooDeep, Depth: depth}
	}

	switch Classify(v) {
	case KindNull:
		return textNode(TextNotAvailable, depth)
	case KindBool:
		if v.BoolValue() {
			return textNode(TextYes, depth)
		}
		return textNode(TextNo, depth)
	case KindImage:
		return &Node{Kind: NodeImage, Images: []string{v.text}, Depth: depth}
	case KindImageList:
		images := make([]string, 0, len(v.items))
		for _, item := range v.items {
			images = append(images, item.Text())
		}
		return &Node{Kind: NodeGallery, Images: images, Depth: depth}
	case KindScalarList:
		joined, err := v.Join(", ")
		if err != nil {
			return textNode(TextTooDeep, depth)
		}
		return textNode(joined, depth)
	case KindEmptyList:
		return textNode(TextNone, depth)
	case KindNested:
		return r.renderObject(v, depth)
	default:
		return textNode(v.Text(), depth)
	}
}

func (r *Renderer) renderObject(v Value, depth int) *Node {
	if v.Len() == 0 {
		return textNode(TextNoData, depth)
	}

	group := &Node{Kind: NodeGroup, Depth: depth}
	for el := v.fields.Front(); el != nil; el = el.Next() {
		child := r.Render(el.Value, depth+1)
		child.Label = FormatKey(el.Key)
		group.Children = append(group.Children, child)
	}
	return group
}

func textNode(text string, depth int) *Node {
	return &Node{Kind: NodeText, Text: text, Depth: depth}
}
