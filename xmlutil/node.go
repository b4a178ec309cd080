package xmlutil

import (
	"bytes"
	"encoding/xml"
	"io"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// XMLName is a shortcut for creating xml.Name, where typically you want at least
// a local name, and perhaps a prefix as well.
func XMLName(local string, prefix ...string) xml.Name {
	n := xml.Name{Local: local}
	if len(prefix) > 0 {
		n.Space = prefix[0]
	}
	return n
}

// NodeType is the type of a Node.
type NodeType int

const (
	// ElementNode is an element, which may have attributes and children.
	ElementNode NodeType = iota
	// TextNode is character data.
	TextNode
)

// Node is an element or text node of a request document.
//
// Name.Space holds the prefix exactly as written (or as given to XMLName),
// never a namespace URI.
type Node struct {
	Type     NodeType
	Name     xml.Name
	Attr     []xml.Attr
	Data     string
	Children []*Node
}

// Element returns a new element node named local with the given children.
func Element(local string, children ...*Node) *Node {
	return &Node{Type: ElementNode, Name: XMLName(local), Children: children}
}

// Text returns a new text node.
func Text(data string) *Node { return &Node{Type: TextNode, Data: data} }

// Append appends children to n, returning n.
func (n *Node) Append(children ...*Node) *Node {
	n.Children = append(n.Children, children...)
	return n
}

// SetAttr sets the value of the attribute name, replacing any existing
// value. It returns n.
func (n *Node) SetAttr(name xml.Name, value string) *Node {
	for i := range n.Attr {
		if n.Attr[i].Name == name {
			n.Attr[i].Value = value
			return n
		}
	}
	n.Attr = append(n.Attr, xml.Attr{Name: name, Value: value})
	return n
}

// AttrValue returns the value of the unprefixed attribute local.
func (n *Node) AttrValue(local string) (string, bool) {
	for _, a := range n.Attr {
		if a.Name.Space == "" && a.Name.Local == local {
			return a.Value, true
		}
	}
	return "", false
}

// Elements returns the element children of n.
func (n *Node) Elements() (elems []*Node) {
	for _, c := range n.Children {
		if c.Type == ElementNode {
			elems = append(elems, c)
		}
	}
	return elems
}

// Namespaces returns the xmlns:<prefix> declarations made on n.
func (n *Node) Namespaces() PrefixMap { return NewPrefixMap(n.Attr...) }

// Render writes n to buf.
func (n *Node) Render(buf *bytes.Buffer) {
	if n.Type == TextNode {
		_ = xml.EscapeText(buf, []byte(n.Data))
		return
	}
	name := qualified(n.Name)
	buf.WriteByte('<')
	buf.WriteString(name)
	for _, a := range n.Attr {
		buf.WriteByte(' ')
		buf.WriteString(qualified(a.Name))
		buf.WriteString(`="`)
		_ = xml.EscapeText(buf, []byte(a.Value))
		buf.WriteByte('"')
	}
	if len(n.Children) == 0 {
		buf.WriteString("/>")
		return
	}
	buf.WriteByte('>')
	for _, c := range n.Children {
		c.Render(buf)
	}
	buf.WriteString("</")
	buf.WriteString(name)
	buf.WriteByte('>')
}

// Bytes returns n rendered.
func (n *Node) Bytes() []byte {
	var buf bytes.Buffer
	n.Render(&buf)
	return buf.Bytes()
}

func (n *Node) String() string { return string(n.Bytes()) }

func qualified(name xml.Name) string {
	if name.Space == "" {
		return name.Local
	}
	return name.Space + ":" + name.Local
}

// Parse parses an XML fragment holding one or more sibling elements,
// returning the top level elements in document order.
//
// Whitespace-only text is dropped. Comments, processing instructions
// (including any XML declaration) and directives are discarded.
func Parse(fragment string) ([]*Node, error) {
	d := xml.NewDecoder(strings.NewReader(fragment))
	var top, stack []*Node
	for {
		tok, err := d.RawToken()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "invalid xml fragment")
		}
		switch t := tok.(type) {
		case xml.StartElement:
			n := &Node{Type: ElementNode, Name: t.Name, Attr: append([]xml.Attr(nil), t.Attr...)}
			if len(stack) == 0 {
				top = append(top, n)
			} else {
				stack[len(stack)-1].Append(n)
			}
			stack = append(stack, n)
		case xml.EndElement:
			if len(stack) == 0 || stack[len(stack)-1].Name != t.Name {
				return nil, errors.Errorf("invalid xml fragment: unexpected end element </%s>", qualified(t.Name))
			}
			stack = stack[:len(stack)-1]
		case xml.CharData:
			if len(bytes.TrimSpace(t)) == 0 {
				continue
			}
			if len(stack) == 0 {
				return nil, errors.New("invalid xml fragment: character data outside of an element")
			}
			stack[len(stack)-1].Append(Text(string(t)))
		}
	}
	if len(stack) > 0 {
		return nil, errors.Errorf("invalid xml fragment: element <%s> is not closed", qualified(stack[len(stack)-1].Name))
	}
	if len(top) == 0 {
		return nil, errors.New("invalid xml fragment: no element found")
	}
	return top, nil
}

// PrefixMap is a prefix to namespace URI map
type PrefixMap map[string]string

// NewPrefixMap returns a PrefixMap of the xmlns:<prefix> declarations in attrs.
func NewPrefixMap(attrs ...xml.Attr) PrefixMap {
	pmap := PrefixMap{}
	for _, attr := range attrs {
		if attr.Name.Space == "xmlns" {
			pmap[attr.Name.Local] = attr.Value
		}
	}
	return pmap
}

// Attr returns the prefix map contents as a series of xmlns:<prefix>=<nsuri> attributes,
// sorted lexically by prefix.
func (m PrefixMap) Attr() (a []xml.Attr) {
	for k, v := range m {
		a = append(a, xml.Attr{Name: xml.Name{Space: "xmlns", Local: k}, Value: v})
	}
	sort.Slice(a, func(i int, j int) bool { return a[i].Name.Local < a[j].Name.Local })
	return a
}

// Merge adds the declarations in o not already present in m.
func (m PrefixMap) Merge(o PrefixMap) {
	for k, v := range o {
		if _, ok := m[k]; !ok {
			m[k] = v
		}
	}
}
