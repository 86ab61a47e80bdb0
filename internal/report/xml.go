// =============================================================================
// Sell Out Trends - XML Writer
// =============================================================================
//
// Writes the report tree as nested XML. Each group level becomes a <group>
// element numbered globally in document order:
//
//   <selloutTrends hierarchy="client" maxDate="2023-07-20" referenceYear="2023">
//     <group n="1" level="client" label="ACME">
//       <referenceYearTotal>14</referenceYearTotal>
//       <lastActivity epochMs="1689811200000">2023-07-20</lastActivity>
//       <window label="6M" months="6" current="4" previous="10" trend="down"/>
//       <group n="2" level="product" label="P1 | TYRE" classification="A">
//         ...
//       </group>
//     </group>
//   </selloutTrends>
//
// =============================================================================

package report

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

// =============================================================================
// XML GENERATION OPTIONS
// =============================================================================

// XMLOptions contains options for XML generation.
type XMLOptions struct {
	// Indent is the string used for indentation.
	// Default: "  " (two spaces)
	Indent string

	// IncludeXMLDeclaration determines whether to include the XML declaration.
	IncludeXMLDeclaration bool

	// XMLVersion and Encoding go into the declaration.
	XMLVersion string
	Encoding   string

	// RootElement is the name of the document element.
	// Default: "selloutTrends"
	RootElement string

	// RootAttributes are additional attributes for the root element.
	RootAttributes map[string]string

	// IndexAttribute is the attribute holding the global group number.
	// Default: "n"
	IndexAttribute string
}

// DefaultXMLOptions returns the default generation options.
func DefaultXMLOptions() XMLOptions {
	return XMLOptions{
		Indent:                "  ",
		IncludeXMLDeclaration: true,
		XMLVersion:            "1.0",
		Encoding:              "UTF-8",
		RootElement:           "selloutTrends",
		RootAttributes:        make(map[string]string),
		IndexAttribute:        "n",
	}
}

// =============================================================================
// XML GENERATION
// =============================================================================

// WriteXML renders tree as XML.
func WriteXML(w io.Writer, tree *Tree, meta Meta, options XMLOptions) error {
	var buffer bytes.Buffer

	if options.IncludeXMLDeclaration {
		buffer.WriteString(fmt.Sprintf("<?xml version=\"%s\" encoding=\"%s\"?>\n",
			options.XMLVersion, options.Encoding))
	}

	root := buildDocument(tree, meta, options)
	writeElement(&buffer, root, options.Indent, 0)

	if _, err := w.Write(buffer.Bytes()); err != nil {
		return fmt.Errorf("failed to write XML: %w", err)
	}
	return nil
}

// XMLElement represents a generic XML element.
type XMLElement struct {
	XMLName    xml.Name
	Attributes []xml.Attr
	Value      string
	Children   []XMLElement
}

func buildDocument(tree *Tree, meta Meta, options XMLOptions) XMLElement {
	root := XMLElement{XMLName: xml.Name{Local: options.RootElement}}

	root.Attributes = append(root.Attributes, attr("hierarchy", string(tree.Hierarchy)))
	if !meta.MaxDate.IsZero() {
		root.Attributes = append(root.Attributes, attr("maxDate", meta.MaxDate.Format("2006-01-02")))
	}
	if meta.ReferenceYear != 0 {
		root.Attributes = append(root.Attributes, attr("referenceYear", strconv.Itoa(meta.ReferenceYear)))
	}

	// Map order is random; keep extra attributes stable.
	keys := make([]string, 0, len(options.RootAttributes))
	for k := range options.RootAttributes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		root.Attributes = append(root.Attributes, attr(k, options.RootAttributes[k]))
	}

	if filters := buildFilters(meta.Filters); len(filters.Children) > 0 {
		root.Children = append(root.Children, filters)
	}

	if tree.Total != nil {
		root.Children = append(root.Children, measureElements(tree.Total)...)
	}

	index := 1
	for _, group := range tree.Groups() {
		root.Children = append(root.Children, buildGroupElement(group, options, &index))
	}
	return root
}

func buildFilters(filters map[string][]string) XMLElement {
	element := XMLElement{XMLName: xml.Name{Local: "filters"}}

	dims := make([]string, 0, len(filters))
	for d := range filters {
		dims = append(dims, d)
	}
	sort.Strings(dims)

	for _, d := range dims {
		values := filters[d]
		if len(values) == 0 {
			continue
		}
		filter := XMLElement{
			XMLName:    xml.Name{Local: "filter"},
			Attributes: []xml.Attr{attr("dimension", d)},
		}
		for _, v := range values {
			filter.Children = append(filter.Children, createSimpleElement("value", v))
		}
		element.Children = append(element.Children, filter)
	}
	return element
}

// buildGroupElement renders a node and its children. index is the global
// group counter and continues across levels.
func buildGroupElement(node *Node, options XMLOptions, index *int) XMLElement {
	element := XMLElement{
		XMLName: xml.Name{Local: "group"},
		Attributes: []xml.Attr{
			attr(options.IndexAttribute, strconv.Itoa(*index)),
			attr("level", node.Level),
			attr("label", node.Label),
		},
	}
	if node.Classification != "" {
		element.Attributes = append(element.Attributes, attr("classification", node.Classification))
	}
	(*index)++

	element.Children = append(element.Children, measureElements(node)...)
	for _, child := range node.Children {
		element.Children = append(element.Children, buildGroupElement(child, options, index))
	}
	return element
}

// measureElements renders the sums of a node.
func measureElements(node *Node) []XMLElement {
	out := []XMLElement{createSimpleElement("referenceYearTotal", node.ReferenceYearTotal.String())}

	last := XMLElement{
		XMLName:    xml.Name{Local: "lastActivity"},
		Attributes: []xml.Attr{attr("epochMs", strconv.FormatInt(node.LastActivityEpochMs(), 10))},
	}
	if node.LastActivity != nil {
		last.Value = node.LastActivity.Format("2006-01-02")
	}
	out = append(out, last)

	trends := node.Trends()
	for i, w := range node.Windows {
		out = append(out, XMLElement{
			XMLName: xml.Name{Local: "window"},
			Attributes: []xml.Attr{
				attr("label", w.Label),
				attr("months", strconv.Itoa(w.Months)),
				attr("current", w.Current.String()),
				attr("previous", w.Previous.String()),
				attr("trend", string(trends[i])),
			},
		})
	}
	return out
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func attr(name, value string) xml.Attr {
	return xml.Attr{Name: xml.Name{Local: name}, Value: value}
}

// createSimpleElement creates a simple XML element with a text value.
func createSimpleElement(name, value string) XMLElement {
	return XMLElement{
		XMLName: xml.Name{Local: name},
		Value:   value,
	}
}

// writeElement writes an XML element to the buffer with indentation.
func writeElement(buffer *bytes.Buffer, element XMLElement, indent string, level int) {
	buffer.WriteString(strings.Repeat(indent, level))

	buffer.WriteString("<")
	buffer.WriteString(element.XMLName.Local)
	for _, a := range element.Attributes {
		buffer.WriteString(fmt.Sprintf(" %s=\"%s\"", a.Name.Local, escapeXML(a.Value)))
	}

	// Self-closing tag.
	if len(element.Children) == 0 && element.Value == "" {
		buffer.WriteString("/>\n")
		return
	}

	buffer.WriteString(">")

	if element.Value != "" {
		buffer.WriteString(escapeXML(element.Value))
	} else {
		buffer.WriteString("\n")
		for _, child := range element.Children {
			writeElement(buffer, child, indent, level+1)
		}
		buffer.WriteString(strings.Repeat(indent, level))
	}

	buffer.WriteString("</")
	buffer.WriteString(element.XMLName.Local)
	buffer.WriteString(">\n")
}

// escapeXML escapes special characters for XML.
func escapeXML(s string) string {
	var buffer bytes.Buffer

	for _, r := range s {
		switch r {
		case '&':
			buffer.WriteString("&amp;")
		case '<':
			buffer.WriteString("&lt;")
		case '>':
			buffer.WriteString("&gt;")
		case '"':
			buffer.WriteString("&quot;")
		case '\'':
			buffer.WriteString("&apos;")
		default:
			buffer.WriteRune(r)
		}
	}

	return buffer.String()
}
