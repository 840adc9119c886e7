package fileparse

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/jmylchreest/apiforge/internal/models"
)

// Parse decodes data as fileType into a JSON-compatible value (map,
// slice, or scalar). AUTO sniffs the content: first non-whitespace
// byte '{'/'[' -> JSON, '<' -> XML, otherwise CSV.
func Parse(data []byte, fileType models.FileType) (any, error) {
	switch fileType {
	case models.FileTypeJSON:
		return parseJSON(data)
	case models.FileTypeCSV:
		return parseCSV(data)
	case models.FileTypeXML:
		return parseXML(data)
	case models.FileTypeAuto, "":
		return parseAuto(data)
	default:
		return nil, fmt.Errorf("fileparse: unknown file type %q", fileType)
	}
}

func parseAuto(data []byte) (any, error) {
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if len(trimmed) > 0 {
		switch trimmed[0] {
		case '{', '[':
			return parseJSON(data)
		case '<':
			return parseXML(data)
		}
	}
	// Fall back to content-type sniffing for files without a leading
	// JSON/XML byte (e.g. a CSV preceded by a BOM, or binary-ish input).
	mt := mimetype.Detect(data)
	if strings.Contains(mt.String(), "xml") {
		return parseXML(data)
	}
	if strings.Contains(mt.String(), "json") {
		return parseJSON(data)
	}
	return parseCSV(data)
}

func parseJSON(data []byte) (any, error) {
	var v any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("fileparse: json: %w", err)
	}
	return v, nil
}

// parseCSV reads RFC 4180 CSV with a header row, returning a slice of
// string-keyed maps (one per data row).
func parseCSV(data []byte) (any, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("fileparse: csv: %w", err)
	}
	if len(records) == 0 {
		return []any{}, nil
	}
	header := records[0]
	out := make([]any, 0, len(records)-1)
	for _, row := range records[1:] {
		obj := make(map[string]any, len(header))
		for i, col := range header {
			if i < len(row) {
				obj[col] = row[i]
			} else {
				obj[col] = ""
			}
		}
		out = append(out, obj)
	}
	return out, nil
}

// xmlNode is an intermediate attribute-preserving XML tree, converted to
// the @name/#text JSON convention by toJSON.
type xmlNode struct {
	XMLName  xml.Name
	Attrs    []xml.Attr `xml:",any,attr"`
	Content  string     `xml:",chardata"`
	Children []xmlNode  `xml:",any"`
}

func parseXML(data []byte) (any, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	var root xmlNode
	if err := dec.Decode(&root); err != nil {
		return nil, fmt.Errorf("fileparse: xml: %w", err)
	}
	return map[string]any{root.XMLName.Local: nodeToJSON(root)}, nil
}

// nodeToJSON converts an xmlNode into the @name/#text JSON convention:
// attributes become "@name" keys, text content becomes "#text" when the
// node also has attributes or children, and repeated child tags collapse
// into an array.
func nodeToJSON(n xmlNode) any {
	if len(n.Attrs) == 0 && len(n.Children) == 0 {
		return strings.TrimSpace(n.Content)
	}

	obj := map[string]any{}
	for _, a := range n.Attrs {
		obj["@"+a.Name.Local] = a.Value
	}

	childValues := map[string][]any{}
	var order []string
	for _, c := range n.Children {
		name := c.XMLName.Local
		if _, seen := childValues[name]; !seen {
			order = append(order, name)
		}
		childValues[name] = append(childValues[name], nodeToJSON(c))
	}
	for _, name := range order {
		vals := childValues[name]
		if len(vals) == 1 {
			obj[name] = vals[0]
		} else {
			obj[name] = vals
		}
	}

	if text := strings.TrimSpace(n.Content); text != "" {
		obj["#text"] = text
	}
	return obj
}
