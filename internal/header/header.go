// Package header parses and validates the delimited header block that opens
// every skill package document.
package header

import (
	"bytes"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/starford/skillgate/internal/models"
)

// Sentinel opens and closes the header block.
const Sentinel = "---"

// Header is the typed view of a header block.
type Header struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Requires    []string `json:"requires"`
	Related     []string `json:"related"`
	Resources   []string `json:"resources"`
}

// Result is the outcome of Parse.
type Result struct {
	Info models.HeaderInfo
	// BodyOffset is the byte offset in the input where the body starts.
	// It is 0 when no header block was recognised.
	BodyOffset int
}

// Header returns the typed header.
func (r Result) Header() Header { return FromInfo(r.Info) }

// FromInfo builds the typed header from parsed header info.
func FromInfo(info models.HeaderInfo) Header {
	return Header{
		Name:        info.Name,
		Description: info.Desc,
		Requires:    info.Requires,
		Related:     info.Related,
		Resources:   info.Resources,
	}
}

// Parse extracts the header block. The opening sentinel must be the first
// line; anything else is reported as a problem and the whole input is body.
func Parse(data []byte) Result {
	first, rest, found := cutLine(data)
	if !isSentinel(first) {
		return Result{Info: models.HeaderInfo{
			Problems: []string{"header block missing: line 1 is not " + Sentinel},
		}}
	}
	if !found {
		return unterminated()
	}

	blockStart := len(data) - len(rest)
	for {
		line, next, more := cutLine(rest)
		lineStart := len(data) - len(rest)
		if isSentinel(line) {
			block := data[blockStart:lineStart]
			bodyOffset := len(data) - len(next)
			info, err := decode(block)
			if err != nil {
				return Result{Info: models.HeaderInfo{
					Problems: []string{fmt.Sprintf("header block invalid: %v", err)},
				}, BodyOffset: bodyOffset}
			}
			return Result{Info: info, BodyOffset: bodyOffset}
		}
		if !more {
			return unterminated()
		}
		rest = next
	}
}

func unterminated() Result {
	return Result{Info: models.HeaderInfo{
		Problems: []string{"header block unterminated: no closing " + Sentinel},
	}}
}

// cutLine splits off the first line (without its line ending).
func cutLine(data []byte) (line, rest []byte, found bool) {
	i := bytes.IndexByte(data, '\n')
	if i < 0 {
		return data, nil, false
	}
	return data[:i], data[i+1:], true
}

func isSentinel(line []byte) bool {
	return strings.TrimRight(string(line), " \t\r") == Sentinel
}

func decode(block []byte) (models.HeaderInfo, error) {
	info := models.HeaderInfo{Present: true}

	var root yaml.Node
	if err := yaml.Unmarshal(block, &root); err != nil {
		return models.HeaderInfo{}, err
	}
	if root.Kind == 0 {
		return info, nil // empty block
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 || root.Content[0].Kind != yaml.MappingNode {
		return models.HeaderInfo{}, fmt.Errorf("top level must be a mapping")
	}

	m := root.Content[0]
	for i := 0; i+1 < len(m.Content); i += 2 {
		key, val := m.Content[i].Value, m.Content[i+1]
		info.Fields = append(info.Fields, models.HeaderField{Key: key, Value: flatten(val)})

		var err error
		switch key {
		case "name":
			info.Name, err = scalar(key, val)
		case "description":
			info.Desc, err = scalar(key, val)
		case "requires":
			info.Requires, err = stringList(key, val)
		case "related":
			info.Related, err = stringList(key, val)
		case "resources":
			info.Resources, err = stringList(key, val)
		}
		if err != nil {
			return models.HeaderInfo{}, err
		}
	}
	return info, nil
}

func scalar(key string, n *yaml.Node) (string, error) {
	if n.Kind != yaml.ScalarNode {
		return "", fmt.Errorf("field %q must be a string", key)
	}
	if n.Tag == "!!null" {
		return "", nil
	}
	return strings.TrimSpace(n.Value), nil
}

// stringList accepts a single scalar or a sequence of scalars.
func stringList(key string, n *yaml.Node) ([]string, error) {
	switch n.Kind {
	case yaml.ScalarNode:
		if n.Tag == "!!null" || strings.TrimSpace(n.Value) == "" {
			return nil, nil
		}
		return []string{strings.TrimSpace(n.Value)}, nil
	case yaml.SequenceNode:
		out := make([]string, 0, len(n.Content))
		for _, item := range n.Content {
			if item.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("field %q must be a list of strings", key)
			}
			if v := strings.TrimSpace(item.Value); v != "" {
				out = append(out, v)
			}
		}
		return out, nil
	default:
		return nil, fmt.Errorf("field %q must be a list of strings", key)
	}
}

func flatten(n *yaml.Node) string {
	switch n.Kind {
	case yaml.ScalarNode:
		return n.Value
	case yaml.SequenceNode:
		parts := make([]string, 0, len(n.Content))
		for _, c := range n.Content {
			parts = append(parts, flatten(c))
		}
		return strings.Join(parts, ", ")
	default:
		out, err := yaml.Marshal(n)
		if err != nil {
			return ""
		}
		return strings.TrimSpace(string(out))
	}
}
