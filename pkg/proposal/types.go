// Package proposal describes a proposed redistribution as sparse ranges of
// SA1 identifiers per district, and expands those ranges into ids.
package proposal

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/dlwalsh/wa2019/pkg/sa1"
)

// RangePair is an inclusive run of consecutive SA1 ids. When HasEnd is false
// the pair denotes the single id Start.
type RangePair struct {
	Start  sa1.ID
	End    sa1.ID
	HasEnd bool
}

// Single returns the pair for one id.
func Single(id sa1.ID) RangePair {
	return RangePair{Start: id}
}

// Span returns the pair covering start..end.
func Span(start, end sa1.ID) RangePair {
	return RangePair{Start: start, End: end, HasEnd: true}
}

// Last returns the final id covered by the pair.
func (p RangePair) Last() sa1.ID {
	if p.HasEnd {
		return p.End
	}
	return p.Start
}

func (p RangePair) String() string {
	if p.HasEnd {
		return fmt.Sprintf("[%d, %d]", p.Start, p.End)
	}
	return fmt.Sprintf("[%d]", p.Start)
}

func (p RangePair) values() []int64 {
	if p.HasEnd {
		return []int64{int64(p.Start), int64(p.End)}
	}
	return []int64{int64(p.Start)}
}

func (p *RangePair) fromValues(v []int64) error {
	switch len(v) {
	case 1:
		*p = Single(sa1.ID(v[0]))
	case 2:
		*p = Span(sa1.ID(v[0]), sa1.ID(v[1]))
	default:
		return fmt.Errorf("range pair needs 1 or 2 ids, got %d", len(v))
	}
	return nil
}

// UnmarshalYAML decodes [start] or [start, end].
func (p *RangePair) UnmarshalYAML(node *yaml.Node) error {
	var v []int64
	if err := node.Decode(&v); err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	if err := p.fromValues(v); err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	return nil
}

// MarshalYAML encodes the pair as a flow sequence.
func (p RangePair) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.SequenceNode, Style: yaml.FlowStyle}
	for _, v := range p.values() {
		node.Content = append(node.Content, &yaml.Node{
			Kind:  yaml.ScalarNode,
			Tag:   "!!int",
			Value: fmt.Sprint(v),
		})
	}
	return node, nil
}

// UnmarshalJSON decodes [start] or [start, end].
func (p *RangePair) UnmarshalJSON(data []byte) error {
	var v []int64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	return p.fromValues(v)
}

// MarshalJSON encodes the pair as [start] or [start, end].
func (p RangePair) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.values())
}

// District is one proposed electoral district.
type District struct {
	Name   string      `yaml:"name" json:"name"`
	Ranges []RangePair `yaml:"SA1" json:"SA1"`
}

// Proposal is a complete redistribution proposal.
type Proposal struct {
	Districts []District `yaml:"districts" json:"districts"`
}
