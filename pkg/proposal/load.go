package proposal

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads a proposal from a JSON or YAML file.
func Load(path string) (*Proposal, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading proposal file: %w", err)
	}
	return Parse(data)
}

// Parse decodes proposal bytes. JSON input is accepted because it is valid
// YAML. District names must be present and unique.
func Parse(data []byte) (*Proposal, error) {
	var p Proposal
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parsing proposal: %w", err)
	}
	if err := p.check(); err != nil {
		return nil, err
	}
	return &p, nil
}

func (p *Proposal) check() error {
	if len(p.Districts) == 0 {
		return errors.New("proposal has no districts")
	}
	seen := make(map[string]bool, len(p.Districts))
	for i, d := range p.Districts {
		if d.Name == "" {
			return fmt.Errorf("district %d has no name", i)
		}
		if seen[d.Name] {
			return fmt.Errorf("district %q appears more than once", d.Name)
		}
		seen[d.Name] = true
	}
	return nil
}

// Names returns district names in proposal order.
func (p *Proposal) Names() []string {
	names := make([]string, len(p.Districts))
	for i, d := range p.Districts {
		names[i] = d.Name
	}
	return names
}
