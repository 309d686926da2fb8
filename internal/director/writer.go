package director

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// WriteScenario writes a scenario to a YAML file
func WriteScenario(scenario *Scenario, path string) error {
	data, err := yaml.Marshal(scenario)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// ReadScenario reads a scenario from a YAML file and validates every slide.
func ReadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrParse, path, err)
	}

	for i, sl := range scenario.Slides {
		if sl.Path == "" {
			return nil, fmt.Errorf("%w: %s: slide %d has no input", ErrParse, path, i+1)
		}
		if sl.Frames < 0 {
			return nil, fmt.Errorf("%w: %s: slide %d has negative frames", ErrParse, path, i+1)
		}
		if sl.Motion != nil {
			if err := sl.Motion.Validate(); err != nil {
				return nil, fmt.Errorf("%w: %s: slide %d: %w", ErrParse, path, i+1, err)
			}
		}
	}

	return &scenario, nil
}
