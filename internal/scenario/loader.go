package scenario

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

var knownActions = map[string]bool{
	DoCustomer: true, DoLookupVehicle: true, DoVehicle: true, DoLocation: true,
	DoSign: true, DoEvaluate: true, DoReturn: true, DoAdvance: true,
	DoBack: true, DoEnter: true, DoReset: true, DoResume: true, DoCheck: true,
}

// Parse decodes a scenario document and checks every action kind.
func Parse(data []byte) (*Scenario, error) {
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("parsing scenario YAML: %w", err)
	}
	if len(sc.Steps) == 0 {
		return nil, fmt.Errorf("scenario %q has no steps", sc.Name)
	}
	for i := range sc.Steps {
		sc.Steps[i].Do = strings.ToLower(strings.TrimSpace(sc.Steps[i].Do))
		if !knownActions[sc.Steps[i].Do] {
			return nil, fmt.Errorf("step %d: unknown action %q", i+1, sc.Steps[i].Do)
		}
	}
	if sc.Theme == "" {
		sc.Theme = "sap"
	}
	return &sc, nil
}

// LoadScenario loads a scenario from a YAML file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario file: %w", err)
	}
	sc, err := Parse(data)
	if err != nil {
		return nil, err
	}
	if sc.Name == "" {
		sc.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return sc, nil
}

// ListScenarios lists all scenario files in a directory.
func ListScenarios(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading scenarios directory: %w", err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if ext == ".yaml" || ext == ".yml" {
			paths = append(paths, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(paths)
	return paths, nil
}

// LoadAllScenarios loads all scenarios from a directory.
func LoadAllScenarios(dir string) ([]*Scenario, error) {
	paths, err := ListScenarios(dir)
	if err != nil {
		return nil, err
	}

	var scenarios []*Scenario
	for _, path := range paths {
		sc, err := LoadScenario(path)
		if err != nil {
			return nil, fmt.Errorf("loading %s: %w", path, err)
		}
		scenarios = append(scenarios, sc)
	}
	return scenarios, nil
}
