package r3n

import (
	"fmt"
	"os"
	"path/filepath"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// policyFile is the top-level structure of a static policy file. It uses
// the same shape as the remote catalog response so a repo can pin a
// catalog locally without the network.
type policyFile struct {
	FlakyTests []PolicyRecord `json:"flaky_tests" yaml:"flaky_tests"`
}

// LoadPolicyFile reads a static flaky-test catalog from a JSON or YAML
// file (selected by extension; .yaml/.yml means YAML) and seeds a Store
// with it. Unlike the remote fetch, which fails open, a broken local file
// is a caller misconfiguration and is returned as an error.
//
// Every record's thresholds are validated eagerly so misconfigurations
// surface at load time rather than mid-run.
func LoadPolicyFile(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("r3n: read policy file: %w", err)
	}

	var pf policyFile

	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &pf)
	default:
		err = json.Unmarshal(data, &pf)
	}

	if err != nil {
		return nil, fmt.Errorf("r3n: parse policy file: %w", err)
	}

	for _, rec := range pf.FlakyTests {
		if _, resolveErr := DefaultAttributes(rec.MaxRuns, rec.MinPasses); resolveErr != nil {
			return nil, fmt.Errorf("r3n: policy %q: %w", rec.TestName, resolveErr)
		}
	}

	return NewStore(pf.FlakyTests), nil
}
