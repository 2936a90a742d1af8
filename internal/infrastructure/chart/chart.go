// Package chart loads the chart of accounts from a YAML file.
package chart

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/iho/fundledger/internal/domain"
)

// File is the document layout:
//
//	accounts:
//	  - code: "1000"
//	    name: Cash/Bank
//	    type: asset
type File struct {
	Accounts []domain.Account `yaml:"accounts"`
}

// Parse decodes and validates a chart document. Unknown fields are errors.
func Parse(data []byte) (*domain.ChartOfAccounts, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidChart, err)
	}
	return domain.NewChartOfAccounts(f.Accounts)
}

// LoadFile reads the chart at path.
func LoadFile(path string) (*domain.ChartOfAccounts, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read chart of accounts: %w", err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Load returns the chart at path, or the default chart when path is empty.
func Load(path string) (*domain.ChartOfAccounts, error) {
	if path == "" {
		return domain.DefaultChartOfAccounts(), nil
	}
	return LoadFile(path)
}

// Marshal renders c in the file layout.
func Marshal(c *domain.ChartOfAccounts) ([]byte, error) {
	return yaml.Marshal(File{Accounts: c.Accounts()})
}
