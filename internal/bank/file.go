package bank

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/abhisek/prepfunnel/internal/question"
	"github.com/abhisek/prepfunnel/internal/store"
)

// File is a bank import file. Gold files are approved items of one module;
// prefab files are the cached set of one guide.
type File struct {
	Kind      store.BankKind      `json:"kind" yaml:"kind" validate:"required,oneof=gold prefab"`
	ModuleID  string              `json:"module_id" yaml:"module_id" validate:"required_if=Kind gold"`
	GuideID   string              `json:"guide_id" yaml:"guide_id" validate:"required_if=Kind prefab"`
	Questions []question.Question `json:"questions" yaml:"questions" validate:"required,min=1"`
}

var validate = validator.New()

// ParseFile reads a bank file. The format follows the extension: .json,
// otherwise YAML.
func ParseFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read bank file: %w", err)
	}
	f, err := Parse(data, strings.EqualFold(filepath.Ext(path), ".json"))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Parse decodes and validates a bank file body.
func Parse(data []byte, isJSON bool) (*File, error) {
	var f File
	if isJSON {
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&f); err != nil {
			return nil, fmt.Errorf("decode bank json: %w", err)
		}
	} else {
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&f); err != nil {
			return nil, fmt.Errorf("decode bank yaml: %w", err)
		}
	}
	f.Kind = store.BankKind(strings.ToLower(strings.TrimSpace(string(f.Kind))))
	if err := validate.Struct(f); err != nil {
		return nil, fmt.Errorf("invalid bank file: %w", err)
	}
	return &f, nil
}
