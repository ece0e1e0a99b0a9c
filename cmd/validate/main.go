package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/guialv3s/InfinityAIRPG/pkg/passive"
	"github.com/guialv3s/InfinityAIRPG/pkg/textfilter"
	"gopkg.in/yaml.v3"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <status_effects.yaml>\n", os.Args[0])
		os.Exit(1)
	}

	filename := os.Args[1]
	validator := &EffectsValidator{}

	if err := validator.validateFile(filename); err != nil {
		fmt.Fprintf(os.Stderr, "Validation failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Status effects file is valid!")
}

type effectsFile struct {
	Effects []passive.Effect `yaml:"effects"`
}

type EffectsValidator struct {
	errors []string
}

var snakeCase = regexp.MustCompile(`^[a-z0-9]+(_[a-z0-9]+)*$`)

func (v *EffectsValidator) validateFile(filename string) error {
	fmt.Printf("Validating %s...\n", filename)

	baseName := filepath.Base(filename)
	ext := filepath.Ext(baseName)
	if ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("status effects file must have .yaml or .yml extension: %s", baseName)
	}
	if !snakeCase.MatchString(strings.TrimSuffix(baseName, ext)) {
		return fmt.Errorf("filename '%s' must be lowercase snake_case (e.g., status_effects.yaml)", baseName)
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", filename, err)
	}

	return v.validate(data)
}

func (v *EffectsValidator) validate(data []byte) error {
	v.errors = nil

	var f effectsFile
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&f); err != nil {
		return fmt.Errorf("strict YAML decoding failed: %w", err)
	}
	if len(f.Effects) == 0 {
		return fmt.Errorf("no effects defined")
	}

	// the registry applies the same rules the worker does at startup
	if _, err := passive.NewRegistry().LoadYAML(bytes.NewReader(data)); err != nil {
		v.errors = append(v.errors, err.Error())
	}

	seen := make(map[string]string)
	for _, e := range f.Effects {
		for _, name := range append([]string{e.Name}, e.Aliases...) {
			folded := textfilter.Fold(strings.TrimSpace(name))
			if folded == "" {
				continue
			}
			if owner, ok := seen[folded]; ok && owner != e.Name {
				v.errors = append(v.errors, fmt.Sprintf("name %q is used by both %q and %q", name, owner, e.Name))
				continue
			}
			seen[folded] = e.Name
		}
	}

	if len(v.errors) > 0 {
		return fmt.Errorf("validation errors:\n%s", strings.Join(v.errors, "\n"))
	}
	return nil
}
