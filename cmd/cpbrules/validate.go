package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fwojciec/cpbrules"
)

// Run executes the validate command.
func (c *ValidateCmd) Run(deps *Dependencies) error {
	raw, err := c.read(deps.Stdin)
	if err != nil {
		return err
	}

	var g *cpbrules.Guideline
	if c.Normalize {
		g, err = cpbrules.DecodeGuideline(string(raw), deps.Config.Title, deps.Config.Payer, deps.Validator)
	} else {
		g, err = validate(raw, deps.Validator)
	}
	if err != nil {
		var verrs cpbrules.ValidationErrors
		if errors.As(err, &verrs) {
			for _, v := range verrs {
				fmt.Fprintf(deps.Stderr, "  %s\n", v)
			}
		}
		return err
	}

	b, err := cpbrules.MarshalGuideline(g)
	if err != nil {
		return err
	}
	_, err = deps.Stdout.Write(b)
	return err
}

func (c *ValidateCmd) read(stdin io.Reader) ([]byte, error) {
	if c.File == "-" {
		return io.ReadAll(stdin)
	}
	b, err := os.ReadFile(c.File)
	if errors.Is(err, os.ErrNotExist) {
		return nil, cpbrules.Errorf(cpbrules.ENOTFOUND, "file not found: %s", c.File)
	}
	return b, err
}

// validate checks a guideline document as written, without replacing any
// of its values.
func validate(raw []byte, v cpbrules.Validator) (*cpbrules.Guideline, error) {
	var parsed any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, cpbrules.Errorf(cpbrules.EMALFORMED, "document is not valid JSON: %v", err)
	}
	g, err := v.ValidateGuideline(parsed)
	if err != nil {
		return nil, cpbrules.Errorf(cpbrules.ESCHEMA, "document does not match the guideline schema: %w", err)
	}
	return g, nil
}
