package main

import (
	"github.com/fwojciec/cpbrules"
)

// Run executes the extract command.
func (c *ExtractCmd) Run(deps *Dependencies) error {
	req := deps.Config.Request()
	if c.URL != "" {
		req.URL = c.URL
	}

	g, err := deps.Runner.Run(deps.Ctx, req)
	if err != nil {
		return err
	}

	b, err := cpbrules.MarshalGuideline(g)
	if err != nil {
		return err
	}
	_, err = deps.Stdout.Write(b)
	return err
}
