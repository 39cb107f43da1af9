package main

import "fmt"

// Run executes the section command.
func (c *SectionCmd) Run(deps *Dependencies) error {
	url := c.URL
	if url == "" {
		url = deps.Config.SourceURL
	}

	text, err := deps.Sections.ReadSection(deps.Ctx, url)
	if err != nil {
		return err
	}

	fmt.Fprintln(deps.Stdout, text)
	return nil
}
