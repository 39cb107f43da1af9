package cpbrules

// SectionSelector locates a block of policy text inside a page. The anchor is
// the first element matching Heading whose text equals HeadingText; the
// section is the first element matching Container that follows the anchor in
// document order, before the next Heading element.
type SectionSelector struct {
	// Heading is a CSS selector for the anchor element, including its
	// class or role marker (e.g. "h2.policyHead").
	Heading string `json:"heading" koanf:"heading"`

	// HeadingText is the anchor's exact text, ignoring surrounding whitespace.
	HeadingText string `json:"headingText" koanf:"heading_text"`

	// Container is a CSS selector for the block holding the policy text.
	Container string `json:"container" koanf:"container"`
}

// DefaultSection is the policy section of an Aetna clinical policy bulletin.
var DefaultSection = SectionSelector{
	Heading:     "h2.policyHead",
	HeadingText: "Policy",
	Container:   "ol",
}

// Validate returns an error if the selector is incomplete.
func (s SectionSelector) Validate() error {
	if s.Heading == "" {
		return Errorf(EINVALID, "section heading selector required")
	}
	if s.HeadingText == "" {
		return Errorf(EINVALID, "section heading text required")
	}
	if s.Container == "" {
		return Errorf(EINVALID, "section container selector required")
	}
	return nil
}

// Extractor extracts the plain text of an anchored section from HTML.
type Extractor interface {
	// Extract returns the text of the section's container, one text node
	// per line. Returns EHEADING if the anchor is missing and ECONTAINER if
	// no container follows it.
	Extract(html string, sel SectionSelector) (string, error)
}
