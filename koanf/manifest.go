package koanf

import (
	"github.com/fwojciec/cpbrules"
	"github.com/fwojciec/cpbrules/fs"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// manifest is the on-disk shape of a batch manifest. A top-level payer
// applies to every policy that does not name its own.
type manifest struct {
	Payer    string                    `koanf:"payer"`
	Policies []*cpbrules.PolicyRequest `koanf:"policies"`
}

// LoadManifest reads the batch manifest at path:
//
//	payer: Aetna
//	policies:
//	  - url: https://www.aetna.com/cpb/medical/data/300_399/0369.html
//	    title: Chronic Fatigue Syndrome
//
// Every policy is validated; the first invalid entry is reported with its
// position. Two entries whose guidelines would be written to the same
// output file are rejected.
func LoadManifest(path string) ([]*cpbrules.PolicyRequest, error) {
	content, err := readFile(path)
	if err != nil {
		return nil, err
	}
	return ParseManifest(content)
}

// ParseManifest parses and validates manifest YAML.
func ParseManifest(content []byte) ([]*cpbrules.PolicyRequest, error) {
	k := koanf.New(".")
	if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
		return nil, cpbrules.Errorf(cpbrules.EINVALID, "failed to parse manifest: %v", err)
	}

	var m manifest
	if err := k.Unmarshal("", &m); err != nil {
		return nil, cpbrules.Errorf(cpbrules.EINVALID, "invalid manifest: %v", err)
	}
	if len(m.Policies) == 0 {
		return nil, cpbrules.Errorf(cpbrules.EINVALID, "manifest lists no policies")
	}

	seen := make(map[string]int, len(m.Policies))
	for i, p := range m.Policies {
		if p == nil {
			return nil, cpbrules.Errorf(cpbrules.EINVALID, "policies[%d]: empty entry", i)
		}
		if p.Payer == "" {
			p.Payer = m.Payer
		}
		if err := p.Validate(); err != nil {
			return nil, cpbrules.Errorf(cpbrules.EINVALID, "policies[%d]: %s", i, cpbrules.ErrorMessage(err))
		}
		out, err := fs.URLToPath(p.URL)
		if err != nil {
			return nil, cpbrules.Errorf(cpbrules.EINVALID, "policies[%d]: %s", i, cpbrules.ErrorMessage(err))
		}
		if j, ok := seen[out]; ok {
			return nil, cpbrules.Errorf(cpbrules.EINVALID, "policies[%d]: same output file as policies[%d] (%s)", i, j, out)
		}
		seen[out] = i
	}
	return m.Policies, nil
}
