package config

import (
	"fmt"
	"net/url"
	"os"
	"regexp"

	"sjsage522/housewatch/pkg/errors"

	"gopkg.in/yaml.v3"
)

// Source is one listing search page being monitored
type Source struct {
	Name        string `yaml:"name"`
	QueryURL    string `yaml:"query_url"`
	LinkPattern string `yaml:"link_pattern"`
	// Domain is the host substring every extracted link must carry.
	// Empty means the host of QueryURL.
	Domain string `yaml:"domain"`
	// ResolveAnchors also matches the pattern against a[href] values
	// resolved against QueryURL.
	ResolveAnchors bool `yaml:"resolve_anchors"`
}

type sourcesFile struct {
	Sources []Source `yaml:"sources"`
}

// DefaultSources returns the built-in Idealista and Immobiliare.it searches
func DefaultSources() []Source {
	return []Source{
		{
			Name:           "Idealista",
			QueryURL:       "https://www.idealista.it/point/affitto-case/44.48011/11.37555/12/con-prezzo_750,pubblicato_ultime-24-ore/lista-mappa",
			LinkPattern:    `https?://www\.idealista\.it/[^\s"'>]+/(?:immobile|annuncio)[^\s"'>]*`,
			ResolveAnchors: true,
		},
		{
			Name:           "Immobiliare.it",
			QueryURL:       "https://www.immobiliare.it/search-list/?idContratto=2&idCategoria=1&prezzoMassimo=750&idTipologia[0]=4&__lang=it&mapCenter=44.500995%2C11.345773&zoom=13#geohash-srbj1s0",
			LinkPattern:    `https?://www\.immobiliare\.it/[^\s"'>]*/annunci[^\s"'>]*`,
			ResolveAnchors: true,
		},
	}
}

// LoadSources reads source definitions from a YAML file of the form
//
//	sources:
//	  - name: Idealista
//	    query_url: https://...
//	    link_pattern: https?://...
func LoadSources(path string) ([]Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewConfiguration(fmt.Sprintf("read sources file %s", path), err)
	}

	var file sourcesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, errors.NewConfiguration(fmt.Sprintf("parse sources file %s", path), err)
	}
	return file.Sources, nil
}

// EffectiveDomain returns Domain, falling back to the host of QueryURL
func (s Source) EffectiveDomain() string {
	if s.Domain != "" {
		return s.Domain
	}
	u, err := url.Parse(s.QueryURL)
	if err != nil {
		return ""
	}
	return u.Host
}

// CompilePattern compiles LinkPattern for case-insensitive matching
func (s Source) CompilePattern() (*regexp.Regexp, error) {
	re, err := regexp.Compile("(?i)" + s.LinkPattern)
	if err != nil {
		return nil, errors.NewConfiguration(fmt.Sprintf("source %q: invalid link_pattern", s.Name), err)
	}
	return re, nil
}

// Validate checks a single source definition
func (s Source) Validate() error {
	if s.Name == "" {
		return errors.NewConfiguration("source without name", nil)
	}
	u, err := url.Parse(s.QueryURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return errors.NewConfiguration(fmt.Sprintf("source %q: query_url must be an absolute http(s) URL", s.Name), err)
	}
	if s.LinkPattern == "" {
		return errors.NewConfiguration(fmt.Sprintf("source %q: link_pattern is required", s.Name), nil)
	}
	if _, err := s.CompilePattern(); err != nil {
		return err
	}
	if s.EffectiveDomain() == "" {
		return errors.NewConfiguration(fmt.Sprintf("source %q: cannot derive domain", s.Name), nil)
	}
	return nil
}
