package config

import (
	"dario.cat/mergo"
	"github.com/pkg/errors"
)

// Source names where a resolved configuration came from.
type Source string

// Sources, highest priority first.
const (
	SourceCLI     Source = "cli"
	SourceFile    Source = "file"
	SourceDefault Source = "default"
)

// Resolved is a validated configuration plus where its layers came from.
type Resolved struct {
	Config
	// FilePath is the config file that was merged, "" if none.
	FilePath string
	// Layers lists the sources that contributed, lowest priority first.
	Layers []Source
}

// Resolve merges flags over file over Defaults and validates the result.
// file and flags may be nil. flags should only carry values the user set
// explicitly, so that unset flags do not mask the file.
func Resolve(file *Config, filePath string, flags *Config) (*Resolved, error) {
	merged := Defaults()
	res := &Resolved{Layers: []Source{SourceDefault}}

	if file != nil {
		if err := mergo.Merge(&merged, *file, mergo.WithOverride); err != nil {
			return nil, errors.Wrap(err, "merging config file")
		}
		res.FilePath = filePath
		res.Layers = append(res.Layers, SourceFile)
	}
	if flags != nil {
		if err := mergo.Merge(&merged, *flags, mergo.WithOverride); err != nil {
			return nil, errors.Wrap(err, "merging flags")
		}
		res.Layers = append(res.Layers, SourceCLI)
	}

	if err := Validate(&merged); err != nil {
		return nil, err
	}
	res.Config = merged
	return res, nil
}
