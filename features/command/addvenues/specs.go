package addvenues

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"gopkg.in/yaml.v3"
)

var (
	ErrUnknownSpecFormat = errors.New("unknown venue spec format")
	ErrDecodingSpecs     = errors.New("decoding venue specs failed")
)

// Format is the encoding of a venue spec file.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// VenueSpec is the raw, unvalidated description of one venue in an import file.
type VenueSpec struct {
	Name         string  `yaml:"name" json:"name"`
	City         string  `yaml:"city" json:"city"`
	Capacity     int     `yaml:"capacity" json:"capacity"`
	PricePerHour float64 `yaml:"price_per_hour" json:"price_per_hour"`
}

type specFile struct {
	Venues []VenueSpec `yaml:"venues" json:"venues"`
}

// FormatFromPath picks the format from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", errors.Join(ErrUnknownSpecFormat, fmt.Errorf("file %q", path))
	}
}

// DecodeSpecs reads a document of the form {venues: [{name, city, capacity, price_per_hour}, ...]}.
func DecodeSpecs(r io.Reader, format Format) ([]VenueSpec, error) {
	var file specFile

	switch format {
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(&file); err != nil && !errors.Is(err, io.EOF) {
			return nil, errors.Join(ErrDecodingSpecs, err)
		}
	case FormatJSON:
		if err := jsoniter.ConfigCompatibleWithStandardLibrary.NewDecoder(r).Decode(&file); err != nil {
			return nil, errors.Join(ErrDecodingSpecs, err)
		}
	default:
		return nil, errors.Join(ErrUnknownSpecFormat, fmt.Errorf("format %q", format))
	}

	return file.Venues, nil
}
