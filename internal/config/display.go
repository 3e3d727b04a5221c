package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type LineStyle string

const (
	LineStyleLines   LineStyle = "lines"
	LineStyleMarkers LineStyle = "lines+markers"
)

type Orientation string

const (
	OrientationVertical   Orientation = "vertical"
	OrientationHorizontal Orientation = "horizontal"
)

type Layout string

const (
	LayoutFlex   Layout = "flex"
	LayoutCenter Layout = "center"
	LayoutNone   Layout = "none"
)

// DisplayOptions are the chart formatting choices of the dashboard page.
type DisplayOptions struct {
	Title       string      `yaml:"title"`
	LineStyle   LineStyle   `yaml:"line_style"`
	Orientation Orientation `yaml:"orientation"`
	Layout      Layout      `yaml:"layout"`
}

func DefaultDisplayOptions() DisplayOptions {
	return DisplayOptions{
		Title:       "Transaction Stats Across Chains",
		LineStyle:   LineStyleLines,
		Orientation: OrientationVertical,
		Layout:      LayoutFlex,
	}
}

// LoadDisplayOptions reads display options from a YAML file. An empty path
// returns the defaults; fields missing from the file keep their default.
func LoadDisplayOptions(path string) (DisplayOptions, error) {
	opts := DefaultDisplayOptions()
	if path == "" {
		return opts, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return opts, fmt.Errorf("reading display options: %w", err)
	}
	if err := yaml.Unmarshal(data, &opts); err != nil {
		return opts, fmt.Errorf("%w: parsing display options: %v", ErrInvalidConfig, err)
	}
	return opts, opts.Validate()
}

func (o DisplayOptions) Validate() error {
	switch o.LineStyle {
	case LineStyleLines, LineStyleMarkers:
	default:
		return fmt.Errorf("%w: line_style %q", ErrInvalidConfig, o.LineStyle)
	}
	switch o.Orientation {
	case OrientationVertical, OrientationHorizontal:
	default:
		return fmt.Errorf("%w: orientation %q", ErrInvalidConfig, o.Orientation)
	}
	switch o.Layout {
	case LayoutFlex, LayoutCenter, LayoutNone:
	default:
		return fmt.Errorf("%w: layout %q", ErrInvalidConfig, o.Layout)
	}
	return nil
}
