package file

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/aretw0/lookahead/internal/dto"
	"github.com/aretw0/lookahead/pkg/adapters/memory"
	"github.com/aretw0/lookahead/pkg/domain"
	"github.com/aretw0/lookahead/pkg/dsl"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Format is the encoding of a network file.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// Meta carries the descriptive fields of a network file.
type Meta struct {
	Name string
	// Digest identifies the file content. Persistent annotation caches are namespaced by it.
	Digest string
}

// FormatOf guesses the format from a file extension. Anything but .json is read as YAML.
func FormatOf(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return FormatJSON
	}
	return FormatYAML
}

// Load reads, validates and builds the network described by the file at path.
func Load(path string) (*memory.Network, Meta, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, Meta{}, fmt.Errorf("failed to read network file: %w", err)
	}
	net, meta, err := Parse(data, FormatOf(path))
	if err != nil {
		return nil, Meta{}, fmt.Errorf("%s: %w", path, err)
	}
	if meta.Name == "" {
		meta.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return net, meta, nil
}

// Parse decodes a network document.
// YAML and JSON are first read into a generic map and then decoded into one DTO, so both
// formats accept exactly the same keys.
func Parse(data []byte, format Format) (*memory.Network, Meta, error) {
	var raw map[string]any
	switch format {
	case FormatJSON:
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, Meta{}, fmt.Errorf("invalid json: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, Meta{}, fmt.Errorf("invalid yaml: %w", err)
		}
	}

	var doc dto.NetworkFile
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &doc,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return nil, Meta{}, err
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, Meta{}, fmt.Errorf("failed to decode network: %w", err)
	}

	if err := validator.New().Struct(doc); err != nil {
		return nil, Meta{}, fmt.Errorf("invalid network: %w", err)
	}

	net, err := build(doc)
	if err != nil {
		return nil, Meta{}, err
	}
	sum := sha256.Sum256(data)
	return net, Meta{Name: doc.Name, Digest: hex.EncodeToString(sum[:6])}, nil
}

func build(doc dto.NetworkFile) (*memory.Network, error) {
	b := dsl.New()

	for _, s := range doc.Segments {
		sb := b.Segment(s.ID, s.Length)
		if s.Grade != 0 {
			sb.Grade(s.Grade)
		}
		for _, g := range s.Grades {
			sb.GradeFrom(g.From, g.Percent)
		}
		if len(s.Geometry) > 0 {
			pts := make([]domain.Vec3, len(s.Geometry))
			for i, p := range s.Geometry {
				pts[i] = point(p)
			}
			sb.Geometry(pts...)
		}
		if s.Bare {
			sb.Bare()
		}
		for _, sign := range s.Signs {
			facing := dsl.Forward
			if sign.Facing == "backward" {
				facing = dsl.Backward
			}
			sb.Sign(sign.Span, sign.Label, facing)
		}
	}

	for _, j := range doc.Junctions {
		jb := b.Junction(j.ID).In(j.In.Segment, end(j.In.End)).Select(j.Selected)
		for _, out := range j.Out {
			jb.Out(out.Segment, end(out.End))
		}
	}

	for _, l := range doc.Links {
		b.Link(l.From.Segment, end(l.From.End), l.To.Segment, end(l.To.End))
	}

	net, err := b.Build()
	if err != nil {
		return nil, err
	}

	for _, s := range doc.Signs {
		net.AddSign(memory.Sign{Label: s.Label, Position: point(s.Position), Facing: point(s.Facing)})
	}
	if doc.SignRadius > 0 {
		net.SetSignRadius(doc.SignRadius)
	}
	if doc.GenericPattern != "" {
		re, err := regexp.Compile(doc.GenericPattern)
		if err != nil {
			return nil, fmt.Errorf("invalid generic_pattern: %w", err)
		}
		net.SetGeneric(func(id domain.SegmentID) bool {
			return memory.DefaultGeneric(id) || re.MatchString(string(id))
		})
	}
	return net, nil
}

func end(s string) dsl.End {
	return dsl.End(s == "first")
}

func point(p dto.PointFile) domain.Vec3 {
	return domain.Vec3{X: p.X, Y: p.Y, Z: p.Z}
}
