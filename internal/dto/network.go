package dto

// NetworkFile is the on-disk description of a rail network.
// It uses "mapstructure" tags so YAML and JSON documents decode through the same generic map.
type NetworkFile struct {
	Name           string         `json:"name" mapstructure:"name"`
	GenericPattern string         `json:"generic_pattern" mapstructure:"generic_pattern"`
	SignRadius     float64        `json:"sign_radius" mapstructure:"sign_radius" validate:"gte=0"`
	Segments       []SegmentFile  `json:"segments" mapstructure:"segments" validate:"required,min=1,dive"`
	Junctions      []JunctionFile `json:"junctions" mapstructure:"junctions" validate:"dive"`
	Links          []LinkFile     `json:"links" mapstructure:"links" validate:"dive"`
	Signs          []SignFile     `json:"signs" mapstructure:"signs" validate:"dive"`
}

// SegmentFile describes one segment. Geometry is generated from Grade/Grades unless given.
type SegmentFile struct {
	ID       string          `json:"id" mapstructure:"id"`
	Length   float64         `json:"length" mapstructure:"length" validate:"gte=0"`
	Grade    float64         `json:"grade" mapstructure:"grade" validate:"gt=-100,lt=100"`
	Grades   []GradeFile     `json:"grades" mapstructure:"grades" validate:"dive"`
	Geometry []PointFile     `json:"geometry" mapstructure:"geometry" validate:"omitempty,min=2"`
	Bare     bool            `json:"bare" mapstructure:"bare"`
	Signs    []TrackSignFile `json:"signs" mapstructure:"signs" validate:"dive"`
}

// GradeFile changes the grade from a span onwards.
type GradeFile struct {
	From    float64 `json:"from" mapstructure:"from" validate:"gte=0"`
	Percent float64 `json:"percent" mapstructure:"percent" validate:"gt=-100,lt=100"`
}

// TrackSignFile places a sign next to its segment.
type TrackSignFile struct {
	Span   float64 `json:"span" mapstructure:"span" validate:"gte=0"`
	Label  string  `json:"label" mapstructure:"label" validate:"required"`
	Facing string  `json:"facing" mapstructure:"facing" validate:"omitempty,oneof=forward backward"`
}

// SignFile places a sign anywhere in world space.
type SignFile struct {
	Label    string    `json:"label" mapstructure:"label" validate:"required"`
	Position PointFile `json:"position" mapstructure:"position"`
	Facing   PointFile `json:"facing" mapstructure:"facing"`
}

// PointFile is a point or direction.
type PointFile struct {
	X float64 `json:"x" mapstructure:"x"`
	Y float64 `json:"y" mapstructure:"y"`
	Z float64 `json:"z" mapstructure:"z"`
}

// EndFile names a segment end.
type EndFile struct {
	Segment string `json:"segment" mapstructure:"segment" validate:"required"`
	End     string `json:"end" mapstructure:"end" validate:"required,oneof=first last"`
}

// JunctionFile describes a junction.
type JunctionFile struct {
	ID       string    `json:"id" mapstructure:"id" validate:"required"`
	In       EndFile   `json:"in" mapstructure:"in"`
	Out      []EndFile `json:"out" mapstructure:"out" validate:"len=2,dive"`
	Selected int       `json:"selected" mapstructure:"selected" validate:"oneof=0 1"`
}

// LinkFile connects two segment ends directly.
type LinkFile struct {
	From EndFile `json:"from" mapstructure:"from"`
	To   EndFile `json:"to" mapstructure:"to"`
}
