package layout

// This file defines the unit conversions between layout pixels and the units
// the canvas backend works in.

// Unit represents the unit of a length value.
type Unit int

const (
	UnitNone Unit = iota // unit-less numbers like factors
	UnitPX               // CSS pixels (layout space)
	UnitMM               // millimeters
	UnitPT               // points
)

// Conversion constants between pt, mm and CSS px (96 px per inch).
const (
	PtToMm = 0.352777
	MmToPt = 1.0 / PtToMm
	PxToMm = 25.4 / 96
)

// Length preserves a numeric value with its unit.
type Length struct {
	Value float64 `json:"value"`
	Unit  Unit    `json:"unit"`
}

// Mm is shorthand for a millimetre length, the canvas backend's native unit.
func Mm(v float64) Length { return Length{Value: v, Unit: UnitMM} }

// To converts this length to target unit.
func (l Length) To(target Unit) float64 {
	if l.Unit == target || l.Unit == UnitNone || target == UnitNone {
		return l.Value
	}
	var mm float64
	switch l.Unit {
	case UnitPX:
		mm = l.Value * PxToMm
	case UnitPT:
		mm = l.Value * PtToMm
	case UnitMM:
		mm = l.Value
	}
	switch target {
	case UnitPX:
		return mm / PxToMm
	case UnitPT:
		return mm * MmToPt
	default:
		return mm
	}
}

// ToPT converts to points, the unit font faces are sized in.
func (l Length) ToPT() float64 { return l.To(UnitPT) }

// LineHeightSpec is a line height given as a factor of the font size (e.g. 1.25x),
// mirroring the tailwind leading-* scale the flyer styles use.
type LineHeightSpec float64

const (
	LeadingNone   LineHeightSpec = 1.0
	LeadingTight  LineHeightSpec = 1.25
	LeadingNormal LineHeightSpec = 1.5
)

// Resolve computes the absolute line height for the given font size.
func (s LineHeightSpec) Resolve(fontSize float64) float64 {
	if s <= 0 {
		return fontSize * float64(LeadingNormal)
	}
	return fontSize * float64(s)
}
