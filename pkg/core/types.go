package core

// RangeMode selects how a channel's display range is derived.
type RangeMode string

const (
	// RangeFixed uses explicit min/max values.
	RangeFixed RangeMode = "fixed"
	// RangeFull uses the data's current extrema.
	RangeFull RangeMode = "full"
	// RangeZeroToMin pins min to 0 unless the data dips below zero.
	RangeZeroToMin RangeMode = "zeromin"
)

// ColorRange is a channel's color-mapping policy. Min <= Max always holds
// in the stored representation; Inverted is a display transform and never
// mutates data or the stored bounds.
type ColorRange struct {
	Mode     RangeMode `json:"mode"`
	Min      float64   `json:"min"`
	Max      float64   `json:"max"`
	Inverted bool      `json:"inverted"`
}

// MapPosition maps a sample value to a palette position in [0,1],
// honoring the inverted flag. Degenerate ranges map everything to 0.
func (r ColorRange) MapPosition(v float64) float64 {
	if r.Max <= r.Min {
		return 0
	}
	pos := (v - r.Min) / (r.Max - r.Min)
	if pos < 0 {
		pos = 0
	} else if pos > 1 {
		pos = 1
	}
	if r.Inverted {
		pos = 1 - pos
	}
	return pos
}

// CropMode selects the crop target.
type CropMode string

const (
	// CropInPlace mutates the source channel.
	CropInPlace CropMode = "inplace"
	// CropNewChannel asks the host for a new channel holding the subset.
	CropNewChannel CropMode = "new"
)

// CropSpec is a caller-supplied crop request: explicit pixel coordinates
// (interactive selections are resolved to coordinates upstream).
type CropSpec struct {
	X, Y           int
	Width, Height  int
	Mode           CropMode
	PreserveOffset bool
}

// CropRegion is a validated crop: same fields as CropSpec but guaranteed
// to lie within the source channel's bounds.
type CropRegion struct {
	X, Y           int
	Width, Height  int
	Mode           CropMode
	PreserveOffset bool
}

// SaveMode selects how selected channels are packaged.
type SaveMode string

const (
	// SavePerFile writes one container per originating file.
	SavePerFile SaveMode = "per-file"
	// SaveMerged packs the whole selection into a single container.
	SaveMerged SaveMode = "merged"
)
