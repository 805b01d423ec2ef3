package dashboard

// SizeClass is a discrete viewport bucket derived from the browser width.
type SizeClass string

const (
	SizeXS SizeClass = "xs"
	SizeSM SizeClass = "sm"
	SizeMD SizeClass = "md"
	SizeLG SizeClass = "lg"
	SizeXL SizeClass = "xl"
)

// DefaultSizeClass is assumed until the page reports its width.
const DefaultSizeClass = SizeLG

// Breakpoint lower bounds in logical pixels.
const (
	breakpointSM = 576
	breakpointMD = 768
	breakpointLG = 992
	breakpointXL = 1200
)

// Classify maps a viewport width to its size class.
func Classify(width int) SizeClass {
	switch {
	case width < breakpointSM:
		return SizeXS
	case width < breakpointMD:
		return SizeSM
	case width < breakpointLG:
		return SizeMD
	case width < breakpointXL:
		return SizeLG
	default:
		return SizeXL
	}
}

// ParseSizeClass accepts one of xs, sm, md, lg, xl.
func ParseSizeClass(s string) (SizeClass, bool) {
	switch SizeClass(s) {
	case SizeXS, SizeSM, SizeMD, SizeLG, SizeXL:
		return SizeClass(s), true
	}
	return "", false
}

// PageSize is the number of table rows shown per page.
func (c SizeClass) PageSize() int {
	switch c {
	case SizeXS:
		return 5
	case SizeSM:
		return 7
	case SizeMD:
		return 10
	default:
		return 15
	}
}

// ChartLimit is how many top-by-profit projects the financial chart shows.
// Zero means all of them.
func (c SizeClass) ChartLimit() int {
	switch c {
	case SizeXS:
		return 5
	case SizeSM:
		return 8
	default:
		return 0
	}
}

// LabelLimit is the maximum chart label length in runes. Zero disables truncation.
func (c SizeClass) LabelLimit() int {
	switch c {
	case SizeXS:
		return 8
	case SizeSM:
		return 12
	default:
		return 0
	}
}

// LegendPosition places chart legends below the chart on narrow screens.
func (c SizeClass) LegendPosition() string {
	if c == SizeXS || c == SizeSM {
		return "bottom"
	}
	return "right"
}

// Compact reports whether amounts and dates use their short forms.
func (c SizeClass) Compact() bool { return c == SizeXS }
