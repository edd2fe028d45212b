package cdrom

import "strings"

// Feature is a set of capabilities a caller asks a read for.
type Feature uint

const (
	FeatureReadTOC Feature = 1 << iota // always performed
	FeatureMCN
	FeatureISRC
	FeatureCDText // accepted, never read
)

// FeatureAll is every feature that produces data.
const FeatureAll = FeatureReadTOC | FeatureMCN | FeatureISRC

var featureNames = []struct {
	f    Feature
	name string
}{
	{FeatureReadTOC, "toc"},
	{FeatureMCN, "mcn"},
	{FeatureISRC, "isrc"},
	{FeatureCDText, "cdtext"},
}

// Has reports whether every feature in g is in f.
func (f Feature) Has(g Feature) bool {
	return f&g == g
}

func (f Feature) String() string {
	var names []string
	for _, fn := range featureNames {
		if f.Has(fn.f) {
			names = append(names, fn.name)
		}
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, "|")
}
