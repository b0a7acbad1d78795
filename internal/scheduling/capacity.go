package scheduling

import (
	"fmt"
	"tablereserve/pkg/model"
)

// Banding maps party sizes onto table classes: 1..SmallMax is small,
// SmallMax+1..MediumMax is medium, anything larger is large.
type Banding struct {
	SmallMax  int
	MediumMax int
}

func DefaultBanding() Banding {
	return Banding{SmallMax: 4, MediumMax: 9}
}

func (b Banding) Classify(partySize int) string {
	switch {
	case partySize <= b.SmallMax:
		return model.TableSmall
	case partySize <= b.MediumMax:
		return model.TableMedium
	default:
		return model.TableLarge
	}
}

// Resolve picks the table class for a request. An explicit tableSize wins,
// then the party size, then the small default.
func (b Banding) Resolve(tableSize string, partySize int) (string, error) {
	if tableSize != "" {
		if !IsTableSize(tableSize) {
			return "", fmt.Errorf("unknown table size %q", tableSize)
		}
		return tableSize, nil
	}
	if partySize > 0 {
		return b.Classify(partySize), nil
	}
	return model.TableSmall, nil
}

func IsTableSize(size string) bool {
	return size == model.TableSmall || size == model.TableMedium || size == model.TableLarge
}

// TableCount returns the restaurant's inventory for one class.
func TableCount(r *model.Restaurant, size string) int {
	var n int
	switch size {
	case model.TableSmall:
		n = r.SmallTable
	case model.TableMedium:
		n = r.MediumTable
	case model.TableLarge:
		n = r.LargeTable
	}
	return max(n, 0)
}
