package scheduling

import (
	"testing"

	"tablereserve/pkg/model"
)

func TestBanding_Classify(t *testing.T) {
	b := DefaultBanding()
	tests := []struct {
		party int
		want  string
	}{
		{1, model.TableSmall},
		{4, model.TableSmall},
		{5, model.TableMedium},
		{9, model.TableMedium},
		{10, model.TableLarge},
		{40, model.TableLarge},
	}
	for _, tt := range tests {
		if got := b.Classify(tt.party); got != tt.want {
			t.Errorf("Classify(%d) = %s, want %s", tt.party, got, tt.want)
		}
	}
}

func TestBanding_ConfiguredThresholds(t *testing.T) {
	b := Banding{SmallMax: 3, MediumMax: 6}
	if got := b.Classify(4); got != model.TableMedium {
		t.Errorf("Classify(4) = %s, want medium with SmallMax=3", got)
	}
	if got := b.Classify(7); got != model.TableLarge {
		t.Errorf("Classify(7) = %s, want large with MediumMax=6", got)
	}
}

func TestBanding_Resolve(t *testing.T) {
	b := DefaultBanding()

	if got, _ := b.Resolve(model.TableLarge, 2); got != model.TableLarge {
		t.Errorf("explicit table size should win, got %s", got)
	}
	if got, _ := b.Resolve("", 6); got != model.TableMedium {
		t.Errorf("party size should classify, got %s", got)
	}
	if got, _ := b.Resolve("", 0); got != model.TableSmall {
		t.Errorf("default should be small, got %s", got)
	}
	if _, err := b.Resolve("huge", 0); err == nil {
		t.Errorf("unknown table size should fail")
	}
}

func TestTableCount(t *testing.T) {
	r := &model.Restaurant{SmallTable: 3, MediumTable: 2, LargeTable: -1}
	if TableCount(r, model.TableSmall) != 3 || TableCount(r, model.TableMedium) != 2 {
		t.Errorf("unexpected counts")
	}
	if TableCount(r, model.TableLarge) != 0 {
		t.Errorf("negative inventory should read as zero")
	}
	if TableCount(r, "other") != 0 {
		t.Errorf("unknown class should read as zero")
	}
}
