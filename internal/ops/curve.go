package ops

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dustin/go-humanize"

	"github.com/jtafstn/webidle/internal/catalog"
)

// Rung is one level of a family's cost ladder.
type Rung struct {
	Level     int    `json:"level"`
	ID        string `json:"id"`
	Cost      int64  `json:"cost"`
	Reference int64  `json:"reference,omitempty"`
}

func FamilyLadder(cat *catalog.Catalog, family string) ([]Rung, error) {
	f, ok := cat.Family(family)
	if !ok {
		return nil, fmt.Errorf("unknown family %q", family)
	}
	costs := f.Curve.Ladder(f.MaxLevel)
	out := make([]Rung, len(costs))
	for i, c := range costs {
		lv := i + 1
		out[i] = Rung{Level: lv, ID: f.LevelID(lv), Cost: c, Reference: f.Reference[lv]}
	}
	return out, nil
}

// WriteLadder prints a ladder as an aligned table, flagging the worst
// deviation from the reference costs when the family has any.
func WriteLadder(w io.Writer, cat *catalog.Catalog, family string) error {
	rungs, err := FamilyLadder(cat, family)
	if err != nil {
		return err
	}
	f, _ := cat.Family(family)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "level\tid\tcost\treference\t")
	for _, r := range rungs {
		ref := "-"
		if r.Reference > 0 {
			ref = humanize.Comma(r.Reference)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t\n", r.Level, r.ID, humanize.Comma(r.Cost), ref)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if len(f.Reference) > 0 {
		worst, at := f.Curve.MaxRelativeError(f.Reference)
		_, err = fmt.Fprintf(w, "max deviation from reference: %s%% at level %d\n", humanize.FtoaWithDigits(worst*100, 2), at)
	}
	return err
}
