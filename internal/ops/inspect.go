package ops

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/jtafstn/webidle/internal/catalog"
	"github.com/jtafstn/webidle/internal/player"
	"github.com/jtafstn/webidle/internal/storage"
)

// Inspection is a save blob as the server would see it on load.
type Inspection struct {
	Key    string        `json:"key"`
	Found  bool          `json:"found"`
	Bytes  int           `json:"bytes"`
	Report player.Report `json:"report"`
	State  player.State  `json:"state"`
}

// Inspect reads key from store and reconciles it without writing back.
func Inspect(ctx context.Context, store storage.Store, key string, now time.Time) (Inspection, error) {
	raw, found, err := store.Get(ctx, key)
	if err != nil {
		return Inspection{}, fmt.Errorf("read save %q: %w", key, err)
	}
	st, rep := player.Reconcile(raw, now)
	return Inspection{Key: key, Found: found, Bytes: len(raw), Report: rep, State: st}, nil
}

// WriteInspection prints a human summary. cat may be nil, in which case
// family levels are omitted.
func WriteInspection(w io.Writer, ins Inspection, cat *catalog.Catalog, now time.Time) error {
	st := ins.State
	b := &strings.Builder{}

	fmt.Fprintf(b, "key:        %s\n", ins.Key)
	if !ins.Found {
		fmt.Fprintf(b, "status:     no save stored, a new game would start\n")
		_, err := io.WriteString(w, b.String())
		return err
	}
	status := "ok"
	switch {
	case ins.Report.Malformed:
		status = "malformed, a new game would start"
	case len(ins.Report.Migrated) > 0:
		status = fmt.Sprintf("migrated from v%d", ins.Report.FromVersion)
	}
	fmt.Fprintf(b, "status:     %s\n", status)
	fmt.Fprintf(b, "size:       %s\n", humanize.Bytes(uint64(ins.Bytes)))
	fmt.Fprintf(b, "last seen:  %s\n", humanize.RelTime(time.UnixMilli(st.LastSeenMs), now, "ago", "from now"))
	fmt.Fprintf(b, "gold:       %s (max %s)\n", humanize.Comma(st.Gold), humanize.Comma(st.MaxGold))
	fmt.Fprintf(b, "production: %s/s, %s/action\n", humanize.Ftoa(st.GPS), humanize.Ftoa(st.GPC))
	fmt.Fprintf(b, "upgrades:   %d owned, %d unlocked\n", st.Upgrades.Len(), st.UnlockedItems.Len())
	fmt.Fprintf(b, "skills:     %s\n", listOrNone(st.LearnedSkills.IDs()))

	if cat != nil {
		for _, f := range cat.Families() {
			if lv := f.Highest(&st); lv > 0 {
				fmt.Fprintf(b, "family:     %s at level %d of %d\n", f.ID, lv, f.MaxLevel)
			}
		}
	}
	for _, name := range st.Counters.Names() {
		fmt.Fprintf(b, "counter:    %s = %s\n", name, humanize.Comma(st.Counters.Get(name)))
	}
	if len(ins.Report.Coerced) > 0 {
		fmt.Fprintf(b, "coerced:    %s\n", strings.Join(ins.Report.Coerced, ", "))
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func listOrNone(ids []string) string {
	if len(ids) == 0 {
		return "none"
	}
	return strings.Join(ids, ", ")
}
