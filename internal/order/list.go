package order

import (
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"
)

// List is a reporting view over many orders. It is read-only: nothing
// here mutates the orders it tabulates.
type List []*Order

// Active returns the orders still working.
func (l List) Active() List {
	var out List
	for _, o := range l {
		if o.Active() {
			out = append(out, o)
		}
	}
	return out
}

// IDs returns the assigned order ids, ascending.
func (l List) IDs() []int64 {
	var out []int64
	for _, o := range l {
		if o.HasID() {
			out = append(out, o.ID())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ContainsEqualOrder reports whether the list already holds an order for
// the same desired trade, the duplicate-submission check run before
// anything is placed.
func (l List) ContainsEqualOrder(candidate *Order) bool {
	for _, o := range l {
		if o.Equals(candidate) {
			return true
		}
	}
	return false
}

// Table renders the list as an id-keyed table of fill time, key, fill
// and price, ordered by id with unsubmitted orders last.
func (l List) Table() string {
	sorted := make(List, len(l))
	copy(sorted, l)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.HasID() != b.HasID() {
			return a.HasID()
		}
		return a.ID() < b.ID()
	})

	var buf strings.Builder
	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tFILL TIME\tKEY\tFILL\tPRICE")
	for _, o := range sorted {
		id := "-"
		if o.HasID() {
			id = fmt.Sprintf("%d", o.ID())
		}
		fillTime := "-"
		if !o.FillTime().IsZero() {
			fillTime = o.FillTime().UTC().Format("2006-01-02 15:04:05.000")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", id, fillTime, o.Key(), o.Filled(), o.FilledPrice())
	}
	w.Flush()
	return buf.String()
}
