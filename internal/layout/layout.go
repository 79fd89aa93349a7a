// Package layout computes the presentation model for a theater seating
// chart from raw seat data.  It is pure: no I/O, no shared state, and
// identical inputs always produce identical output, so it is safe to
// call concurrently and repeatedly while a user toggles seat selection.
package layout

import (
    "sort"
    "strings"

    "golang.org/x/text/collate"
    "golang.org/x/text/language"
)

// Seat carries the fields the engine needs to place a seat on the
// chart.  ID may be zero for preview data that has not been persisted
// yet (e.g. a venue still being designed).
type Seat struct {
    ID                uint64 `json:"id"`                   // seat identity, used for selection lookups
    Row               string `json:"row"`                  // row label such as "A" or "AA"
    Number            uint32 `json:"number"`               // seat number within the row
    Status            string `json:"status"`               // ticket status; empty means available
    CategoryColor     string `json:"-"`                    // fill color of the assigned category
    CategoryTextColor string `json:"-"`                    // text color of the assigned category
    TicketID          uint64 `json:"ticket_id,omitempty"`  // ticket covering this seat, when one exists
}

// Section is one named group of seats with a section type.  No ordering
// is assumed on Seats; the engine always re-sorts.
type Section struct {
    Name  string
    Type  string
    Seats []Seat
}

// RenderSeat is a seat decorated for display.  Color and TextColor are
// only populated for available seats; seats in any other status get a
// fixed status-based treatment and ignore the category colors.
type RenderSeat struct {
    Seat
    Selected  bool   `json:"selected"`
    Color     string `json:"color,omitempty"`
    TextColor string `json:"text_color,omitempty"`
}

// Options controls per-call presentation state.  Selected holds the IDs
// of seats the user has picked.  Decorate, when non-nil, may replace
// the default render state of each seat; it must not retain references
// into its arguments.
type Options struct {
    Selected map[uint64]bool
    Decorate func(Seat, RenderSeat) RenderSeat
}

// Row is one displayed row of a standard section.
type Row struct {
    Label string       `json:"label"`
    Seats []RenderSeat `json:"seats"`
}

// SectionBlock is a standard-mode section ready for display: rows in
// display order, each row's seats ascending by number.
type SectionBlock struct {
    Name      string `json:"name"`
    Type      string `json:"type"`
    SeatCount int    `json:"seat_count"`
    Rows      []Row  `json:"rows"`
}

// TheaterRow is one displayed row of a theater-mode chart.  The row
// label is printed twice: Label to the left of the left wing and
// MidLabel between the center block and the right wing, matching the
// venue's printed charts.
type TheaterRow struct {
    Label       string       `json:"label"`
    MidLabel    string       `json:"mid_label"`
    Left        []RenderSeat `json:"left"`         // left wing, seat numbers descending
    CenterEvens []RenderSeat `json:"center_evens"` // even seat numbers, descending toward the aisle
    CenterOdds  []RenderSeat `json:"center_odds"`  // odd seat numbers, ascending away from the aisle
    Right       []RenderSeat `json:"right"`        // right wing, seat numbers ascending
}

// TheaterBlock is the three-winged chart rendered when a floor has
// left-wing, center and right-wing sections at the same time.
type TheaterBlock struct {
    LeftName   string       `json:"left_name"`
    CenterName string       `json:"center_name"`
    RightName  string       `json:"right_name"`
    Rows       []TheaterRow `json:"rows"`
}

// Model is the full rendering model for one floor.  In theater mode
// Theater is non-nil and Sections holds only the leftover sections that
// matched none of the three wing roles; otherwise Theater is nil and
// every section appears in Sections.
type Model struct {
    TheaterMode bool           `json:"theater_mode"`
    Theater     *TheaterBlock  `json:"theater,omitempty"`
    Sections    []SectionBlock `json:"sections"`
}

// Section types with a special role in theater mode.
const (
    typeLeftWing  = "left_wing"
    typeCenter    = "center"
    typeRightWing = "right_wing"
)

// stageFrontRows lists the curved rows closest to the stage in display
// order.  Labels on this list always sort before labels that are not.
var stageFrontRows = []string{"AA", "BB", "CC", "DD"}

func stageFrontIndex(label string) int {
    u := strings.ToUpper(label)
    for i, r := range stageFrontRows {
        if u == r {
            return i
        }
    }
    return -1
}

// rowSorter orders row labels for display: stage-front rows first in
// their list order, then remaining labels shortest first, ties broken
// by collated comparison.
type rowSorter struct {
    col *collate.Collator
}

func newRowSorter() rowSorter {
    return rowSorter{col: collate.New(language.Und)}
}

func (s rowSorter) less(a, b string) bool {
    ai, bi := stageFrontIndex(a), stageFrontIndex(b)
    if ai != -1 || bi != -1 {
        if ai == -1 {
            return false
        }
        if bi == -1 {
            return true
        }
        return ai < bi
    }
    if len(a) != len(b) {
        return len(a) < len(b)
    }
    return s.col.CompareString(a, b) < 0
}

func (s rowSorter) sort(labels []string) {
    sort.SliceStable(labels, func(i, j int) bool { return s.less(labels[i], labels[j]) })
}

// groupByRow buckets seats by their row label.  Bucket order is
// irrelevant; callers always re-sort the label set.
func groupByRow(seats []Seat) map[string][]Seat {
    m := make(map[string][]Seat)
    for _, st := range seats {
        m[st.Row] = append(m[st.Row], st)
    }
    return m
}

// IsTheaterLayout reports whether the section set renders as a theater
// chart: it must contain a left wing, a center and a right wing at the
// same time.  The predicate is recomputed on every call and never
// cached.
func IsTheaterLayout(sections []Section) bool {
    types := make(map[string]bool, len(sections))
    for _, s := range sections {
        types[s.Type] = true
    }
    return types[typeLeftWing] && types[typeCenter] && types[typeRightWing]
}

// ComputeLayout builds the rendering model for the given sections.  The
// input is never mutated: seats are copied before sorting.
func ComputeLayout(sections []Section, opts Options) Model {
    sorter := newRowSorter()
    if !IsTheaterLayout(sections) {
        m := Model{Sections: make([]SectionBlock, 0, len(sections))}
        for _, sec := range sections {
            m.Sections = append(m.Sections, buildSectionBlock(sec, sorter, opts))
        }
        return m
    }

    // Theater mode: the first section of each wing role wins when a
    // role appears more than once; the rest fall through to leftovers.
    var left, center, right *Section
    leftovers := make([]Section, 0)
    for i := range sections {
        sec := &sections[i]
        switch sec.Type {
        case typeLeftWing:
            if left == nil {
                left = sec
                continue
            }
        case typeCenter:
            if center == nil {
                center = sec
                continue
            }
        case typeRightWing:
            if right == nil {
                right = sec
                continue
            }
        }
        leftovers = append(leftovers, *sec)
    }

    leftRows := groupByRow(left.Seats)
    centerRows := groupByRow(center.Seats)
    rightRows := groupByRow(right.Seats)

    // A row only needs to exist in one of the three roles; the union of
    // labels drives the chart and missing groups contribute no seats.
    labelSet := make(map[string]bool)
    for lbl := range leftRows {
        labelSet[lbl] = true
    }
    for lbl := range centerRows {
        labelSet[lbl] = true
    }
    for lbl := range rightRows {
        labelSet[lbl] = true
    }
    labels := make([]string, 0, len(labelSet))
    for lbl := range labelSet {
        labels = append(labels, lbl)
    }
    sorter.sort(labels)

    block := &TheaterBlock{
        LeftName:   left.Name,
        CenterName: center.Name,
        RightName:  right.Name,
        Rows:       make([]TheaterRow, 0, len(labels)),
    }
    for _, lbl := range labels {
        row := TheaterRow{Label: lbl, MidLabel: lbl}
        row.Left = renderSeats(sortedByNumber(leftRows[lbl], true), opts)
        evens, odds := splitCenter(centerRows[lbl])
        row.CenterEvens = renderSeats(evens, opts)
        row.CenterOdds = renderSeats(odds, opts)
        row.Right = renderSeats(sortedByNumber(rightRows[lbl], false), opts)
        block.Rows = append(block.Rows, row)
    }

    m := Model{TheaterMode: true, Theater: block, Sections: make([]SectionBlock, 0, len(leftovers))}
    for _, sec := range leftovers {
        m.Sections = append(m.Sections, buildSectionBlock(sec, sorter, opts))
    }
    return m
}

// buildSectionBlock renders one section in standard mode: rows sorted
// by the row ordering rule, seats ascending by number.
func buildSectionBlock(sec Section, sorter rowSorter, opts Options) SectionBlock {
    rows := groupByRow(sec.Seats)
    labels := make([]string, 0, len(rows))
    for lbl := range rows {
        labels = append(labels, lbl)
    }
    sorter.sort(labels)

    block := SectionBlock{
        Name:      sec.Name,
        Type:      sec.Type,
        SeatCount: len(sec.Seats),
        Rows:      make([]Row, 0, len(labels)),
    }
    for _, lbl := range labels {
        block.Rows = append(block.Rows, Row{
            Label: lbl,
            Seats: renderSeats(sortedByNumber(rows[lbl], false), opts),
        })
    }
    return block
}

// sortedByNumber returns a sorted copy of seats, leaving the input
// untouched.
func sortedByNumber(seats []Seat, descending bool) []Seat {
    out := make([]Seat, len(seats))
    copy(out, seats)
    sort.SliceStable(out, func(i, j int) bool {
        if descending {
            return out[i].Number > out[j].Number
        }
        return out[i].Number < out[j].Number
    })
    return out
}

// splitCenter divides center seats at the aisle: even numbers sorted
// descending on the left side, odd numbers ascending on the right, so
// the lowest even and lowest odd seat end up adjacent at the aisle.
func splitCenter(seats []Seat) (evens, odds []Seat) {
    for _, st := range seats {
        if st.Number%2 == 0 {
            evens = append(evens, st)
        } else {
            odds = append(odds, st)
        }
    }
    sort.SliceStable(evens, func(i, j int) bool { return evens[i].Number > evens[j].Number })
    sort.SliceStable(odds, func(i, j int) bool { return odds[i].Number < odds[j].Number })
    return evens, odds
}

// renderSeats derives the visual state for each seat.  Status defaults
// to available; only available seats carry the category colors, other
// statuses use their fixed treatment and ignore supplied colors.
func renderSeats(seats []Seat, opts Options) []RenderSeat {
    out := make([]RenderSeat, 0, len(seats))
    for _, st := range seats {
        if st.Status == "" {
            st.Status = "available"
        }
        rs := RenderSeat{Seat: st, Selected: opts.Selected[st.ID]}
        if st.Status == "available" {
            rs.Color = st.CategoryColor
            rs.TextColor = st.CategoryTextColor
        }
        if opts.Decorate != nil {
            rs = opts.Decorate(st, rs)
        }
        out = append(out, rs)
    }
    return out
}
