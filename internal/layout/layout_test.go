package layout

import (
    "testing"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

var nextSeatID uint64

func seatRow(row string, numbers ...uint32) []Seat {
    out := make([]Seat, 0, len(numbers))
    for _, n := range numbers {
        nextSeatID++
        out = append(out, Seat{ID: nextSeatID, Row: row, Number: n})
    }
    return out
}

func numbers(seats []RenderSeat) []uint32 {
    out := make([]uint32, 0, len(seats))
    for _, s := range seats {
        out = append(out, s.Number)
    }
    return out
}

func rowLabels(rows []Row) []string {
    out := make([]string, 0, len(rows))
    for _, r := range rows {
        out = append(out, r.Label)
    }
    return out
}

func TestIsTheaterLayout(t *testing.T) {
    full := []Section{
        {Name: "Left", Type: "left_wing"},
        {Name: "Center", Type: "center"},
        {Name: "Right", Type: "right_wing"},
    }
    assert.True(t, IsTheaterLayout(full))
    assert.True(t, IsTheaterLayout(append(full, Section{Name: "Balcony", Type: "balcony"})))
    assert.False(t, IsTheaterLayout(full[:2]))
    assert.False(t, IsTheaterLayout([]Section{
        {Name: "Orchestra", Type: "orchestra"},
        {Name: "Balcony", Type: "balcony"},
    }))
    assert.False(t, IsTheaterLayout(nil))
}

func TestRowOrderingStageFrontFirst(t *testing.T) {
    var seats []Seat
    for _, row := range []string{"C", "AA", "A", "BB", "B"} {
        seats = append(seats, seatRow(row, 1, 2)...)
    }
    m := ComputeLayout([]Section{{Name: "Orchestra", Type: "orchestra", Seats: seats}}, Options{})
    require.Len(t, m.Sections, 1)
    assert.Equal(t, []string{"AA", "BB", "A", "B", "C"}, rowLabels(m.Sections[0].Rows))
}

func TestRowOrderingShorterLabelsFirst(t *testing.T) {
    var seats []Seat
    for _, row := range []string{"AB", "Z", "B"} {
        seats = append(seats, seatRow(row, 1)...)
    }
    m := ComputeLayout([]Section{{Name: "Balcony", Type: "balcony", Seats: seats}}, Options{})
    require.Len(t, m.Sections, 1)
    assert.Equal(t, []string{"B", "Z", "AB"}, rowLabels(m.Sections[0].Rows))
}

func TestStandardSectionSeatsAscending(t *testing.T) {
    seats := seatRow("A", 5, 1, 3, 2, 4)
    m := ComputeLayout([]Section{{Name: "Orchestra", Type: "orchestra", Seats: seats}}, Options{})
    require.Len(t, m.Sections, 1)
    require.Len(t, m.Sections[0].Rows, 1)
    assert.Equal(t, []uint32{1, 2, 3, 4, 5}, numbers(m.Sections[0].Rows[0].Seats))
    assert.Equal(t, 5, m.Sections[0].SeatCount)
}

func theaterSections() []Section {
    return []Section{
        {Name: "Left Wing", Type: "left_wing", Seats: seatRow("A", 1, 2, 3)},
        {Name: "Center", Type: "center", Seats: seatRow("A", 1, 2, 3, 4, 5, 6, 7, 8, 9, 10)},
        {Name: "Right Wing", Type: "right_wing", Seats: seatRow("A", 3, 1, 2)},
    }
}

func TestTheaterModeSeatOrdering(t *testing.T) {
    m := ComputeLayout(theaterSections(), Options{})
    assert.True(t, m.TheaterMode)
    require.NotNil(t, m.Theater)
    assert.Empty(t, m.Sections)
    require.Len(t, m.Theater.Rows, 1)

    row := m.Theater.Rows[0]
    assert.Equal(t, "A", row.Label)
    assert.Equal(t, "A", row.MidLabel)
    assert.Equal(t, []uint32{3, 2, 1}, numbers(row.Left))
    assert.Equal(t, []uint32{10, 8, 6, 4, 2}, numbers(row.CenterEvens))
    assert.Equal(t, []uint32{1, 3, 5, 7, 9}, numbers(row.CenterOdds))
    assert.Equal(t, []uint32{1, 2, 3}, numbers(row.Right))
}

func TestTheaterModeRowLabelUnion(t *testing.T) {
    sections := []Section{
        {Name: "Left Wing", Type: "left_wing", Seats: seatRow("A", 1)},
        {Name: "Center", Type: "center", Seats: seatRow("B", 1, 2)},
        {Name: "Right Wing", Type: "right_wing", Seats: seatRow("C", 1)},
    }
    m := ComputeLayout(sections, Options{})
    require.NotNil(t, m.Theater)
    require.Len(t, m.Theater.Rows, 3)
    assert.Equal(t, "A", m.Theater.Rows[0].Label)
    assert.Empty(t, m.Theater.Rows[0].Right)
    assert.Equal(t, "B", m.Theater.Rows[1].Label)
    assert.Empty(t, m.Theater.Rows[1].Left)
    assert.Equal(t, "C", m.Theater.Rows[2].Label)
    assert.Empty(t, m.Theater.Rows[2].CenterEvens)
    assert.Empty(t, m.Theater.Rows[2].CenterOdds)
}

func TestTheaterModeDuplicateRoleFallsToLeftovers(t *testing.T) {
    sections := append(theaterSections(), Section{Name: "Center 2", Type: "center", Seats: seatRow("B", 1)})
    m := ComputeLayout(sections, Options{})
    require.NotNil(t, m.Theater)
    assert.Equal(t, "Center", m.Theater.CenterName)
    require.Len(t, m.Sections, 1)
    assert.Equal(t, "Center 2", m.Sections[0].Name)
}

func TestTheaterModeLeftoverSections(t *testing.T) {
    sections := append(theaterSections(), Section{Name: "Balcony", Type: "balcony", Seats: seatRow("A", 1, 2)})
    m := ComputeLayout(sections, Options{})
    assert.True(t, m.TheaterMode)
    require.Len(t, m.Sections, 1)
    assert.Equal(t, "Balcony", m.Sections[0].Name)
}

func TestComputeLayoutDoesNotMutateInput(t *testing.T) {
    seats := seatRow("A", 3, 1, 2)
    sections := []Section{{Name: "Orchestra", Type: "orchestra", Seats: seats}}
    ComputeLayout(sections, Options{})
    assert.Equal(t, []uint32{3, 1, 2}, []uint32{seats[0].Number, seats[1].Number, seats[2].Number})
}

func TestRenderSeatColorsAndSelection(t *testing.T) {
    seats := []Seat{
        {ID: 1, Row: "A", Number: 1, CategoryColor: "#ff0000", CategoryTextColor: "#ffffff"},
        {ID: 2, Row: "A", Number: 2, Status: "sold", CategoryColor: "#ff0000", CategoryTextColor: "#ffffff"},
    }
    m := ComputeLayout(
        []Section{{Name: "Orchestra", Type: "orchestra", Seats: seats}},
        Options{Selected: map[uint64]bool{2: true}},
    )
    require.Len(t, m.Sections, 1)
    require.Len(t, m.Sections[0].Rows, 1)
    got := m.Sections[0].Rows[0].Seats

    assert.Equal(t, "available", got[0].Status)
    assert.Equal(t, "#ff0000", got[0].Color)
    assert.Equal(t, "#ffffff", got[0].TextColor)
    assert.False(t, got[0].Selected)

    assert.Equal(t, "sold", got[1].Status)
    assert.Empty(t, got[1].Color)
    assert.Empty(t, got[1].TextColor)
    assert.True(t, got[1].Selected)
}

func TestDecorateHook(t *testing.T) {
    seats := seatRow("A", 1, 2)
    m := ComputeLayout(
        []Section{{Name: "Orchestra", Type: "orchestra", Seats: seats}},
        Options{Decorate: func(s Seat, rs RenderSeat) RenderSeat {
            if s.Number == 2 {
                rs.Color = "#00ff00"
            }
            return rs
        }},
    )
    got := m.Sections[0].Rows[0].Seats
    assert.Empty(t, got[0].Color)
    assert.Equal(t, "#00ff00", got[1].Color)
}

func TestComputeLayoutIdempotentAcrossSelections(t *testing.T) {
    sections := theaterSections()
    picked := sections[1].Seats[0].ID
    first := ComputeLayout(sections, Options{Selected: map[uint64]bool{picked: true}})
    second := ComputeLayout(sections, Options{})
    third := ComputeLayout(sections, Options{Selected: map[uint64]bool{picked: true}})
    assert.NotEqual(t, first, second)
    assert.Equal(t, first, third)
}
