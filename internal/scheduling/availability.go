package scheduling

import (
	"fmt"
	"tablereserve/pkg/model"
)

// Slot is a candidate start time, in minutes after midnight, with the number
// of tables of the requested class still free across its whole span.
type Slot struct {
	Start     int
	End       int
	Available int
}

// Label renders the slot as "18:00 - 19:00".
func (s Slot) Label() string {
	return fmt.Sprintf("%s - %s", FormatClock(s.Start), FormatClock(s.End))
}

// Occupancy counts tables in use per hour bucket; key 18 covers 18:00-18:59.
type Occupancy map[int]int

// Overlaps is the strict half-open test on minute intervals: [aStart, aEnd)
// and [bStart, bEnd) overlap only if they share a minute. Touching ends do not.
func Overlaps(aStart, aEnd, bStart, bEnd int) bool {
	return aStart < bEnd && aEnd > bStart
}

// hoursTouched lists the hour buckets [h:00, h+1:00) that overlap
// [start, start+duration). Partial hours count as the whole hour.
func hoursTouched(startMin, durationMin int) []int {
	end := startMin + durationMin
	var hours []int
	for h := startMin / MinutesPerHour; Overlaps(startMin, end, h*MinutesPerHour, (h+1)*MinutesPerHour); h++ {
		hours = append(hours, h)
	}
	return hours
}

// ReservationSpan returns a reservation's start minute and duration. Older
// records without a stored duration fall back to their end clock.
func ReservationSpan(r *model.Reservation) (int, int, error) {
	start, err := ParseClock(r.ResStartTime)
	if err != nil {
		return 0, 0, err
	}
	if r.DurationMin > 0 {
		return start, r.DurationMin, nil
	}
	end, err := ParseClock(r.ResEndTime)
	if err != nil {
		return 0, 0, err
	}
	if end <= start {
		return 0, 0, ErrInvalidDuration
	}
	return start, end - start, nil
}

// BuildOccupancy marks every hour spanned by a pending reservation of the
// given class. An empty size accepts every class. Reservations in any other
// status hold no table; malformed records are skipped.
func BuildOccupancy(reservations []*model.Reservation, size string) Occupancy {
	occ := Occupancy{}
	for _, r := range reservations {
		if r == nil || r.Status != model.StatusPending {
			continue
		}
		if size != "" && r.TableSize != size {
			continue
		}
		start, duration, err := ReservationSpan(r)
		if err != nil {
			continue
		}
		for _, h := range hoursTouched(start, duration) {
			occ[h]++
		}
	}
	return occ
}

// Peak returns the highest occupancy over the hours a request would span.
func (o Occupancy) Peak(startMin, durationMin int) int {
	peak := 0
	for _, h := range hoursTouched(startMin, durationMin) {
		peak = max(peak, o[h])
	}
	return peak
}

// Remaining is the number of tables free for the whole request, clamped to [0, total].
func (o Occupancy) Remaining(total, startMin, durationMin int) int {
	if total <= 0 {
		return 0
	}
	return min(max(total-o.Peak(startMin, durationMin), 0), total)
}

// Slots enumerates hourly start times from opening while the request still
// ends by closing, reporting the free table count for each.
func Slots(restaurant *model.Restaurant, size string, durationMin int, reservations []*model.Reservation) ([]Slot, error) {
	if durationMin <= 0 {
		return nil, ErrInvalidDuration
	}
	if err := ValidateHours(restaurant.OpenTime, restaurant.CloseTime); err != nil {
		return nil, err
	}
	open, _ := ParseClock(restaurant.OpenTime)
	closing, _ := ParseClock(restaurant.CloseTime)

	total := TableCount(restaurant, size)
	occ := BuildOccupancy(reservations, size)

	var slots []Slot
	for start := open; start+durationMin <= closing; start += MinutesPerHour {
		slots = append(slots, Slot{
			Start:     start,
			End:       start + durationMin,
			Available: occ.Remaining(total, start, durationMin),
		})
	}
	return slots, nil
}

// Available drops slots with no free table.
func Available(slots []Slot) []Slot {
	out := make([]Slot, 0, len(slots))
	for _, s := range slots {
		if s.Available >= 1 {
			out = append(out, s)
		}
	}
	return out
}

// TableStatus reports used and free tables per class for every opening hour.
func TableStatus(restaurant *model.Restaurant, reservations []*model.Reservation) ([]model.HourlyTableStatus, error) {
	if err := ValidateHours(restaurant.OpenTime, restaurant.CloseTime); err != nil {
		return nil, err
	}
	open, _ := ParseClock(restaurant.OpenTime)
	closing, _ := ParseClock(restaurant.CloseTime)

	bySize := make(map[string]Occupancy, len(model.TableSizes))
	for _, size := range model.TableSizes {
		bySize[size] = BuildOccupancy(reservations, size)
	}

	usage := func(size string, hour int) model.TableUsage {
		total := TableCount(restaurant, size)
		used := min(bySize[size][hour], total)
		return model.TableUsage{Unavailable: used, Available: total - used}
	}

	var status []model.HourlyTableStatus
	for h := open / MinutesPerHour; h*MinutesPerHour < closing; h++ {
		status = append(status, model.HourlyTableStatus{
			Time:   FormatClock(h * MinutesPerHour),
			Small:  usage(model.TableSmall, h),
			Medium: usage(model.TableMedium, h),
			Large:  usage(model.TableLarge, h),
		})
	}
	return status, nil
}
