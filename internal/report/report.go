// Package report ranks installed, played games by how much disk space they
// take per hour played and renders the result.
package report

import (
	"errors"
	"math/big"
	"sort"
)

// Unit conversions used by the value ratio.
const (
	BytesPerGB     = 1_000_000_000
	MinutesPerHour = 60
)

// ErrNoGames is returned by Build when no game has a name, a positive size
// and a positive playtime.
var ErrNoGames = errors.New("no installed and played games to rank")

// Entry is one ranked game.
type Entry struct {
	AppID     int
	Name      string
	Minutes   int
	SizeBytes int64

	ratio *big.Rat
}

// Ratio returns the exact GB-per-hour value of the entry.
func (e Entry) Ratio() *big.Rat {
	if e.ratio == nil {
		return new(big.Rat)
	}
	return new(big.Rat).Set(e.ratio)
}

// RatioFloat returns the GB-per-hour value as the nearest float64.
func (e Entry) RatioFloat() float64 {
	f, _ := e.Ratio().Float64()
	return f
}

// SizeGB returns the exact on-disk size in gigabytes (10^9 bytes).
func (e Entry) SizeGB() *big.Rat {
	return big.NewRat(e.SizeBytes, BytesPerGB)
}

// Report holds the ranked entries, most GB per hour first.
type Report struct {
	Entries []Entry

	totalBytes   *big.Int
	totalMinutes *big.Int
}

// Ratio computes (bytes / 1e9) / (minutes / 60) exactly. minutes must be positive.
func Ratio(sizeBytes int64, minutes int) *big.Rat {
	num := new(big.Int).Mul(big.NewInt(sizeBytes), big.NewInt(MinutesPerHour))
	den := new(big.Int).Mul(big.NewInt(int64(minutes)), big.NewInt(BytesPerGB))
	return new(big.Rat).SetFrac(num, den)
}

// Build joins playtimes, sizes and names into a ranked report. Only ids present
// in all three maps with positive playtime and positive size are kept. Ties on
// the ratio are ordered by ascending app id.
func Build(playtimes map[int]int, sizes map[int]int64, names map[int]string) (*Report, error) {
	r := &Report{
		totalBytes:   new(big.Int),
		totalMinutes: new(big.Int),
	}

	for id, minutes := range playtimes {
		size, ok := sizes[id]
		if !ok || size <= 0 || minutes <= 0 {
			continue
		}
		name, ok := names[id]
		if !ok {
			continue
		}

		r.Entries = append(r.Entries, Entry{
			AppID:     id,
			Name:      name,
			Minutes:   minutes,
			SizeBytes: size,
			ratio:     Ratio(size, minutes),
		})
		r.totalBytes.Add(r.totalBytes, big.NewInt(size))
		r.totalMinutes.Add(r.totalMinutes, big.NewInt(int64(minutes)))
	}

	if len(r.Entries) == 0 {
		return nil, ErrNoGames
	}

	sort.Slice(r.Entries, func(i, j int) bool {
		if c := r.Entries[i].ratio.Cmp(r.Entries[j].ratio); c != 0 {
			return c > 0
		}
		return r.Entries[i].AppID < r.Entries[j].AppID
	})

	return r, nil
}

// Len returns the number of ranked games.
func (r *Report) Len() int {
	return len(r.Entries)
}

// Average returns total GB over total hours across all entries, which weights
// each game by its playtime rather than averaging the per-game ratios.
func (r *Report) Average() *big.Rat {
	num := new(big.Int).Mul(r.totalBytes, big.NewInt(MinutesPerHour))
	den := new(big.Int).Mul(r.totalMinutes, big.NewInt(BytesPerGB))
	return new(big.Rat).SetFrac(num, den)
}

// Best returns the entry with the least GB per hour.
func (r *Report) Best() Entry {
	return r.Entries[len(r.Entries)-1]
}

// Worst returns the entry with the most GB per hour.
func (r *Report) Worst() Entry {
	return r.Entries[0]
}
