package monitor

import (
	"time"

	"github.com/penwyp/go-scope-monitor/internal/core/model"
	"github.com/penwyp/go-scope-monitor/internal/util"
)

// Deriver turns parsed rows of one file into samples with relative time.
//
// A file is on the timestamp clock once its rows show at least two distinct
// timestamps (the first timestamp ever seen counts). Until then rows get
// synthetic time, index × step. On the timestamp clock rows without a
// timestamp are dropped.
type Deriver struct {
	origin      time.Time
	hasOrigin   bool
	timestamped bool
	next        int64
}

// NewDeriver creates a deriver for a fresh file
func NewDeriver() *Deriver {
	return &Deriver{}
}

// Timestamped reports whether the file is on the timestamp clock
func (d *Deriver) Timestamped() bool {
	return d.timestamped
}

// Origin returns the first timestamp seen in the file
func (d *Deriver) Origin() (time.Time, bool) {
	return d.origin, d.hasOrigin
}

// NextIndex returns the ordinal the next row will get
func (d *Deriver) NextIndex() int64 {
	return d.next
}

// Derive converts rows to samples. step is the synthetic sampling interval in seconds.
func (d *Deriver) Derive(rows []model.Row, step float64) []model.Sample {
	if len(rows) == 0 {
		return nil
	}

	if !d.timestamped {
		d.timestamped = d.distinctTimestamps(rows)
	}

	samples := make([]model.Sample, 0, len(rows))
	for _, row := range rows {
		index := d.next
		d.next++

		if row.HasTimestamp && !d.hasOrigin {
			d.origin = row.Timestamp
			d.hasOrigin = true
		}

		if d.timestamped {
			if !row.HasTimestamp {
				continue
			}
			samples = append(samples, model.Sample{
				Time:  row.Timestamp.Sub(d.origin).Seconds(),
				Value: row.Value,
				Index: index,
			})
			continue
		}

		samples = append(samples, model.Sample{
			Time:      float64(index) * step,
			Value:     row.Value,
			Index:     index,
			Synthetic: true,
		})
	}
	return samples
}

func (d *Deriver) distinctTimestamps(rows []model.Row) bool {
	var first time.Time
	seen := d.hasOrigin
	if seen {
		first = d.origin
	}
	for _, row := range rows {
		if !row.HasTimestamp {
			continue
		}
		if !seen {
			first = row.Timestamp
			seen = true
			continue
		}
		if !row.Timestamp.Equal(first) {
			return true
		}
	}
	return false
}

// Fingerprint hashes a parsed batch together with the byte range [start, end)
// it was read from. Rows appended later never collide with earlier ones, even
// when their values repeat.
func Fingerprint(start, end int64, rows []model.Row) string {
	fp := util.NewFingerprinter()
	fp.AddInt64(start)
	fp.AddInt64(end)
	for _, row := range rows {
		fp.AddBool(row.HasTimestamp)
		if row.HasTimestamp {
			fp.AddInt64(row.Timestamp.UnixNano())
		}
		fp.AddFloat64(row.Value)
	}
	return fp.Sum()
}
