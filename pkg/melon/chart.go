package melon

import (
	"context"
	"errors"
	"iter"
	"slices"
	"time"

	melonerrors "github.com/matzehuels/melonchart/pkg/errors"
	"github.com/matzehuels/melonchart/pkg/observability"
)

// Chart is one snapshot of the real-time song chart.
//
// A Chart starts Empty (no entries, zero Name and Date) and becomes
// Populated after the first successful [Chart.FetchEntries]. Later fetches
// replace the whole snapshot. A failed fetch leaves the chart exactly as it
// was before the call.
//
// Reads are safe once a fetch has returned; concurrent FetchEntries calls on
// the same Chart are not.
type Chart struct {
	Name      string    // chart identifier from response.PAGE; set by FetchEntries
	Date      time.Time // chart period start; set by FetchEntries
	ImageSize int       // cover-image edge length requested for entries

	entries   []Entry
	populated bool
	client    *Client
}

// NewChart creates a chart that fetches through client.
//
// A nil client uses [DefaultConfig] with no cache. An imageSize of 0 or less
// takes the client's configured size (256 by default). When fetch is true
// the chart is fetched before NewChart returns and any fetch error is
// returned with a nil chart.
func NewChart(ctx context.Context, client *Client, imageSize int, fetch bool) (*Chart, error) {
	ch := &Chart{ImageSize: imageSize, client: client}
	if err := ch.prepare(); err != nil {
		return nil, err
	}
	if fetch {
		if err := ch.FetchEntries(ctx); err != nil {
			return nil, err
		}
	}
	return ch, nil
}

// prepare fills in the client and image size, so a zero Chart fetches
// through the default client at the default size.
func (ch *Chart) prepare() error {
	if ch.client == nil {
		c, err := NewClient(DefaultConfig(), nil, 0)
		if err != nil {
			return err
		}
		ch.client = c
	}
	if ch.ImageSize <= 0 {
		ch.ImageSize = ch.client.cfg.ImageSize
	}
	return melonerrors.ValidateImageSize(ch.ImageSize)
}

// FetchEntries requests the chart and replaces the snapshot with the result.
// A cached response is used when the client has one. On a zero Chart it
// uses the default client and image size.
//
// Errors: *RequestError for transport or non-200 responses, *ParseError for
// payloads that cannot be mapped, or the context error.
func (ch *Chart) FetchEntries(ctx context.Context) error {
	return ch.fetch(ctx, false)
}

// Refresh is FetchEntries with the response cache bypassed.
func (ch *Chart) Refresh(ctx context.Context) error {
	return ch.fetch(ctx, true)
}

func (ch *Chart) fetch(ctx context.Context, refresh bool) (err error) {
	if err := ch.prepare(); err != nil {
		return err
	}
	endpoint := ch.client.cfg.Endpoint
	observability.Chart().OnFetchStart(ctx, endpoint)
	start := time.Now()
	n := 0
	defer func() {
		observability.Chart().OnFetchComplete(ctx, endpoint, n, time.Since(start), err)
	}()

	body, err := ch.client.Fetch(ctx, refresh)
	if err != nil {
		return err
	}

	snap, err := ParseChart(body, ch.ImageSize, ch.client.cfg.Location)
	if err != nil {
		var pe *ParseError
		if errors.As(err, &pe) {
			_ = ch.client.Invalidate(ctx)
		}
		return err
	}

	ch.Name = snap.Name
	ch.Date = snap.Date
	ch.entries = snap.Entries
	ch.populated = true
	n = len(snap.Entries)
	return nil
}

// Populated reports whether a fetch has succeeded.
func (ch *Chart) Populated() bool { return ch.populated }

// Len returns the number of entries currently held.
func (ch *Chart) Len() int { return len(ch.entries) }

// Entry returns the entry at position i in upstream order. Position is not
// rank: use Entry(0) for the first listed track.
func (ch *Chart) Entry(i int) (Entry, error) {
	if i < 0 || i >= len(ch.entries) {
		return Entry{}, &IndexError{Index: i, Len: len(ch.entries)}
	}
	return ch.entries[i], nil
}

// Entries returns a copy of the entries in upstream order.
func (ch *Chart) Entries() []Entry {
	return slices.Clone(ch.entries)
}

// All iterates over positions and entries in upstream order.
func (ch *Chart) All() iter.Seq2[int, Entry] {
	return slices.All(ch.entries)
}

// chartView is the serialized form of a Chart, fields in sorted key order.
type chartView struct {
	Date      string  `json:"date,omitempty"`
	Entries   []Entry `json:"entries"`
	ImageSize int     `json:"imageSize"`
	Name      string  `json:"name,omitempty"`
}

func (ch *Chart) view() chartView {
	v := chartView{
		Entries:   ch.entries,
		ImageSize: ch.ImageSize,
		Name:      ch.Name,
	}
	if v.Entries == nil {
		v.Entries = []Entry{}
	}
	if !ch.Date.IsZero() {
		v.Date = ch.Date.Format(time.RFC3339)
	}
	return v
}

// MarshalJSON encodes the chart with sorted keys and unescaped HTML.
func (ch *Chart) MarshalJSON() ([]byte, error) {
	return encodeJSON(ch.view(), false)
}

// JSON returns the chart (image size, name, date and entries) as 4-space
// indented JSON with sorted keys. The date is RFC 3339; name and date are
// omitted while the chart is Empty.
func (ch *Chart) JSON() (string, error) {
	b, err := encodeJSON(ch.view(), true)
	return string(b), err
}
