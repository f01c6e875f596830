package melon

import (
	"bytes"
	"encoding/json"
	"fmt"
	"unicode/utf8"
)

// Entry is one ranked track in a chart snapshot.
//
// Entries are built only by [ParseChart] and handed out by value, so a
// caller's copy can never alter the chart it came from.
type Entry struct {
	Title   string // track title; empty for some compilation entries
	Artist  string // first credited artist
	Image   string // cover URL resized to the chart's ImageSize
	LastPos int    // rank in the previous period as reported upstream
	Rank    int    // current rank as reported upstream (1-based)
	IsNew   bool   // upstream marks the track as newly charted
}

// String returns "'TITLE' by ARTIST", or just ARTIST when the title is empty.
func (e Entry) String() string {
	if e.Title == "" {
		return e.Artist
	}
	return fmt.Sprintf("'%s' by %s", e.Title, e.Artist)
}

// GoString implements fmt.GoStringer for %#v.
func (e Entry) GoString() string {
	return fmt.Sprintf("melon.Entry{Title:%q, Artist:%q}", e.Title, e.Artist)
}

// entryView is the serialized form of an Entry. Fields are declared in
// sorted key order.
type entryView struct {
	Artist  string `json:"artist"`
	Image   string `json:"image"`
	IsNew   bool   `json:"isNew"`
	LastPos int    `json:"lastPos"`
	Rank    int    `json:"rank"`
	Title   string `json:"title"`
}

func (e Entry) view() entryView {
	return entryView{
		Artist:  e.Artist,
		Image:   e.Image,
		IsNew:   e.IsNew,
		LastPos: e.LastPos,
		Rank:    e.Rank,
		Title:   e.Title,
	}
}

// MarshalJSON encodes the entry with sorted keys and unescaped HTML.
func (e Entry) MarshalJSON() ([]byte, error) {
	return encodeJSON(e.view(), false)
}

// UnmarshalJSON decodes the form produced by MarshalJSON.
func (e *Entry) UnmarshalJSON(data []byte) error {
	var v entryView
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*e = Entry{
		Title:   v.Title,
		Artist:  v.Artist,
		Image:   v.Image,
		LastPos: v.LastPos,
		Rank:    v.Rank,
		IsNew:   v.IsNew,
	}
	return nil
}

// JSON returns the entry as 4-space indented JSON with sorted keys.
// Non-ASCII text is written as-is.
func (e Entry) JSON() (string, error) {
	b, err := encodeJSON(e.view(), true)
	return string(b), err
}

func encodeJSON(v any, indent bool) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if indent {
		enc.SetIndent("", "    ")
	}
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return unescapeLineSeparators(bytes.TrimSuffix(buf.Bytes(), []byte("\n"))), nil
}

// unescapeLineSeparators writes U+2028 and U+2029 as raw UTF-8. The encoder
// escapes them even with HTML escaping off.
func unescapeLineSeparators(b []byte) []byte {
	if !bytes.Contains(b, []byte(`\u202`)) {
		return b
	}
	out := make([]byte, 0, len(b))
	for i := 0; i < len(b); i++ {
		if b[i] != '\\' || i+1 >= len(b) {
			out = append(out, b[i])
			continue
		}
		if seq := b[i:min(i+6, len(b))]; len(seq) == 6 && bytes.HasPrefix(seq, []byte(`\u202`)) && (seq[5] == '8' || seq[5] == '9') {
			out = utf8.AppendRune(out, rune(0x2028+int(seq[5]-'8')))
			i += 5
			continue
		}
		// Copy any other escape whole so an escaped backslash is never
		// read as the start of a sequence.
		out = append(out, b[i], b[i+1])
		i++
	}
	return out
}
