package melon

import (
	"errors"
	"os"
	"strings"
	"testing"
	"time"
)

func loadFixture(t *testing.T) []byte {
	t.Helper()
	data, err := os.ReadFile("testdata/chart.json")
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	return data
}

func TestParseChart(t *testing.T) {
	snap, err := ParseChart(loadFixture(t), 512, nil)
	if err != nil {
		t.Fatalf("ParseChart() error: %v", err)
	}

	if snap.Name != "CHART_REALTIME" {
		t.Errorf("Name = %q, want CHART_REALTIME", snap.Name)
	}

	y, m, d := snap.Date.Date()
	if y != 2023 || m != time.May || d != 1 || snap.Date.Hour() != 13 || snap.Date.Minute() != 0 {
		t.Errorf("Date = %v, want 2023-05-01 13:00", snap.Date)
	}
	if _, off := snap.Date.Zone(); off != 9*60*60 {
		t.Errorf("Date offset = %d, want +9h", off)
	}

	want := []Entry{
		{
			Title:   "Kitsch",
			Artist:  "IVE (아이브)",
			Image:   "https://cdnimg.melon.co.kr/cm2/album/images/111/89/470/11189470_20230327120115_500.jpg/melon/resize/512/quality/80/optimize",
			LastPos: 2,
			Rank:    1,
		},
		{
			Title:   "I AM",
			Artist:  "IVE (아이브)",
			Image:   "https://cdnimg.melon.co.kr/cm2/album/images/112/03/131/11203131_20230410151046_500.jpg/melon/resize/512/quality/80/optimize",
			LastPos: 1,
			Rank:    2,
		},
		{
			Title:   "",
			Artist:  "BTS",
			Image:   "https://cdnimg.melon.co.kr/cm2/album/images/112/31/000/cover.jpg",
			LastPos: 0,
			Rank:    3,
			IsNew:   true,
		},
	}
	if len(snap.Entries) != len(want) {
		t.Fatalf("len(Entries) = %d, want %d", len(snap.Entries), len(want))
	}
	for i := range want {
		if snap.Entries[i] != want[i] {
			t.Errorf("Entries[%d] = %+v, want %+v", i, snap.Entries[i], want[i])
		}
	}
}

func TestParseChartLocation(t *testing.T) {
	snap, err := ParseChart(loadFixture(t), 256, time.UTC)
	if err != nil {
		t.Fatalf("ParseChart() error: %v", err)
	}
	want := time.Date(2023, time.May, 1, 13, 0, 0, 0, time.UTC)
	if !snap.Date.Equal(want) {
		t.Errorf("Date = %v, want %v", snap.Date, want)
	}
}

func TestParseChartEmptyList(t *testing.T) {
	body := `{"response":{"PAGE":"p","RANKDAY":"2023.05.01","RANKHOUR":"13:00","SONGLIST":[]}}`
	snap, err := ParseChart([]byte(body), 256, nil)
	if err != nil {
		t.Fatalf("ParseChart() error: %v", err)
	}
	if len(snap.Entries) != 0 {
		t.Errorf("len(Entries) = %d, want 0", len(snap.Entries))
	}
}

func TestParseChartErrors(t *testing.T) {
	const header = `"PAGE":"p","RANKDAY":"2023.05.01","RANKHOUR":"13:00"`
	song := func(fields string) string {
		return `{"response":{` + header + `,"SONGLIST":[{` + fields + `}]}}`
	}
	const okSong = `"SONGNAME":"s","ALBUMIMG":"u","ARTISTLIST":[{"ARTISTNAME":"a"}],"CURRANK":"1","PASTRANK":"2","RANKTYPE":"NEW"`

	tests := []struct {
		name   string
		body   string
		reason ParseReason
		field  string
	}{
		{"not json", `<html>`, ReasonMalformedBody, ""},
		{"empty body", ``, ReasonMalformedBody, ""},
		{"missing response", `{}`, ReasonMissingField, "response.PAGE"},
		{"page not string", `{"response":{"PAGE":7}}`, ReasonTypeMismatch, "response.PAGE"},
		{"missing hour", `{"response":{"PAGE":"p","RANKDAY":"2023.05.01"}}`, ReasonMissingField, "response.RANKHOUR"},
		{"bad date", `{"response":{"PAGE":"p","RANKDAY":"2023-05-01","RANKHOUR":"13:00"}}`, ReasonBadDate, "response.RANKDAY"},
		{"hour out of range", `{"response":{"PAGE":"p","RANKDAY":"2023.05.01","RANKHOUR":"25:00"}}`, ReasonBadDate, "response.RANKDAY"},
		{"missing songlist", `{"response":{` + header + `}}`, ReasonMissingField, "response.SONGLIST"},
		{"songlist object", `{"response":{` + header + `,"SONGLIST":{}}}`, ReasonTypeMismatch, "response.SONGLIST"},
		{"song not object", `{"response":{` + header + `,"SONGLIST":["x"]}}`, ReasonTypeMismatch, "response.SONGLIST.0"},
		{"missing title", song(strings.Replace(okSong, `"SONGNAME":"s",`, "", 1)), ReasonMissingField, "response.SONGLIST.0.SONGNAME"},
		{"empty artist list", song(strings.Replace(okSong, `[{"ARTISTNAME":"a"}]`, `[]`, 1)), ReasonMissingField, "response.SONGLIST.0.ARTISTLIST.0"},
		{"artist list string", song(strings.Replace(okSong, `[{"ARTISTNAME":"a"}]`, `"a"`, 1)), ReasonTypeMismatch, "response.SONGLIST.0.ARTISTLIST"},
		{"artist name number", song(strings.Replace(okSong, `"ARTISTNAME":"a"`, `"ARTISTNAME":1`, 1)), ReasonTypeMismatch, "response.SONGLIST.0.ARTISTLIST.0.ARTISTNAME"},
		{"missing image", song(strings.Replace(okSong, `"ALBUMIMG":"u",`, "", 1)), ReasonMissingField, "response.SONGLIST.0.ALBUMIMG"},
		{"rank not numeric", song(strings.Replace(okSong, `"CURRANK":"1"`, `"CURRANK":"-"`, 1)), ReasonBadInteger, "response.SONGLIST.0.CURRANK"},
		{"rank fractional", song(strings.Replace(okSong, `"CURRANK":"1"`, `"CURRANK":1.5`, 1)), ReasonBadInteger, "response.SONGLIST.0.CURRANK"},
		{"rank null", song(strings.Replace(okSong, `"CURRANK":"1"`, `"CURRANK":null`, 1)), ReasonTypeMismatch, "response.SONGLIST.0.CURRANK"},
		{"missing past rank", song(strings.Replace(okSong, `,"PASTRANK":"2"`, "", 1)), ReasonMissingField, "response.SONGLIST.0.PASTRANK"},
		{"missing rank type", song(strings.Replace(okSong, `,"RANKTYPE":"NEW"`, "", 1)), ReasonMissingField, "response.SONGLIST.0.RANKTYPE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap, err := ParseChart([]byte(tt.body), 256, nil)
			if err == nil {
				t.Fatalf("ParseChart() = %+v, want error", snap)
			}
			if !errors.Is(err, ErrParse) {
				t.Errorf("errors.Is(err, ErrParse) = false for %v", err)
			}
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("error %T is not *ParseError", err)
			}
			if pe.Reason != tt.reason {
				t.Errorf("Reason = %v, want %v", pe.Reason, tt.reason)
			}
			if pe.Field != tt.field {
				t.Errorf("Field = %q, want %q", pe.Field, tt.field)
			}
		})
	}
}

func TestParseChartRankType(t *testing.T) {
	tests := []struct {
		rankType string
		want     bool
	}{
		{`"NEW"`, true},
		{`"new"`, false},
		{`"UP"`, false},
		{`""`, false},
		{`null`, false},
	}

	for _, tt := range tests {
		body := `{"response":{"PAGE":"p","RANKDAY":"2023.05.01","RANKHOUR":"13:00","SONGLIST":[` +
			`{"SONGNAME":"s","ALBUMIMG":"u","ARTISTLIST":[{"ARTISTNAME":"a"}],"CURRANK":"3","PASTRANK":"5","RANKTYPE":` + tt.rankType + `}]}}`
		snap, err := ParseChart([]byte(body), 256, nil)
		if err != nil {
			t.Fatalf("RANKTYPE %s: ParseChart() error: %v", tt.rankType, err)
		}
		e := snap.Entries[0]
		if e.IsNew != tt.want {
			t.Errorf("RANKTYPE %s: IsNew = %v, want %v", tt.rankType, e.IsNew, tt.want)
		}
		if e.Rank != 3 || e.LastPos != 5 {
			t.Errorf("RANKTYPE %s: Rank, LastPos = %d, %d; want 3, 5", tt.rankType, e.Rank, e.LastPos)
		}
	}
}

func TestResizeImage(t *testing.T) {
	tests := []struct {
		name string
		url  string
		size int
		want string
	}{
		{"replace", "https://cdn/img/resize/100/cover.jpg", 512, "https://cdn/img/resize/512/cover.jpg"},
		{"no segment", "https://cdn/img/cover.jpg", 512, "https://cdn/img/cover.jpg"},
		{"no digits", "https://cdn/img/resize/x/cover.jpg", 512, "https://cdn/img/resize/x/cover.jpg"},
		{"trailing", "https://cdn/cover.jpg/melon/resize/120", 256, "https://cdn/cover.jpg/melon/resize/256"},
		{"empty", "", 256, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResizeImage(tt.url, tt.size); got != tt.want {
				t.Errorf("ResizeImage(%q, %d) = %q, want %q", tt.url, tt.size, got, tt.want)
			}
		})
	}
}

func TestParseErrorMessage(t *testing.T) {
	err := &ParseError{Reason: ReasonBadInteger, Field: "response.SONGLIST.0.CURRANK", Cause: errors.New("boom")}
	want := "chart parse failed: bad integer response.SONGLIST.0.CURRANK: boom"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}
