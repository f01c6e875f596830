package melon

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// DateLayout is the layout of RANKDAY + " " + RANKHOUR.
const DateLayout = "2006.01.02 15:04"

var resizeRE = regexp.MustCompile(`resize/\d+`)

// Snapshot is the result of parsing one chart payload.
type Snapshot struct {
	Name    string
	Date    time.Time
	Entries []Entry
}

// ParseChart maps an upstream chart payload into a Snapshot.
//
// Cover URLs are rewritten to request size×size images and the chart date
// is interpreted in loc (UTC+9 when nil). Entries keep SONGLIST order.
// Every failure is a *ParseError naming the offending JSON path.
func ParseChart(body []byte, imageSize int, loc *time.Location) (*Snapshot, error) {
	if !gjson.ValidBytes(body) {
		return nil, &ParseError{Reason: ReasonMalformedBody}
	}
	if loc == nil {
		loc = time.FixedZone("KST", DefaultUTCOffsetHours*60*60)
	}
	root := gjson.ParseBytes(body)

	name, err := stringAt(root, "response.PAGE")
	if err != nil {
		return nil, err
	}
	date, err := parseDate(root, loc)
	if err != nil {
		return nil, err
	}

	list := root.Get("response.SONGLIST")
	if !list.Exists() {
		return nil, missing("response.SONGLIST")
	}
	if !list.IsArray() {
		return nil, mismatch("response.SONGLIST", "array", list)
	}

	items := list.Array()
	entries := make([]Entry, 0, len(items))
	for i, item := range items {
		e, err := parseEntry(item, fmt.Sprintf("response.SONGLIST.%d", i), imageSize)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}

	return &Snapshot{Name: name, Date: date, Entries: entries}, nil
}

func parseDate(root gjson.Result, loc *time.Location) (time.Time, error) {
	day, err := stringAt(root, "response.RANKDAY")
	if err != nil {
		return time.Time{}, err
	}
	hour, err := stringAt(root, "response.RANKHOUR")
	if err != nil {
		return time.Time{}, err
	}
	date, err := time.ParseInLocation(DateLayout, day+" "+hour, loc)
	if err != nil {
		return time.Time{}, &ParseError{Reason: ReasonBadDate, Field: "response.RANKDAY", Cause: err}
	}
	return date, nil
}

func parseEntry(item gjson.Result, path string, imageSize int) (Entry, error) {
	if !item.IsObject() {
		return Entry{}, mismatch(path, "object", item)
	}

	title, err := stringAt(item, "SONGNAME", path)
	if err != nil {
		return Entry{}, err
	}
	artist, err := firstArtist(item, path)
	if err != nil {
		return Entry{}, err
	}
	image, err := stringAt(item, "ALBUMIMG", path)
	if err != nil {
		return Entry{}, err
	}
	rank, err := intAt(item, "CURRANK", path)
	if err != nil {
		return Entry{}, err
	}
	lastPos, err := intAt(item, "PASTRANK", path)
	if err != nil {
		return Entry{}, err
	}
	rankType := item.Get("RANKTYPE")
	if !rankType.Exists() {
		return Entry{}, missing(path + ".RANKTYPE")
	}

	return Entry{
		Title:   title,
		Artist:  artist,
		Image:   ResizeImage(image, imageSize),
		LastPos: lastPos,
		Rank:    rank,
		IsNew:   rankType.Type == gjson.String && rankType.Str == "NEW",
	}, nil
}

func firstArtist(item gjson.Result, path string) (string, error) {
	list := item.Get("ARTISTLIST")
	if !list.Exists() {
		return "", missing(path + ".ARTISTLIST")
	}
	if !list.IsArray() {
		return "", mismatch(path+".ARTISTLIST", "array", list)
	}
	first := list.Get("0")
	if !first.Exists() {
		return "", missing(path + ".ARTISTLIST.0")
	}
	return stringAt(first, "ARTISTNAME", path+".ARTISTLIST.0")
}

// ResizeImage rewrites every "resize/<digits>" segment of url to
// "resize/<size>". URLs without such a segment are returned unchanged.
func ResizeImage(url string, size int) string {
	return resizeRE.ReplaceAllLiteralString(url, "resize/"+strconv.Itoa(size))
}

// stringAt reads key below r. The optional base prefixes key in error paths.
func stringAt(r gjson.Result, key string, base ...string) (string, error) {
	path := joinPath(base, key)
	v := r.Get(key)
	if !v.Exists() {
		return "", missing(path)
	}
	if v.Type != gjson.String {
		return "", mismatch(path, "string", v)
	}
	return v.Str, nil
}

var errNotInteger = errors.New("not an integer")

// intAt accepts either a JSON number with no fractional part or a string
// holding a base-10 integer, matching how the upstream mixes the two.
func intAt(r gjson.Result, key, base string) (int, error) {
	path := joinPath([]string{base}, key)
	v := r.Get(key)
	switch {
	case !v.Exists():
		return 0, missing(path)
	case v.Type == gjson.String:
		n, err := strconv.Atoi(strings.TrimSpace(v.Str))
		if err != nil {
			return 0, &ParseError{Reason: ReasonBadInteger, Field: path, Cause: err}
		}
		return n, nil
	case v.Type == gjson.Number:
		if v.Num != math.Trunc(v.Num) || math.Abs(v.Num) > math.MaxInt32 {
			return 0, &ParseError{Reason: ReasonBadInteger, Field: path, Cause: fmt.Errorf("%w: %s", errNotInteger, v.Raw)}
		}
		return int(v.Num), nil
	default:
		return 0, mismatch(path, "integer", v)
	}
}

func joinPath(base []string, key string) string {
	if len(base) == 0 || base[0] == "" {
		return key
	}
	return base[0] + "." + key
}

func missing(path string) *ParseError {
	return &ParseError{Reason: ReasonMissingField, Field: path}
}

func mismatch(path, want string, got gjson.Result) *ParseError {
	return &ParseError{
		Reason: ReasonTypeMismatch,
		Field:  path,
		Cause:  fmt.Errorf("want %s, got %s", want, jsonKind(got)),
	}
}

func jsonKind(r gjson.Result) string {
	switch {
	case r.IsArray():
		return "array"
	case r.IsObject():
		return "object"
	case r.Type == gjson.True, r.Type == gjson.False:
		return "bool"
	default:
		return strings.ToLower(r.Type.String())
	}
}
