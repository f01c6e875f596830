package melon

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/matzehuels/melonchart/pkg/errors"
	"github.com/matzehuels/melonchart/pkg/httputil"
)

// Upstream identity the Melon Android app presents to the chart endpoint.
const (
	DefaultEndpoint    = "https://m2.melon.com/m6/chart/ent/songChartList.json"
	DefaultCPID        = "AS40"
	DefaultCPKey       = "14LNC3"
	DefaultAppVersion  = "6.5.8.1"
	DefaultPlatform    = "Android 13"
	DefaultDeviceModel = "sdk_gphone64_arm64"
)

const (
	// DefaultImageSize is the cover-image edge length requested when the
	// caller does not choose one.
	DefaultImageSize = 256

	// DefaultTimeout bounds a single HTTP round trip.
	DefaultTimeout = 10 * time.Second

	// DefaultUTCOffsetHours is the offset of the zone the chart is published
	// in (KST). RANKDAY/RANKHOUR carry no zone of their own.
	DefaultUTCOffsetHours = 9
)

// Config describes how to reach the chart endpoint.
//
// Zero fields are filled from the defaults by [NewClient], so a partially
// populated Config (e.g. only Endpoint set for a test server) is valid.
type Config struct {
	Endpoint    string // chart URL without query string
	CPID        string // content-provider ID, sent as cpId and in the User-Agent
	CPKey       string // content-provider key, sent as cpKey
	AppVersion  string // app version, sent as appVer and in the User-Agent
	Platform    string // OS description in the User-Agent
	DeviceModel string // device model in the User-Agent

	ImageSize int           // default cover size for charts built on this client
	Timeout   time.Duration // per-request timeout; 0 means DefaultTimeout, < 0 disables

	// Retry policy for transport failures and 5xx responses. The zero
	// value performs exactly one request.
	RetryAttempts int
	RetryDelay    time.Duration

	// Location interprets RANKDAY/RANKHOUR. Nil means UTC+9.
	Location *time.Location

	// HTTPClient overrides the client built from Timeout.
	HTTPClient *http.Client
}

// DefaultConfig returns the configuration matching the Melon Android app.
func DefaultConfig() Config {
	return Config{
		Endpoint:    DefaultEndpoint,
		CPID:        DefaultCPID,
		CPKey:       DefaultCPKey,
		AppVersion:  DefaultAppVersion,
		Platform:    DefaultPlatform,
		DeviceModel: DefaultDeviceModel,
		ImageSize:   DefaultImageSize,
		Timeout:     DefaultTimeout,
	}
}

// WithDefaults returns a copy of c with every zero field replaced by its default.
func (c Config) WithDefaults() Config {
	d := DefaultConfig()
	if c.Endpoint == "" {
		c.Endpoint = d.Endpoint
	}
	if c.CPID == "" {
		c.CPID = d.CPID
	}
	if c.CPKey == "" {
		c.CPKey = d.CPKey
	}
	if c.AppVersion == "" {
		c.AppVersion = d.AppVersion
	}
	if c.Platform == "" {
		c.Platform = d.Platform
	}
	if c.DeviceModel == "" {
		c.DeviceModel = d.DeviceModel
	}
	if c.ImageSize == 0 {
		c.ImageSize = d.ImageSize
	}
	if c.Timeout == 0 {
		c.Timeout = d.Timeout
	}
	if c.Location == nil {
		c.Location = time.FixedZone("KST", DefaultUTCOffsetHours*60*60)
	}
	return c
}

// Validate reports the first invalid field as an INVALID_CONFIG or
// INVALID_URL error. Call it on a config that already has defaults applied.
func (c Config) Validate() error {
	if err := errors.ValidateURL(c.Endpoint); err != nil {
		return err
	}
	fields := []struct{ name, value string }{
		{"cp_id", c.CPID},
		{"cp_key", c.CPKey},
		{"app_version", c.AppVersion},
		{"platform", c.Platform},
		{"device_model", c.DeviceModel},
	}
	for _, f := range fields {
		if err := errors.ValidateToken(f.name, f.value); err != nil {
			return err
		}
	}
	if err := errors.ValidateImageSize(c.ImageSize); err != nil {
		return err
	}
	if c.RetryAttempts < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "retry attempts cannot be negative, got %d", c.RetryAttempts)
	}
	if c.RetryDelay < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "retry delay cannot be negative, got %s", c.RetryDelay)
	}
	return nil
}

// UserAgent returns "<cpId>; <platform>; <appVer>; <deviceModel>".
func (c Config) UserAgent() string {
	return strings.Join([]string{c.CPID, c.Platform, c.AppVersion, c.DeviceModel}, "; ")
}

// RequestURL returns the endpoint with the cpId, cpKey and appVer query
// parameters set. Existing query parameters on Endpoint are kept.
func (c Config) RequestURL() (string, error) {
	u, err := url.Parse(c.Endpoint)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidURL, err, "malformed endpoint %q", c.Endpoint)
	}
	q := u.Query()
	q.Set("cpId", c.CPID)
	q.Set("cpKey", c.CPKey)
	q.Set("appVer", c.AppVersion)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (c Config) retryPolicy() httputil.Policy {
	if c.RetryAttempts <= 1 {
		return httputil.NoRetry
	}
	return httputil.Policy{Attempts: c.RetryAttempts, Delay: c.RetryDelay}
}

func (c Config) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	if c.Timeout < 0 {
		return &http.Client{}
	}
	return &http.Client{Timeout: c.Timeout}
}
