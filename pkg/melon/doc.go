// Package melon is a client for the Melon real-time song chart.
//
// # Overview
//
// The chart endpoint returns one JSON document describing the current chart
// period and its ranked tracks. This package requests it, maps the payload
// into [Entry] values and exposes them through a [Chart].
//
// # Usage
//
//	chart, err := melon.NewChart(ctx, nil, 512, true) // default client, 512px covers
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Println(chart.Name, chart.Date.Format(time.DateTime))
//	for _, e := range chart.All() {
//	    fmt.Printf("%3d %s\n", e.Rank, e)
//	}
//
// Construct with fetch=false to defer the request and call
// [Chart.FetchEntries] later; every call refreshes the snapshot.
//
// # Configuration
//
// [Config] carries the endpoint and the identity the Melon Android app
// presents (content-provider ID and key, app version, device). Pass a
// modified Config to [NewClient] to target a mock server:
//
//	client, err := melon.NewClient(melon.Config{Endpoint: srv.URL}, nil, 0)
//
// # Errors
//
// Fetching fails with one of two error kinds:
//
//   - [*RequestError]: transport failure or non-200 status (StatusCode holds it)
//   - [*ParseError]: the payload could not be mapped; Reason and Field say why
//
// Both match their sentinels, [ErrRequest] and [ErrParse], via errors.Is.
// A failed fetch never modifies the chart.
//
// # Caching and Retry
//
// Both are off by default. Give [NewClient] a [cache.Cache] backend and a TTL
// to reuse responses, and set Config.RetryAttempts above 1 to retry transport
// failures and 5xx responses with exponential backoff.
//
// [cache.Cache]: github.com/matzehuels/melonchart/pkg/cache.Cache
package melon
