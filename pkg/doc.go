// Package pkg holds the public libraries behind the melonchart command.
//
//   - [melon] fetches and parses the real-time chart (Entry, Chart, Client)
//   - [cache] stores raw responses (file, redis, or nothing)
//   - [httputil] retry policies for upstream requests
//   - [observability] hook registry for fetch, cache and HTTP events
//   - [errors] machine-readable error codes and input validation
//   - [buildinfo] version metadata set at link time
//
// A chart is fetched in three steps:
//
//	client, _ := melon.NewClient(melon.DefaultConfig(), cache.NewNullCache(), 0)
//	chart, _ := melon.NewChart(ctx, client, 500, true)
//	for i, e := range chart.All() {
//	    fmt.Println(i, e)
//	}
package pkg
