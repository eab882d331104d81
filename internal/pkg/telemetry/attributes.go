package telemetry

// Span attribute keys shared by the upstream client and use cases.
const (
	AttrOperation   = "meteorguard.operation"
	AttrRegime      = "meteorguard.regime"
	AttrCacheHit    = "meteorguard.cache_hit"
	AttrHTTPStatus  = "http.status_code"
	AttrUpstreamURL = "meteorguard.upstream_url"
)
