/*
Package observability turns view connector hooks into structured logs and
Prometheus metrics.

Hooks are plain callbacks (see domain.Hooks); this package only builds them.
Use Chain to combine several sets, for example logging plus metrics:

	metrics := observability.NewMetrics()
	hooks := observability.Chain(observability.LogHooks(logger), metrics.Hooks())
*/
package observability
