// Package clientip resolves the address of the client behind an HTTP request.
//
// A Resolver reads forwarding headers only when the request arrived from a
// trusted proxy. Without trusted proxies configured every peer is trusted,
// which suits deployments where the service is reachable only through a
// load balancer. X-Forwarded-For is walked right to left and the first
// address that is not itself a trusted proxy wins.
//
//	res, err := clientip.NewResolver(clientip.WithTrustedProxies("10.0.0.0/8"))
//	r.Use(clientip.Middleware(res))
//
//	ip := clientip.GetIPFromContext(r.Context())
//
// GetIP uses a resolver with default settings.
package clientip
