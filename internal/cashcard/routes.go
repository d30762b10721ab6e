package cashcard

import "net/http"

// Route binds a method and path pattern, relative to the mount point, to a
// handler method.
type Route struct {
	Method  string
	Pattern string
	Name    string
	handle  func(*Handler, http.ResponseWriter, *http.Request)
}

var routes = []Route{
	{Method: http.MethodGet, Pattern: "/", Name: "list", handle: (*Handler).list},
	{Method: http.MethodPost, Pattern: "/", Name: "create", handle: (*Handler).create},
	{Method: http.MethodGet, Pattern: "/{id}", Name: "get", handle: (*Handler).get},
	{Method: http.MethodPut, Pattern: "/{id}", Name: "update", handle: (*Handler).update},
	{Method: http.MethodDelete, Pattern: "/{id}", Name: "delete", handle: (*Handler).delete},
}

// Routes returns the dispatch table.
func Routes() []Route {
	out := make([]Route, len(routes))
	copy(out, routes)
	return out
}

// Lookup returns the route registered for method and pattern.
func Lookup(method, pattern string) (Route, bool) {
	for _, rt := range routes {
		if rt.Method == method && rt.Pattern == pattern {
			return rt, true
		}
	}
	return Route{}, false
}
