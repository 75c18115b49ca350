package types

import "github.com/m-mizutani/goerr/v2"

// Route is the role-specific view a task is surfaced in
type Route string

const (
	RouteSales     Route = "sales"
	RouteDeveloper Route = "developer"
)

// IsValid checks if the route is valid
func (r Route) IsValid() bool {
	return r == RouteSales || r == RouteDeveloper
}

func (r Route) String() string {
	return string(r)
}

// ParseRoute parses a string into a Route
func ParseRoute(s string) (Route, error) {
	r := Route(s)
	if !r.IsValid() {
		return "", goerr.New("invalid route", goerr.V("route", s))
	}
	return r, nil
}
