package mediaurl

import (
	"fmt"
	"regexp"
	"strings"
)

type Route int

const (
	RoutePassThrough Route = iota
	RoutePublic
	RouteProvider
	RouteProtected
)

func ParseRoute(s string) (Route, error) {
	switch strings.ToLower(s) {
	case "public":
		return RoutePublic, nil
	case "provider":
		return RouteProvider, nil
	case "protected":
		return RouteProtected, nil
	case "pass-through":
		return RoutePassThrough, nil
	default:
		return RoutePassThrough, fmt.Errorf("unknown route %q", s)
	}
}

func (route Route) String() string {
	switch route {
	case RoutePublic:
		return "public"
	case RouteProvider:
		return "provider"
	case RouteProtected:
		return "protected"
	default:
		return "pass-through"
	}
}

// AuthRequired reports whether fetching through the route needs a credential.
func (route Route) AuthRequired() bool {
	return route == RouteProvider || route == RouteProtected
}

type Rules []*Rule

type Rule struct {
	re    *regexp.Regexp
	route Route
}

func NewRule(pattern string, route Route) (*Rule, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to parse regular expression for URL pattern %s: %w",
			pattern, err)
	}

	return &Rule{
		re:    re,
		route: route,
	}, nil
}

func (rule *Rule) Route() Route {
	return rule.route
}

// Get returns the first rule that matches the URL, or nil.
func (rules Rules) Get(url string) *Rule {
	for _, rule := range rules {
		if rule.re.MatchString(url) {
			return rule
		}
	}

	return nil
}

// DefaultRules returns rules that recognize the public media endpoint,
// Twilio media URLs and the backend's protected media proxy.
func DefaultRules() Rules {
	return Rules{
		{re: regexp.MustCompile(`/api/media/public/`), route: RoutePublic},
		{re: regexp.MustCompile(`^https?://api\.twilio\.com/`), route: RouteProvider},
		{re: regexp.MustCompile(`/api/media/proxy`), route: RouteProtected},
	}
}
