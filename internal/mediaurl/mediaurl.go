// Package mediaurl decides how a media URL should be fetched
// and builds the URL of the actual request.
package mediaurl

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
)

const proxyPath = "/api/media/proxy"

var ErrMalformedSourceURL = errors.New("malformed media URL")

var (
	messageSIDRe = regexp.MustCompile(`Messages/([^/?#]+)`)
	mediaSIDRe   = regexp.MustCompile(`Media/([^/?#]+)`)
)

type Classifier struct {
	backendURL *url.URL
	rules      Rules
}

func NewClassifier(backendURL *url.URL, rules Rules) *Classifier {
	if backendURL == nil {
		backendURL = &url.URL{}
	}

	if rules == nil {
		rules = DefaultRules()
	}

	return &Classifier{
		backendURL: backendURL,
		rules:      rules,
	}
}

func (classifier *Classifier) Classify(raw string) Route {
	if rule := classifier.rules.Get(raw); rule != nil {
		return rule.Route()
	}

	return RoutePassThrough
}

// RequestURL returns the URL to actually fetch for the given media URL.
func (classifier *Classifier) RequestURL(raw string) (string, error) {
	switch classifier.Classify(raw) {
	case RouteProvider:
		messageSID, mediaSID, err := ExtractSIDs(raw)
		if err != nil {
			return "", err
		}

		return classifier.ProxyURL(messageSID, mediaSID), nil
	case RoutePublic, RouteProtected:
		return classifier.resolve(raw)
	default:
		return raw, nil
	}
}

// ProxyURL points to the backend endpoint that streams provider media on our behalf.
func (classifier *Classifier) ProxyURL(messageSID string, mediaSID string) string {
	proxyURL := classifier.backendURL.JoinPath(proxyPath)

	query := url.Values{}
	query.Set("messageSid", messageSID)
	query.Set("mediaSid", mediaSID)
	proxyURL.RawQuery = query.Encode()

	return proxyURL.String()
}

func (classifier *Classifier) resolve(raw string) (string, error) {
	ref, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedSourceURL, err)
	}

	return classifier.backendURL.ResolveReference(ref).String(), nil
}

// ExtractSIDs pulls the message and media identifiers out of a provider media URL,
// e.g. https://api.twilio.com/2010-04-01/Accounts/AC1/Messages/MM1/Media/ME1.
func ExtractSIDs(raw string) (string, string, error) {
	messageMatch := messageSIDRe.FindStringSubmatch(raw)
	if messageMatch == nil {
		return "", "", fmt.Errorf("%w: no message SID found in %q", ErrMalformedSourceURL, raw)
	}

	mediaMatch := mediaSIDRe.FindStringSubmatch(raw)
	if mediaMatch == nil {
		return "", "", fmt.Errorf("%w: no media SID found in %q", ErrMalformedSourceURL, raw)
	}

	return messageMatch[1], mediaMatch[1], nil
}
