package resolver

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/star/elevplot/internal/coord"
)

// DefaultSesameURL is the CDS name resolver.
const DefaultSesameURL = "https://cds.unistra.fr/cgi-bin/nph-sesame"

// Sesame resolves free-text designations through the CDS Sesame service,
// which queries Simbad, NED and VizieR in turn.
type Sesame struct {
	baseURL    string
	httpClient *http.Client
}

// NewSesame creates a Sesame client. An empty baseURL uses DefaultSesameURL.
func NewSesame(baseURL string, timeout time.Duration) *Sesame {
	if baseURL == "" {
		baseURL = DefaultSesameURL
	}
	return &Sesame{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: newHTTPClient(timeout),
	}
}

// Lookup asks Sesame for the ICRS position of name.
func (s *Sesame) Lookup(ctx context.Context, name string) (coord.Coordinate, error) {
	body, err := get(ctx, s.httpClient, s.baseURL+"/-oI/SNV?"+escapeName(name))
	if err != nil {
		return coord.Coordinate{}, err
	}
	return parseSesame(body)
}

// escapeName percent-encodes name for Sesame, which reads the raw query
// string as the designation and does not accept "+" for spaces.
func escapeName(name string) string {
	return strings.ReplaceAll(url.QueryEscape(name), "+", "%20")
}

// parseSesame reads the first "%J ra dec" line; both values are degrees.
func parseSesame(body []byte) (coord.Coordinate, error) {
	sc := bufio.NewScanner(bytes.NewReader(body))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if !strings.HasPrefix(line, "%J ") {
			continue
		}
		fields := strings.Fields(line[len("%J "):])
		if len(fields) < 2 {
			return coord.Coordinate{}, fmt.Errorf("short %%J line %q: %w", line, errNotFound)
		}
		raDeg, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return coord.Coordinate{}, fmt.Errorf("parse RA %q: %w", fields[0], errNotFound)
		}
		decDeg, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return coord.Coordinate{}, fmt.Errorf("parse Dec %q: %w", fields[1], errNotFound)
		}
		c := coord.Coordinate{RAHours: raDeg / 15, DecDeg: decDeg}
		if c.RAHours >= 24 {
			c.RAHours -= 24
		}
		if err := c.Validate(); err != nil {
			return coord.Coordinate{}, fmt.Errorf("%v: %w", err, errNotFound)
		}
		return c, nil
	}
	if err := sc.Err(); err != nil {
		return coord.Coordinate{}, fmt.Errorf("scan response: %w", err)
	}
	return coord.Coordinate{}, errNotFound
}
