package resolver

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/star/elevplot/internal/coord"
)

// DefaultVSXURL is the AAVSO Variable Star Index endpoint.
const DefaultVSXURL = "https://www.aavso.org/vsx/index.php"

const vsxDelimiter = ";"

// VSX looks names up in the AAVSO Variable Star Index using its delimited
// text API.
type VSX struct {
	baseURL    string
	httpClient *http.Client
}

// NewVSX creates a VSX client. An empty baseURL uses DefaultVSXURL.
func NewVSX(baseURL string, timeout time.Duration) *VSX {
	if baseURL == "" {
		baseURL = DefaultVSXURL
	}
	return &VSX{baseURL: baseURL, httpClient: newHTTPClient(timeout)}
}

func (v *VSX) queryURL(name string) string {
	q := url.Values{}
	q.Set("view", "api.delim")
	q.Set("ident", name)
	q.Set("delimiter", vsxDelimiter)
	sep := "?"
	if strings.Contains(v.baseURL, "?") {
		sep = "&"
	}
	return v.baseURL + sep + q.Encode()
}

// Lookup asks VSX for the position of name. A non-200 status or a body
// without an RA field is reported as not found.
func (v *VSX) Lookup(ctx context.Context, name string) (coord.Coordinate, error) {
	body, err := get(ctx, v.httpClient, v.queryURL(name))
	if err != nil {
		var se *statusError
		if errors.As(err, &se) {
			return coord.Coordinate{}, fmt.Errorf("%v: %w", err, errNotFound)
		}
		return coord.Coordinate{}, err
	}
	return parseVSX(body)
}

// parseVSX extracts "RA;<hours>" and "DEC;<degrees>" lines.
func parseVSX(body []byte) (coord.Coordinate, error) {
	if !bytes.Contains(body, []byte("RA"+vsxDelimiter)) {
		return coord.Coordinate{}, errNotFound
	}

	var ra, dec *float64
	sc := bufio.NewScanner(bytes.NewReader(body))
	for sc.Scan() {
		field, value, ok := strings.Cut(strings.TrimSpace(sc.Text()), vsxDelimiter)
		if !ok {
			continue
		}
		switch field {
		case "RA", "DEC":
			f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
			if err != nil {
				return coord.Coordinate{}, fmt.Errorf("parse %s %q: %w", field, value, errNotFound)
			}
			if field == "RA" {
				ra = &f
			} else {
				dec = &f
			}
		}
	}
	if err := sc.Err(); err != nil {
		return coord.Coordinate{}, fmt.Errorf("scan response: %w", err)
	}
	if ra == nil || dec == nil {
		return coord.Coordinate{}, errNotFound
	}

	c := coord.Coordinate{RAHours: *ra, DecDeg: *dec}
	if err := c.Validate(); err != nil {
		return coord.Coordinate{}, fmt.Errorf("%v: %w", err, errNotFound)
	}
	return c, nil
}
