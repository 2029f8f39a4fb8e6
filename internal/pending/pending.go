// Package pending fetches the list of addresses awaiting review from the QRadar reference data API.
package pending

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/leighmacdonald/ipreview/internal/httphelper"
)

const (
	DefaultReferenceSet = "IPReview_Pending_IPs"
	maxResponseSize     = 10 << 20
)

var (
	ErrConfiguration  = errors.New("upstream host or token not configured")
	ErrUpstream       = errors.New("failed to retrieve pending list")
	ErrUpstreamDecode = errors.New("failed to decode pending list")
)

type Config struct {
	Host               string        `mapstructure:"host"`
	Token              string        `mapstructure:"token"`
	ReferenceSet       string        `mapstructure:"reference_set"`
	InsecureSkipVerify bool          `mapstructure:"insecure_skip_verify"`
	Timeout            time.Duration `mapstructure:"timeout"`
}

func (c Config) Configured() bool {
	return c.Host != "" && c.Token != ""
}

// Source reads the pending reference set.
type Source struct {
	conf   Config
	client *http.Client
}

func NewSource(conf Config) *Source {
	if conf.ReferenceSet == "" {
		conf.ReferenceSet = DefaultReferenceSet
	}

	return &Source{
		conf:   conf,
		client: httphelper.NewTLSClient(conf.Timeout, conf.InsecureSkipVerify),
	}
}

func (s *Source) Configured() bool {
	return s.conf.Configured()
}

type referenceSet struct {
	Name string `json:"name"`
	Data []struct {
		Value string `json:"value"`
	} `json:"data"`
}

// Fetch returns the values of the reference set in the order the server returned them.
func (s *Source) Fetch(ctx context.Context) ([]string, error) {
	if !s.Configured() {
		return nil, ErrConfiguration
	}

	endpoint := url.URL{
		Scheme: "https",
		Host:   s.conf.Host,
		Path:   "/api/reference_data/sets/" + s.conf.ReferenceSet,
	}

	req, errReq := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if errReq != nil {
		return nil, errors.Join(errReq, httphelper.ErrRequestCreate, ErrUpstream)
	}

	req.Header.Set("SEC", s.conf.Token)
	req.Header.Set("Accept", "application/json")

	resp, errResp := s.client.Do(req)
	if errResp != nil {
		return nil, errors.Join(errResp, httphelper.ErrRequestPerform, ErrUpstream)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, errors.Join(fmt.Errorf("%w: %d", httphelper.ErrRequestInvalidCode, resp.StatusCode), ErrUpstream)
	}

	var set referenceSet
	if errDecode := json.NewDecoder(io.LimitReader(resp.Body, maxResponseSize)).Decode(&set); errDecode != nil {
		return nil, errors.Join(errDecode, httphelper.ErrRequestDecode, ErrUpstreamDecode)
	}

	values := make([]string, 0, len(set.Data))
	for _, item := range set.Data {
		values = append(values, item.Value)
	}

	return values, nil
}
