// Package tests provides shared helpers for exercising the HTTP handlers.
package tests

import (
	"context"
	"errors"
	"fmt"
	"net/netip"
	"path/filepath"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/leighmacdonald/ipreview/internal/httphelper"
	"github.com/leighmacdonald/ipreview/internal/log"
	"github.com/leighmacdonald/ipreview/internal/network"
)

var ErrStaticLookup = errors.New("static lookup failure")

func CreateRouter(t *testing.T) *gin.Engine {
	t.Helper()

	router, err := httphelper.CreateRouter(httphelper.RouterOpts{LogLevel: log.Error, Mode: gin.TestMode})
	if err != nil {
		t.Fatalf("Failed to create router: %v", err)
	}

	return router
}

// BlocklistPath returns a not yet existing blocklist file path in a per test temp directory.
func BlocklistPath(t *testing.T) string {
	t.Helper()

	return filepath.Join(t.TempDir(), "store", "blocklist.txt")
}

// StaticLookup resolves addresses from a fixed table of networks. Addresses not covered by any
// network fail with network.ErrNoSubnetData, addresses listed in Failures fail with ErrStaticLookup.
type StaticLookup struct {
	Networks []StaticNetwork
	Failures map[string]bool

	mu      sync.Mutex
	queries []string
}

type StaticNetwork struct {
	Prefix string
	Owner  string
}

func (s *StaticLookup) Lookup(_ context.Context, addr netip.Addr) (network.Record, error) {
	s.mu.Lock()
	s.queries = append(s.queries, addr.String())
	s.mu.Unlock()

	if s.Failures[addr.String()] {
		return network.Record{}, ErrStaticLookup
	}

	for _, entry := range s.Networks {
		prefix := netip.MustParsePrefix(entry.Prefix)
		if prefix.Contains(addr) {
			return network.Record{Subnet: prefix.Masked(), Owner: entry.Owner}, nil
		}
	}

	return network.Record{}, fmt.Errorf("%w: %s", network.ErrNoSubnetData, addr)
}

// Queries returns every address looked up so far, in call order.
func (s *StaticLookup) Queries() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]string(nil), s.queries...)
}
