package triage_test

import (
	"testing"

	"github.com/leighmacdonald/ipreview/internal/blocklist"
	"github.com/leighmacdonald/ipreview/internal/metrics"
	"github.com/leighmacdonald/ipreview/internal/tests"
	"github.com/leighmacdonald/ipreview/internal/triage"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func newLookup() *tests.StaticLookup {
	return &tests.StaticLookup{
		Networks: []tests.StaticNetwork{
			{Prefix: "8.8.8.0/24", Owner: "GOOGLE"},
			{Prefix: "8.8.4.0/24", Owner: "GOOGLE"},
			{Prefix: "1.1.1.0/24", Owner: "CLOUDFLARENET"},
			{Prefix: "45.33.0.0/17", Owner: "Example Org"},
			{Prefix: "45.79.0.0/16", Owner: "Example Org"},
			{Prefix: "2600:3c00::/32", Owner: "Example Org"},
			{Prefix: "2001:4860::/32", Owner: "GOOGLE"},
		},
		Failures: map[string]bool{"9.9.9.9": true},
	}
}

func newProcessor(t *testing.T, lookup *tests.StaticLookup) (*triage.Processor, *blocklist.Store) {
	t.Helper()

	store := blocklist.NewStore(tests.BlocklistPath(t))

	return triage.NewProcessor(lookup, store, metrics.New(prometheus.NewRegistry()), 4), store
}

func TestProcessEmpty(t *testing.T) {
	t.Parallel()

	processor, _ := newProcessor(t, newLookup())

	require.Equal(t, triage.Result{Status: triage.StatusComplete}, processor.Process(t.Context(), nil))
	require.Equal(t, triage.Result{Status: triage.StatusComplete}, processor.Process(t.Context(), []string{}))
}

func TestProcessSubnet(t *testing.T) {
	t.Parallel()

	processor, _ := newProcessor(t, newLookup())

	result := processor.Process(t.Context(), []string{"8.8.8.8", "8.8.4.4", "1.1.1.1"})
	require.Equal(t, triage.StatusInProgress, result.Status)
	require.Equal(t, &triage.ReviewItem{Type: "subnet", Value: "8.8.8.0/24", Owner: "GOOGLE", IPCount: 1}, result.ReviewItem)
	require.Equal(t, []string{"8.8.4.4", "1.1.1.1"}, result.RemainingIPs)
}

func TestProcessClaimsSameSubnet(t *testing.T) {
	t.Parallel()

	processor, _ := newProcessor(t, newLookup())
	pending := []string{"45.33.1.1", "8.8.8.8", "45.33.100.7", "45.79.1.1", "45.33.0.9"}

	result := processor.Process(t.Context(), pending)
	require.Equal(t, triage.StatusInProgress, result.Status)
	require.Equal(t, "45.33.0.0/17", result.ReviewItem.Value)
	require.Equal(t, "Example Org", result.ReviewItem.Owner)
	require.Equal(t, 3, result.ReviewItem.IPCount)
	require.Equal(t, []string{"8.8.8.8", "45.79.1.1"}, result.RemainingIPs)
	require.Len(t, pending, result.ReviewItem.IPCount+len(result.RemainingIPs))
}

func TestProcessConservation(t *testing.T) {
	t.Parallel()

	processor, _ := newProcessor(t, newLookup())
	pending := []string{"8.8.8.8", "2001:4860:4860::8888", "8.8.8.4", "1.1.1.1", "2600:3c00::1", "8.8.4.4", "1.1.1.2"}

	total := 0
	for len(pending) > 0 {
		result := processor.Process(t.Context(), pending)
		require.Equal(t, triage.StatusInProgress, result.Status)
		require.Len(t, pending, result.ReviewItem.IPCount+len(result.RemainingIPs))

		total += result.ReviewItem.IPCount
		pending = result.RemainingIPs
	}

	require.Equal(t, 7, total)
	require.Equal(t, triage.StatusComplete, processor.Process(t.Context(), pending).Status)
}

func TestProcessPrivate(t *testing.T) {
	t.Parallel()

	lookup := newLookup()
	processor, _ := newProcessor(t, lookup)

	result := processor.Process(t.Context(), []string{"10.0.0.5"})
	require.Equal(t, triage.StatusError, result.Status)
	require.Contains(t, result.Message, "10.0.0.5")
	require.NotNil(t, result.RemainingIPs)
	require.Empty(t, result.RemainingIPs)

	withRest := processor.Process(t.Context(), []string{"192.168.1.1", "8.8.8.8", "10.0.0.1"})
	require.Equal(t, triage.StatusError, withRest.Status)
	require.Equal(t, []string{"8.8.8.8", "10.0.0.1"}, withRest.RemainingIPs)

	// Private addresses are never looked up.
	require.Empty(t, lookup.Queries())
}

func TestProcessCanonicalRemaining(t *testing.T) {
	t.Parallel()

	processor, _ := newProcessor(t, newLookup())

	result := processor.Process(t.Context(), []string{"10.0.0.5", "2001:4860:4860:0:0:0:0:8888"})
	require.Equal(t, []string{"2001:4860:4860::8888"}, result.RemainingIPs)
}

func TestProcessInvalid(t *testing.T) {
	t.Parallel()

	processor, _ := newProcessor(t, newLookup())

	result := processor.Process(t.Context(), []string{"8.8.8.8", "not-an-ip"})
	require.Equal(t, triage.StatusError, result.Status)
	require.Equal(t, "Invalid IP address in list: not-an-ip", result.Message)
	require.Nil(t, result.RemainingIPs)
	require.Nil(t, result.ReviewItem)
}

func TestProcessLookupFailure(t *testing.T) {
	t.Parallel()

	processor, _ := newProcessor(t, newLookup())

	failed := processor.Process(t.Context(), []string{"9.9.9.9", "8.8.8.8"})
	require.Equal(t, triage.StatusError, failed.Status)
	require.Equal(t, "Failed to process 9.9.9.9", failed.Message)
	require.Equal(t, []string{"8.8.8.8"}, failed.RemainingIPs)

	noData := processor.Process(t.Context(), []string{"77.77.77.77"})
	require.Equal(t, triage.StatusError, noData.Status)
	require.Equal(t, "Failed to process 77.77.77.77", noData.Message)
	require.Empty(t, noData.RemainingIPs)
}
