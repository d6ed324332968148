package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordAPIRequest(t *testing.T) {
	before := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/tags/", "200"))
	RecordAPIRequest("GET", "/tags/", 200, 15*time.Millisecond)
	after := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/tags/", "200"))
	assert.Equal(t, before+1, after)
}

func TestTrackActiveRequest(t *testing.T) {
	before := testutil.ToFloat64(APIActiveRequests)
	TrackActiveRequest(true)
	assert.Equal(t, before+1, testutil.ToFloat64(APIActiveRequests))
	TrackActiveRequest(false)
	assert.Equal(t, before, testutil.ToFloat64(APIActiveRequests))
}

func TestRecordRecipeFilterError(t *testing.T) {
	before := testutil.ToFloat64(RecipeFilterErrors)
	RecordRecipeFilter(true, false, time.Millisecond, errors.New("boom"))
	assert.Equal(t, before+1, testutil.ToFloat64(RecipeFilterErrors))
}

func TestRecordLoaderRows(t *testing.T) {
	before := testutil.ToFloat64(LoaderRowsTotal.WithLabelValues("loaded"))
	RecordLoaderRows("loaded", 5)
	assert.Equal(t, before+5, testutil.ToFloat64(LoaderRowsTotal.WithLabelValues("loaded")))
}
