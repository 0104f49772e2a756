package seoulbike

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWindowsPartition(t *testing.T) {
	windows := Windows(2725, 999)

	require.Len(t, windows, 3)
	assert.Equal(t, []Window{{1, 999}, {1000, 1998}, {1999, 2725}}, windows)
}

func TestWindowsCoverRangeExactly(t *testing.T) {
	cases := []struct {
		bound, pageSize int
	}{
		{1, 1},
		{10, 3},
		{999, 999},
		{1000, 999},
		{2725, 999},
		{5000, 500},
	}

	for _, tc := range cases {
		t.Run(fmt.Sprintf("bound=%d_page=%d", tc.bound, tc.pageSize), func(t *testing.T) {
			windows := Windows(tc.bound, tc.pageSize)

			wantCount := (tc.bound + tc.pageSize - 1) / tc.pageSize
			require.Len(t, windows, wantCount)

			// Contiguous, non-overlapping, covering [1, bound].
			next := 1
			for _, w := range windows {
				assert.Equal(t, next, w.Start)
				assert.LessOrEqual(t, w.End-w.Start+1, tc.pageSize)
				next = w.End + 1
			}
			assert.Equal(t, tc.bound, windows[len(windows)-1].End)

			wantLast := tc.bound % tc.pageSize
			if wantLast == 0 {
				wantLast = tc.pageSize
			}
			last := windows[len(windows)-1]
			assert.Equal(t, wantLast, last.End-last.Start+1)
		})
	}
}

func TestWindowsNonPositiveInputs(t *testing.T) {
	assert.Nil(t, Windows(0, 999))
	assert.Nil(t, Windows(-1, 999))
	assert.Nil(t, Windows(2725, 0))
	assert.Nil(t, Windows(2725, -5))
}

func pageServer(t *testing.T, rowsPerPage map[string]int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		count, ok := rowsPerPage[r.URL.Path]
		if !ok {
			// Collection field absent entirely.
			fmt.Fprint(w, `{"RESULT": {"CODE": "INFO-200"}}`)
			return
		}

		fmt.Fprint(w, `{"rentBikeStatus": {"row": [`)
		for i := 0; i < count; i++ {
			if i > 0 {
				fmt.Fprint(w, ",")
			}
			fmt.Fprintf(w, `{"stationId": "ST-%d", "rackTotCnt": "20", "parkingBikeTotCnt": "5"}`, i)
		}
		fmt.Fprint(w, `]}}`)
	}))
}

func TestFetchAllAggregatesPages(t *testing.T) {
	srv := pageServer(t, map[string]int{
		"/testkey/json/bikeList/1/999/":     999,
		"/testkey/json/bikeList/1000/1998/": 999,
		"/testkey/json/bikeList/1999/2725/": 700,
	})
	defer srv.Close()

	client := New(srv.Client(), srv.URL, "testkey")
	rows, err := client.FetchAll(context.Background(), 2725, 999)

	require.NoError(t, err)
	assert.Len(t, rows, 999+999+700)
}

func TestFetchAllAbsentCollectionIsEmptyPage(t *testing.T) {
	srv := pageServer(t, map[string]int{
		"/testkey/json/bikeList/1/999/": 10,
		// Second and third pages answer without the collection field.
	})
	defer srv.Close()

	client := New(srv.Client(), srv.URL, "testkey")
	rows, err := client.FetchAll(context.Background(), 2725, 999)

	require.NoError(t, err)
	assert.Len(t, rows, 10)
}

func TestFetchAllAbortsOnHTTPError(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 2 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, `{"rentBikeStatus": {"row": [{"stationId": "ST-1"}]}}`)
	}))
	defer srv.Close()

	client := New(srv.Client(), srv.URL, "testkey")
	_, err := client.FetchAll(context.Background(), 2725, 999)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status")
	// The failing page aborts the cycle: the third page is never requested.
	assert.Equal(t, 2, calls)
}

func TestFetchAllTimeoutFailsCycle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		fmt.Fprint(w, `{"rentBikeStatus": {"row": []}}`)
	}))
	defer srv.Close()

	httpClient := &http.Client{Timeout: 20 * time.Millisecond}
	client := New(httpClient, srv.URL, "testkey")

	_, err := client.FetchAll(context.Background(), 100, 999)
	require.Error(t, err)
}

func TestFetchPageMalformedJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"rentBikeStatus": `)
	}))
	defer srv.Close()

	client := New(srv.Client(), srv.URL, "testkey")
	_, err := client.FetchPage(context.Background(), Window{Start: 1, End: 999})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode page")
}
