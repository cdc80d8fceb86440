package untis

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"vplan-backend/lib/telemetry"
	"vplan-backend/lib/timezone"

	"github.com/stretchr/testify/require"
)

const navbar = `<html><body><form>
<select name="week" class="selectbox">
	<option value="1">20.2.2023</option>
	<option value="2">27.2.2023</option>
	<option value="x">kaputt</option>
</select>
</form></body></html>`

// latin1 encodes "MÜL" the way the publication is served
var latin1Page = []byte("<html><body><div class=\"mon_title\">22.2.2023</div><table class=\"mon_list\">" +
	"<tr><td>7a</td><td>1</td><td></td><td></td><td>M\xdcL</td><td>Entfall</td></tr></table></body></html>")

func newTestServer(t *testing.T) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/vplan/frames/navbar.htm", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("content-type", "text/html; charset=utf-8")
		w.Write([]byte(navbar))
	})
	mux.HandleFunc("/vplan/01/w/w00000.htm", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("content-type", "text/html; charset=iso-8859-1")
		w.Write(latin1Page)
	})
	mux.HandleFunc("/vplan/02/w/w00000.htm", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestClient(t *testing.T) {
	cleanup := telemetry.SetupForTesting("test:scrapers/untis")
	defer cleanup()

	server := newTestServer(t)
	tel := &telemetry.MemoryAPI{}
	client, err := NewClient(ClientOptions{
		BaseUrl: server.URL + "/vplan/",
		Timeout: time.Second * 5,
	}, tel)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()

	weeks, err := client.FetchWeekIndex(ctx)
	require.NoError(t, err)
	require.Equal(t, map[int]int{1: 23, 2: 23}, weeks)
	require.True(t, tel.Has("warning", "client.parse-week-option"))

	doc, err := client.FetchWeekPage(ctx, 1)
	require.NoError(t, err)
	page := ParseDocument(1, NewWeekPublications(weeks), doc, DefaultParseOptions())
	require.Empty(t, page.Errors)
	records := page.Records()
	require.Len(t, records, 1)
	require.Equal(t, "MÜL", records[0].OriginalTeacher)
	require.Equal(t, timezone.Date(2023, time.February, 22), records[0].Date)

	_, err = client.FetchWeekPage(ctx, 2)
	var fetchErr *FetchError
	require.True(t, errors.As(err, &fetchErr))
	require.Equal(t, 2, fetchErr.Week)
	require.Equal(t, http.StatusInternalServerError, fetchErr.Status)
}

func TestClientUnreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	client, err := NewClient(ClientOptions{BaseUrl: url, Timeout: time.Second}, &telemetry.MemoryAPI{})
	require.NoError(t, err)

	_, err = client.FetchWeekIndex(context.Background())
	var fetchErr *FetchError
	require.True(t, errors.As(err, &fetchErr))
	require.Equal(t, IndexPage, fetchErr.Week)
	require.Error(t, fetchErr.Unwrap())
}

func TestClientWeekPagePattern(t *testing.T) {
	for _, pattern := range []string{"w/w00000.htm", "%02d/%02d.htm", "%s/w.htm"} {
		_, err := NewClient(ClientOptions{
			BaseUrl:         "https://example.org/vplan/",
			WeekPagePattern: pattern,
		}, &telemetry.MemoryAPI{})
		require.Error(t, err, pattern)
	}

	_, err := NewClient(ClientOptions{
		BaseUrl:         "https://example.org/vplan/",
		WeekPagePattern: "woche/%d.htm",
	}, &telemetry.MemoryAPI{})
	require.NoError(t, err)
}

func TestWeekPublications(t *testing.T) {
	pubs := NewWeekPublications(map[int]int{3: 24, 1: 23})
	year, ok := pubs.Year(1)
	require.True(t, ok)
	require.Equal(t, 2023, year)
	_, ok = pubs.Year(2)
	require.False(t, ok)
	require.Equal(t, []int{1, 3}, pubs.Weeks())
}
