package feed

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"cosmossdk.io/log"
	"github.com/stretchr/testify/require"

	"github.com/subhasisjena1643/tapnad/internal/app"
	"github.com/subhasisjena1643/tapnad/internal/notify"
	"github.com/subhasisjena1643/tapnad/internal/race"
)

type fakeSource struct {
	view    race.GameView
	height  int64
	err     error
	results []race.Result
}

func (f *fakeSource) Snapshot() (race.GameView, int64, error) { return f.view, f.height, f.err }

func (f *fakeSource) Results() ([]race.Result, error) { return f.results, nil }

func newTestRouter(src Source, b *notify.Broker) http.Handler {
	return NewRouter(log.NewNopLogger(), src, b)
}

func TestHandleGame(t *testing.T) {
	g, err := race.NewGame("organizer")
	require.NoError(t, err)
	src := &fakeSource{view: g.View(), height: 7}

	rec := httptest.NewRecorder()
	newTestRouter(src, notify.NewBroker(log.NewNopLogger())).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/game", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Header().Get("Content-Type"), "application/json")

	var body struct {
		Height int64         `json:"height"`
		Game   race.GameView `json:"game"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, int64(7), body.Height)
	require.Equal(t, race.PhaseLobby, body.Game.Phase)
	require.Equal(t, "organizer", body.Game.Organizer)
	require.Len(t, body.Game.Teams, race.NumTeams)
}

func TestHandleGame_NotInitialized(t *testing.T) {
	src := &fakeSource{err: app.ErrNotInitialized}
	router := newTestRouter(src, notify.NewBroker(log.NewNopLogger()))

	tests := []struct {
		path string
		want int
	}{
		{"/game", http.StatusServiceUnavailable},
		{"/healthz", http.StatusServiceUnavailable},
		{"/results", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
			require.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestHandleResults(t *testing.T) {
	src := &fakeSource{results: []race.Result{{RaceNumber: 1, Winner: race.Ethereum, DurationSecs: 12}}}

	rec := httptest.NewRecorder()
	newTestRouter(src, notify.NewBroker(log.NewNopLogger())).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/results", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var got []race.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, src.results, got)
}

func TestHandleEvents_StreamsNotifications(t *testing.T) {
	b := notify.NewBroker(log.NewNopLogger())
	srv := httptest.NewServer(newTestRouter(&fakeSource{}, b))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	require.Eventually(t, func() bool { return b.Len() == 1 }, 2*time.Second, 10*time.Millisecond)
	b.Publish(notify.Notification{
		Height:     3,
		Type:       race.EventTypeGameStarted,
		Attributes: map[string]string{"raceNumber": "1"},
	})

	sc := bufio.NewScanner(resp.Body)
	var lines []string
	for sc.Scan() {
		line := sc.Text()
		if line == "" {
			break
		}
		lines = append(lines, line)
	}
	require.Len(t, lines, 2)
	require.Equal(t, "event: "+race.EventTypeGameStarted, lines[0])

	var n notify.Notification
	require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(lines[1], "data: ")), &n))
	require.Equal(t, int64(3), n.Height)
	require.Equal(t, "1", n.Attributes["raceNumber"])

	cancel()
	require.Eventually(t, func() bool { return b.Len() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestHandleEvents_Heartbeat(t *testing.T) {
	b := notify.NewBroker(log.NewNopLogger())
	h := handleEvents(log.NewNopLogger(), b, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		h(rec, req)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()
	<-done

	require.Contains(t, rec.Body.String(), ": ping\n\n")
	require.Zero(t, b.Len())
}

func TestHandleOpenAPI(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestRouter(&fakeSource{}, notify.NewBroker(log.NewNopLogger())).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/openapi.json", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Header().Get("Content-Type"), "application/json")
	body := rec.Body.String()
	for _, path := range []string{`"/game"`, `"/results"`, `"/events"`, `"/healthz"`} {
		require.Contains(t, body, path)
	}
}

func TestHandleSwaggerUI(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestRouter(&fakeSource{}, notify.NewBroker(log.NewNopLogger())).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/docs", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "/openapi.json")
}
