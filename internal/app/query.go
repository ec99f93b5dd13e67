package app

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	abci "github.com/cometbft/cometbft/abci/types"

	"github.com/subhasisjena1643/tapnad/internal/race"
)

func (a *TapnadApp) Query(_ context.Context, req *abci.QueryRequest) (*abci.QueryResponse, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	height := a.st.Height
	v, err := a.query(strings.TrimSpace(req.Path))
	if err != nil {
		return queryErr(err, height), nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return queryErr(err, height), nil
	}
	return &abci.QueryResponse{Code: 0, Key: []byte(req.Path), Value: b, Height: height}, nil
}

// Paths:
// - /game
// - /organizer
// - /team/<id>, /team/<id>/progress
// - /player/<addr>
// - /results, /results/<raceNumber>
func (a *TapnadApp) query(path string) (any, error) {
	if strings.HasPrefix(path, "/results") {
		return a.queryResults(strings.TrimPrefix(path, "/results"))
	}

	g := a.st.Game
	if g == nil {
		return nil, ErrNotInitialized
	}
	switch {
	case path == "/game":
		return g.View(), nil
	case path == "/organizer":
		return map[string]string{"organizer": g.Organizer}, nil
	case strings.HasPrefix(path, "/team/"):
		rest := strings.TrimPrefix(path, "/team/")
		raw, sub, _ := strings.Cut(rest, "/")
		n, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return nil, race.ErrInvalidTeam.Wrapf("invalid team id %q", raw)
		}
		id, err := race.ParseTeam(n)
		if err != nil {
			return nil, err
		}
		tv, _ := g.TeamView(id)
		switch sub {
		case "":
			return tv, nil
		case "progress":
			return tv.Progress, nil
		default:
			return nil, race.ErrInvalidRequest.Wrapf("unknown query path %q", path)
		}
	case strings.HasPrefix(path, "/player/"):
		addr := strings.TrimPrefix(path, "/player/")
		if addr == "" {
			return nil, race.ErrInvalidRequest.Wrap("missing player address")
		}
		return g.PlayerView(addr), nil
	default:
		return nil, race.ErrInvalidRequest.Wrapf("unknown query path %q", path)
	}
}

func (a *TapnadApp) queryResults(rest string) (any, error) {
	switch {
	case rest == "":
		return a.store.Results()
	case strings.HasPrefix(rest, "/"):
		raw := strings.TrimPrefix(rest, "/")
		n, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return nil, race.ErrInvalidRequest.Wrapf("invalid race number %q", raw)
		}
		r, err := a.store.Result(n)
		if err != nil {
			return nil, err
		}
		if r == nil {
			return nil, race.ErrInvalidRequest.Wrapf("race %d has no result", n)
		}
		return r, nil
	default:
		return nil, race.ErrInvalidRequest.Wrapf("unknown query path %q", "/results"+rest)
	}
}
