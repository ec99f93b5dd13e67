package race

// TeamView is the read model of one team.
type TeamView struct {
	ID             TeamID   `json:"id"`
	Name           string   `json:"name"`
	SupporterCount int      `json:"supporterCount"`
	Supporters     []string `json:"supporters"`
	TotalTaps      uint64   `json:"totalTaps"`
	Progress       Progress `json:"progress"`
}

// PlayerView answers hasPlayerJoined / playerSupports / playerTaps.
type PlayerView struct {
	Address string  `json:"address"`
	Joined  bool    `json:"joined"`
	Team    *TeamID `json:"team,omitempty"`
	Taps    uint64  `json:"taps"`
}

// GameView is the read model of the whole race.
type GameView struct {
	Phase      Phase      `json:"phase"`
	Organizer  string     `json:"organizer"`
	RaceNumber uint64     `json:"raceNumber"`
	StartedAt  int64      `json:"startedAt,omitempty"`
	Teams      []TeamView `json:"teams"`
	Result     *Result    `json:"result,omitempty"`
}

func (g *Game) TeamView(id TeamID) (TeamView, bool) {
	t := g.Team(id)
	if t == nil {
		return TeamView{}, false
	}
	return TeamView{
		ID:             id,
		Name:           id.String(),
		SupporterCount: t.SupporterCount(),
		Supporters:     append([]string{}, t.Supporters...),
		TotalTaps:      t.TotalTaps,
		Progress:       t.Progress(),
	}, true
}

func (g *Game) PlayerView(addr string) PlayerView {
	v := PlayerView{Address: addr}
	if p, ok := g.PlayerOf(addr); ok {
		team := p.Team
		v.Joined = true
		v.Team = &team
		v.Taps = p.Taps
	}
	return v
}

func (g *Game) View() GameView {
	v := GameView{
		Phase:      g.Phase,
		Organizer:  g.Organizer,
		RaceNumber: g.RaceNumber,
		StartedAt:  g.StartedAt,
		Teams:      make([]TeamView, 0, NumTeams),
	}
	for _, id := range Teams {
		tv, _ := g.TeamView(id)
		v.Teams = append(v.Teams, tv)
	}
	if g.Result != nil {
		r := *g.Result
		v.Result = &r
	}
	return v
}
