package app

import (
	abci "github.com/cometbft/cometbft/abci/types"

	"github.com/subhasisjena1643/tapnad/internal/codec"
	"github.com/subhasisjena1643/tapnad/internal/notify"
	"github.com/subhasisjena1643/tapnad/internal/race"
	"github.com/subhasisjena1643/tapnad/internal/state"
)

const EventTypeAccountRegistered = "AccountRegistered"

// deliverTx executes one tx against a staged copy of the state. The copy
// replaces the live state only when the tx succeeds, so a failed tx changes
// nothing (including the signer's nonce).
func (a *TapnadApp) deliverTx(txBytes []byte, height int64, nowUnix int64) *abci.ExecTxResult {
	env, err := codec.DecodeTxEnvelope(txBytes)
	if err != nil {
		return errResult(ErrTxDecode.Wrap(err.Error()))
	}
	if a.st.Game == nil {
		return errResult(ErrNotInitialized)
	}

	staged, err := a.st.Clone()
	if err != nil {
		return errResult(err)
	}
	events, err := execTx(staged, env, nowUnix)
	if err != nil {
		a.logger.Debug("tx rejected", "height", height, "type", env.Type, "signer", env.Signer, "err", err)
		return errResult(err)
	}
	a.st = staged

	a.pending = append(a.pending, notify.FromEvents(height, events)...)
	for _, ev := range events {
		if ev.Type != race.EventTypeGameFinished || a.st.Game.Result == nil {
			continue
		}
		r := *a.st.Game.Result
		a.finished = append(a.finished, r)
		a.logger.Info("race finished",
			"height", height,
			"raceNumber", r.RaceNumber,
			"winner", r.Winner.String(),
			"duration", r.DurationSecs,
		)
	}

	return &abci.ExecTxResult{Code: 0, Events: toABCIEvents(events)}
}

// txAccount returns the account a race tx acts for, which must sign it.
func txAccount(env codec.TxEnvelope) (string, error) {
	switch env.Type {
	case codec.TypeJoinTeam:
		var msg codec.RaceJoinTeamTx
		if err := env.DecodeValue(&msg); err != nil {
			return "", ErrTxDecode.Wrap(err.Error())
		}
		return msg.Player, nil
	case codec.TypeStartGame:
		var msg codec.RaceStartGameTx
		if err := env.DecodeValue(&msg); err != nil {
			return "", ErrTxDecode.Wrap(err.Error())
		}
		return msg.Caller, nil
	case codec.TypeTap:
		var msg codec.RaceTapTx
		if err := env.DecodeValue(&msg); err != nil {
			return "", ErrTxDecode.Wrap(err.Error())
		}
		return msg.Player, nil
	case codec.TypeResetGame:
		var msg codec.RaceResetGameTx
		if err := env.DecodeValue(&msg); err != nil {
			return "", ErrTxDecode.Wrap(err.Error())
		}
		return msg.Caller, nil
	default:
		return "", ErrUnknownTx.Wrapf("%q", env.Type)
	}
}

func execTx(st *state.State, env codec.TxEnvelope, nowUnix int64) ([]race.Event, error) {
	switch env.Type {
	case codec.TypeRegisterAccount:
		var msg codec.AuthRegisterAccountTx
		if err := env.DecodeValue(&msg); err != nil {
			return nil, ErrTxDecode.Wrap(err.Error())
		}
		if err := requireRegisterAccountAuth(st, env, msg); err != nil {
			return nil, err
		}
		if err := consumeNonce(st, env); err != nil {
			return nil, err
		}
		st.AccountKeys[msg.Account] = append([]byte(nil), msg.PubKey...)
		return []race.Event{{
			Type:       EventTypeAccountRegistered,
			Attributes: map[string]string{"account": msg.Account},
		}}, nil

	case codec.TypeJoinTeam, codec.TypeStartGame, codec.TypeTap, codec.TypeResetGame:
		account, err := txAccount(env)
		if err != nil {
			return nil, err
		}
		if err := requireAccountAuth(st, env, account); err != nil {
			return nil, err
		}
		if err := consumeNonce(st, env); err != nil {
			return nil, err
		}
		return execRaceTx(st.Game, env, account, nowUnix)

	default:
		return nil, ErrUnknownTx.Wrapf("%q", env.Type)
	}
}

func execRaceTx(g *race.Game, env codec.TxEnvelope, account string, nowUnix int64) ([]race.Event, error) {
	switch env.Type {
	case codec.TypeJoinTeam:
		var msg codec.RaceJoinTeamTx
		if err := env.DecodeValue(&msg); err != nil {
			return nil, ErrTxDecode.Wrap(err.Error())
		}
		team, err := race.ParseTeam(msg.Team)
		if err != nil {
			return nil, err
		}
		return g.JoinTeam(account, team)
	case codec.TypeStartGame:
		return g.StartGame(account, nowUnix)
	case codec.TypeTap:
		return g.Tap(account, nowUnix)
	case codec.TypeResetGame:
		return g.ResetGame(account)
	default:
		return nil, ErrUnknownTx.Wrapf("%q", env.Type)
	}
}

// toABCIEvents converts race events into indexed ABCI events with attributes
// in key order.
func toABCIEvents(events []race.Event) []abci.Event {
	out := make([]abci.Event, 0, len(events))
	for _, ev := range events {
		abciEv := abci.Event{Type: ev.Type}
		for _, k := range ev.Keys() {
			abciEv.Attributes = append(abciEv.Attributes, abci.EventAttribute{Key: k, Value: ev.Attributes[k], Index: true})
		}
		out = append(out, abciEv)
	}
	return out
}
