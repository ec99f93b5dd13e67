package app

import (
	"context"
	"sync"
	"time"

	"cosmossdk.io/log"
	abci "github.com/cometbft/cometbft/abci/types"

	"github.com/subhasisjena1643/tapnad/internal/codec"
	"github.com/subhasisjena1643/tapnad/internal/notify"
	"github.com/subhasisjena1643/tapnad/internal/race"
	"github.com/subhasisjena1643/tapnad/internal/state"
)

const (
	AppVersion uint64 = 1
)

// Publisher receives committed notifications.
type Publisher interface {
	Publish(ns ...notify.Notification)
}

type Options struct {
	Store  *state.Store
	Logger log.Logger

	// Organizer is used when genesis app_state does not name one.
	Organizer string

	// TapCooldown is the minimum spacing of race/tap txs per signer at
	// mempool admission. Zero disables it.
	TapCooldown       time.Duration
	ThrottleCacheSize int

	Publisher Publisher
}

type TapnadApp struct {
	*abci.BaseApplication

	logger    log.Logger
	store     *state.Store
	organizer string
	throttle  *tapThrottle
	publisher Publisher

	mu       sync.Mutex
	st       *state.State
	lastHash []byte

	// Buffered between FinalizeBlock and Commit.
	pending  []notify.Notification
	finished []race.Result

	// Game view as of the last persisted block; nil before InitChain.
	committed       *race.GameView
	committedHeight int64
}

func New(opts Options) (*TapnadApp, error) {
	if opts.Store == nil {
		opts.Store = state.NewMemStore()
	}
	if opts.Logger == nil {
		opts.Logger = log.NewNopLogger()
	}
	st, err := opts.Store.LoadState()
	if err != nil {
		return nil, err
	}
	throttle, err := newTapThrottle(opts.TapCooldown, opts.ThrottleCacheSize)
	if err != nil {
		return nil, err
	}
	a := &TapnadApp{
		BaseApplication: abci.NewBaseApplication(),
		logger:          opts.Logger.With("module", "app"),
		store:           opts.Store,
		organizer:       opts.Organizer,
		throttle:        throttle,
		publisher:       opts.Publisher,
		st:              st,
		lastHash:        st.AppHash(),
	}
	a.markCommitted()
	a.logger.Info("loaded state", "height", st.Height, "initialized", st.Game != nil)
	return a, nil
}

func (a *TapnadApp) Info(_ context.Context, _ *abci.InfoRequest) (*abci.InfoResponse, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	return &abci.InfoResponse{
		Data:             "tapnad (v0)",
		Version:          "v0",
		AppVersion:       AppVersion,
		LastBlockHeight:  a.st.Height,
		LastBlockAppHash: a.lastHash,
	}, nil
}

// CheckTx validates the envelope and its signature against committed state
// and applies the tap cooldown. Game rules are left to FinalizeBlock.
func (a *TapnadApp) CheckTx(_ context.Context, req *abci.CheckTxRequest) (*abci.CheckTxResponse, error) {
	env, err := codec.DecodeTxEnvelope(req.Tx)
	if err != nil {
		return checkErr(ErrTxDecode.Wrap(err.Error())), nil
	}

	a.mu.Lock()
	err = a.checkAuth(env)
	a.mu.Unlock()
	if err != nil {
		return checkErr(err), nil
	}

	// Rechecks re-run txs already admitted; do not charge the cooldown twice.
	if env.Type == codec.TypeTap && req.Type != abci.CHECK_TX_TYPE_RECHECK && !a.throttle.Allow(env.Signer) {
		return checkErr(ErrTapCooldown.Wrapf("signer %q", env.Signer)), nil
	}
	return &abci.CheckTxResponse{Code: 0}, nil
}

func (a *TapnadApp) InitChain(_ context.Context, req *abci.InitChainRequest) (*abci.InitChainResponse, error) {
	gs, err := decodeGenesis(req.AppStateBytes)
	if err != nil {
		return nil, err
	}
	st, err := initGenesis(gs, a.organizer)
	if err != nil {
		return nil, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.st = st
	a.lastHash = st.AppHash()
	a.markCommitted()
	a.logger.Info("initialized chain", "chainId", req.ChainId, "organizer", st.Game.Organizer, "accounts", len(st.AccountKeys))
	return &abci.InitChainResponse{AppHash: a.lastHash}, nil
}

func (a *TapnadApp) FinalizeBlock(_ context.Context, req *abci.FinalizeBlockRequest) (*abci.FinalizeBlockResponse, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.st.Height = req.Height
	nowUnix := req.Time.Unix()

	txResults := make([]*abci.ExecTxResult, 0, len(req.Txs))
	for _, txBytes := range req.Txs {
		res := a.deliverTx(txBytes, req.Height, nowUnix)
		txResults = append(txResults, res)
	}

	a.lastHash = a.st.AppHash()

	return &abci.FinalizeBlockResponse{
		TxResults: txResults,
		AppHash:   a.lastHash,
	}, nil
}

func (a *TapnadApp) Commit(_ context.Context, _ *abci.CommitRequest) (*abci.CommitResponse, error) {
	a.mu.Lock()
	if err := a.store.Commit(a.st, a.finished); err != nil {
		// Halt loudly; CometBFT replays the block on restart.
		a.logger.Error("commit failed", "height", a.st.Height, "err", err)
		a.mu.Unlock()
		return nil, err
	}
	a.markCommitted()
	pending := a.pending
	a.pending = nil
	a.finished = nil
	a.mu.Unlock()

	if a.publisher != nil && len(pending) > 0 {
		a.publisher.Publish(pending...)
	}
	return &abci.CommitResponse{}, nil
}

// Close releases the underlying store.
func (a *TapnadApp) Close() error {
	return a.store.Close()
}

// Snapshot returns the game view as of the last committed block. State
// finalized but not yet committed is never visible here.
func (a *TapnadApp) Snapshot() (race.GameView, int64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.committed == nil {
		return race.GameView{}, a.committedHeight, ErrNotInitialized
	}
	return *a.committed, a.committedHeight, nil
}

// markCommitted records a.st as the committed view. Callers hold a.mu.
func (a *TapnadApp) markCommitted() {
	a.committedHeight = a.st.Height
	if a.st.Game == nil {
		a.committed = nil
		return
	}
	v := a.st.Game.View()
	a.committed = &v
}

// Results returns every archived race result in race order.
func (a *TapnadApp) Results() ([]race.Result, error) {
	return a.store.Results()
}

func (a *TapnadApp) checkAuth(env codec.TxEnvelope) error {
	switch env.Type {
	case codec.TypeRegisterAccount:
		var msg codec.AuthRegisterAccountTx
		if err := env.DecodeValue(&msg); err != nil {
			return ErrTxDecode.Wrap(err.Error())
		}
		if err := requireRegisterAccountAuth(a.st, env, msg); err != nil {
			return err
		}
		return checkNonce(a.st, env)
	case codec.TypeJoinTeam, codec.TypeStartGame, codec.TypeTap, codec.TypeResetGame:
		account, err := txAccount(env)
		if err != nil {
			return err
		}
		if err := requireAccountAuth(a.st, env, account); err != nil {
			return err
		}
		return checkNonce(a.st, env)
	default:
		return ErrUnknownTx.Wrapf("%q", env.Type)
	}
}
