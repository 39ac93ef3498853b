// Package session drives one game page: it watches reconciler snapshots,
// derives the view mode, and runs the side effects the mode demands
// (channel open/close, fetches, redirects, notices).
package session

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/eop-online/eop-client/internal/async"
	"github.com/eop-online/eop-client/internal/channel"
	"github.com/eop-online/eop-client/internal/domain"
	"github.com/eop-online/eop-client/internal/gateway"
	"github.com/eop-online/eop-client/internal/state"
)

// Gateway is the slice of the REST client the controller needs.
type Gateway interface {
	GameInfo(ctx context.Context, gameID string) (*domain.Game, error)
	JoinGame(ctx context.Context, gameID, nickname string) error
	Members(ctx context.Context, gameID string) ([]domain.Member, error)
	MatchState(ctx context.Context, matchID string) (domain.Round, error)
	Me(ctx context.Context) (domain.Session, error)
}

// Channels is the slice of the channel manager the controller needs.
type Channels interface {
	Open(channel.Key)
	Close(channel.Key)
	Events() <-chan channel.Inbound
}

// UI receives the user-visible outcomes the engine can't act on itself.
type UI interface {
	Notify(text string)
	Redirect(reason string)
}

// Controller runs the session state machine for a single game id.
type Controller struct {
	gameID   string
	gw       Gateway
	channels Channels
	store    *state.Store
	ui       UI
	log      *zap.Logger

	snapshots chan state.Snapshot
	connected chan channel.Key

	mode       Mode
	redirected bool
}

func NewController(gameID string, gw Gateway, channels Channels, store *state.Store, ui UI, log *zap.Logger) *Controller {
	return &Controller{
		gameID:    gameID,
		gw:        gw,
		channels:  channels,
		store:     store,
		ui:        ui,
		log:       log,
		snapshots: make(chan state.Snapshot, 16),
		connected: make(chan channel.Key, 4),
		mode:      ModeLoading,
	}
}

// SetChannels wires the channel manager in. Two-step on purpose: the
// manager wants OnConnected at construction, so it can't exist before the
// controller does. Must be called before Run.
func (c *Controller) SetChannels(channels Channels) { c.channels = channels }

// OnConnected is handed to the channel manager; it fires on every
// successful (re)connect so missed events can be papered over by a full
// refetch.
func (c *Controller) OnConnected(key channel.Key) {
	select {
	case c.connected <- key:
	default:
		// A refresh is already queued; one is enough.
	}
}

func (c *Controller) anteroomKey() channel.Key {
	return channel.Key{Scope: channel.ScopeAnteroom, GameID: c.gameID}
}

func (c *Controller) matchKey() channel.Key {
	return channel.Key{Scope: channel.ScopeMatch, GameID: c.gameID}
}

// Run blocks until ctx is canceled. Cleanup is unconditional: channels
// close and transient fetch state resets however the session ended.
func (c *Controller) Run(ctx context.Context) error {
	c.store.Subscribe("session:"+c.gameID, c.snapshots)
	defer c.cleanup()

	c.fetchGame(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case snap, ok := <-c.snapshots:
			if !ok {
				return nil
			}
			c.react(ctx, snap)

		case in := <-c.channels.Events():
			c.store.Dispatch(state.EventReceived{Event: in.Event})

		case key := <-c.connected:
			c.refresh(ctx, key)

		case effect := <-c.store.Effects():
			c.runEffect(ctx, effect)
		}
	}
}

// Join asks to join the game under nickname. Success and "already joined"
// both end in a refetch, which moves the view past the join prompt.
func (c *Controller) Join(ctx context.Context, nickname string) {
	err := c.gw.JoinGame(ctx, c.gameID, nickname)
	if err != nil && !gateway.IsKind(err, gateway.KindUserAlreadyJoined) {
		c.log.Warn("join failed", zap.Error(err))
		c.ui.Notify("Unable to join game")
		return
	}
	c.fetchGame(ctx)
}

func (c *Controller) cleanup() {
	c.channels.Close(c.anteroomKey())
	c.channels.Close(c.matchKey())
	c.store.Dispatch(state.GameFetchReset{})
	c.store.Dispatch(state.MatchFetchReset{})
	c.store.Unsubscribe("session:" + c.gameID)
}

// react runs the side effects of one snapshot: terminal redirects first,
// then whatever entering the derived mode requires.
func (c *Controller) react(ctx context.Context, snap state.Snapshot) {
	s := snap.State

	if c.redirected {
		return
	}
	if s.Game.FinishedFor(c.gameID) && s.Game.Data == nil {
		c.redirected = true
		c.ui.Notify("Game not found")
		c.ui.Redirect("game not found")
		return
	}
	if gateway.IsKind(s.Game.Err, gateway.KindUserRemoved) {
		c.redirected = true
		c.ui.Notify("User removed from game")
		c.ui.Redirect("user removed")
		return
	}

	mode := SelectMode(s, c.gameID)
	if mode == c.mode {
		return
	}
	prev := c.mode
	c.mode = mode
	c.log.Info("view mode changed",
		zap.String("from", string(prev)),
		zap.String("to", string(mode)))

	switch mode {
	case ModeWaitingApproval:
		c.channels.Open(c.anteroomKey())

	case ModeAnteroom:
		c.channels.Open(c.anteroomKey())
		c.ensureMembers(ctx, s)
		c.ensureSession(ctx, s)

	case ModeMatch:
		c.channels.Close(c.anteroomKey())
		c.channels.Open(c.matchKey())
		c.ensureMatch(ctx, s)
		c.ensureMembers(ctx, s)
		c.ensureSession(ctx, s)

	case ModeSummary:
		c.channels.Close(c.anteroomKey())
		c.channels.Close(c.matchKey())

	case ModeJoinPrompt:
		c.ui.Notify("Join this game to continue")
	}
}

// refresh re-reads everything a scope covers; a reconnect means an unknown
// number of missed events.
func (c *Controller) refresh(ctx context.Context, key channel.Key) {
	switch key.Scope {
	case channel.ScopeAnteroom:
		c.fetchGame(ctx)
		c.fetchMembers(ctx)
	case channel.ScopeMatch:
		c.fetchMatch(ctx)
		c.fetchMembers(ctx)
	}
}

func (c *Controller) runEffect(ctx context.Context, effect state.Effect) {
	switch e := effect.(type) {
	case state.RefetchGame:
		if e.GameID == c.gameID {
			c.fetchGame(ctx)
		}
	case state.NotifyTrick:
		c.notifyTrick(e.Player)
	}
}

func (c *Controller) notifyTrick(player *string) {
	if player == nil {
		c.ui.Notify("Nobody managed to take a trick")
		return
	}
	snap := c.store.Current()
	for _, m := range snap.State.Members.Data {
		if m.ID == *player {
			c.ui.Notify(fmt.Sprintf("%s takes a trick", m.Nickname))
			return
		}
	}
}

func (c *Controller) ensureMembers(ctx context.Context, s state.State) {
	if s.Members.For(c.gameID) && s.Members.Status == async.Pending {
		return
	}
	c.fetchMembers(ctx)
}

func (c *Controller) ensureSession(ctx context.Context, s state.State) {
	if s.Session.Status == async.Pending || s.Session.Status == async.Finished {
		return
	}
	c.fetchSession(ctx)
}

func (c *Controller) ensureMatch(ctx context.Context, s state.State) {
	if s.Match.For(c.gameID) && (s.Match.Status == async.Pending || s.Match.Status == async.Finished) {
		return
	}
	c.fetchMatch(ctx)
}

func (c *Controller) fetchGame(ctx context.Context) {
	c.store.Dispatch(state.GameFetchStarted{GameID: c.gameID})
	go func() {
		game, err := c.gw.GameInfo(ctx, c.gameID)
		if err != nil {
			c.store.Dispatch(state.GameFetchFailed{GameID: c.gameID, Err: err})
			return
		}
		c.store.Dispatch(state.GameFetchDone{GameID: c.gameID, Game: game})
	}()
}

func (c *Controller) fetchMembers(ctx context.Context) {
	c.store.Dispatch(state.MembersFetchStarted{GameID: c.gameID})
	go func() {
		members, err := c.gw.Members(ctx, c.gameID)
		if err != nil {
			c.store.Dispatch(state.MembersFetchFailed{GameID: c.gameID, Err: err})
			return
		}
		c.store.Dispatch(state.MembersFetchDone{GameID: c.gameID, Members: members})
	}()
}

func (c *Controller) fetchMatch(ctx context.Context) {
	c.store.Dispatch(state.MatchFetchStarted{GameID: c.gameID})
	go func() {
		round, err := c.gw.MatchState(ctx, c.gameID)
		if err != nil {
			c.store.Dispatch(state.MatchFetchFailed{GameID: c.gameID, Err: err})
			return
		}
		c.store.Dispatch(state.MatchFetchDone{GameID: c.gameID, Round: round})
	}()
}

func (c *Controller) fetchSession(ctx context.Context) {
	c.store.Dispatch(state.SessionFetchStarted{})
	go func() {
		session, err := c.gw.Me(ctx)
		if err != nil {
			c.store.Dispatch(state.SessionFetchFailed{Err: err})
			return
		}
		c.store.Dispatch(state.SessionFetchDone{Session: session})
	}()
}
