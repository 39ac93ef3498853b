// Package gateway is the typed REST client for the game server. Every call
// translates HTTP status plus the "reason" body field into the closed
// error taxonomy; combinations outside the taxonomy come back as plain
// errors.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"time"

	"go.uber.org/zap"

	"github.com/eop-online/eop-client/internal/domain"
)

const (
	apiPrefix  = "/api/v1"
	appVersion = "eop-client/1.0"
)

type Client struct {
	base string
	http *http.Client
	log  *zap.Logger
}

// New builds a gateway against baseURL (scheme + host, no path). The
// client keeps a cookie jar because the server identifies users by a
// session cookie.
func New(baseURL string, log *zap.Logger) *Client {
	jar, _ := cookiejar.New(nil)
	return &Client{
		base: baseURL + apiPrefix,
		http: &http.Client{Jar: jar, Timeout: 30 * time.Second},
		log:  log,
	}
}

// apiError is the error body shape: {"reason": "..."}.
type apiError struct {
	Reason string `json:"reason"`
}

// do runs one request and decodes a JSON response into out (out may be
// nil). notFound is the taxonomy kind a 404 maps to; pass "" to surface
// 404 as a plain error.
func (c *Client) do(ctx context.Context, method, path string, body, out any, notFound Kind) error {
	var buf io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		buf = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, buf)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-App-Version", appVersion)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return c.mapError(method, path, resp, notFound)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s %s: decode response: %w", method, path, err)
	}
	return nil
}

func (c *Client) mapError(method, path string, resp *http.Response, notFound Kind) error {
	var body apiError
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	_ = json.Unmarshal(raw, &body)
	c.log.Debug("api error",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.String("reason", body.Reason))

	switch resp.StatusCode {
	case http.StatusNotFound:
		if notFound != "" {
			return newError(notFound, "%s %s: not found", method, path)
		}
	case http.StatusForbidden:
		if kind, ok := forbiddenKinds[body.Reason]; ok {
			return newError(kind, "%s %s: forbidden (%s)", method, path, body.Reason)
		}
	case http.StatusConflict:
		return newError(KindUserAlreadyJoined, "user already joined")
	case http.StatusPreconditionFailed:
		if kind, ok := preconditionKinds[body.Reason]; ok {
			return newError(kind, "%s %s: precondition failed (%s)", method, path, body.Reason)
		}
	}
	return &httpError{Status: resp.StatusCode, Reason: body.Reason, Detail: method + " " + path}
}

func (c *Client) CreateGame(ctx context.Context, ownerNickname string, description *string) (domain.Game, error) {
	req := struct {
		OwnerNickname string  `json:"ownerNickname"`
		Description   *string `json:"description,omitempty"`
	}{ownerNickname, description}
	var game domain.Game
	err := c.do(ctx, http.MethodPost, "/games", req, &game, "")
	return game, err
}

// GameInfo returns nil without an error when the game doesn't exist: for
// this endpoint "not found" is an answer, not a failure, and the caller
// redirects on it.
func (c *Client) GameInfo(ctx context.Context, gameID string) (*domain.Game, error) {
	var game domain.Game
	err := c.do(ctx, http.MethodGet, "/games/"+gameID, nil, &game, "")
	if err != nil {
		if isStatus(err, http.StatusNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &game, nil
}

func (c *Client) JoinGame(ctx context.Context, gameID, nickname string) error {
	req := struct {
		Nickname string `json:"nickname"`
	}{nickname}
	return c.do(ctx, http.MethodPut, "/games/"+gameID, req, nil, KindGameNotFound)
}

func (c *Client) Members(ctx context.Context, gameID string) ([]domain.Member, error) {
	var members []domain.Member
	err := c.do(ctx, http.MethodGet, "/games/"+gameID+"/members", nil, &members, KindGameNotFound)
	return members, err
}

func (c *Client) AssignRole(ctx context.Context, gameID, participantID string, role domain.MemberRole) error {
	path := fmt.Sprintf("/games/%s/members/%s/roles/%s", gameID, participantID, role)
	return c.do(ctx, http.MethodPut, path, nil, nil, KindGameNotFound)
}

func (c *Client) KickUser(ctx context.Context, gameID, participantID string) error {
	path := fmt.Sprintf("/games/%s/members/%s", gameID, participantID)
	return c.do(ctx, http.MethodDelete, path, nil, nil, KindGameNotFound)
}

func (c *Client) StartGame(ctx context.Context, gameID string) error {
	return c.do(ctx, http.MethodPost, "/games/"+gameID, nil, nil, KindGameNotFound)
}

func (c *Client) AvailableGames(ctx context.Context) ([]domain.UserGameSummary, error) {
	var games []domain.UserGameSummary
	err := c.do(ctx, http.MethodGet, "/games", nil, &games, "")
	return games, err
}

func (c *Client) DeleteGame(ctx context.Context, gameID string) error {
	return c.do(ctx, http.MethodDelete, "/games/"+gameID, nil, nil, KindGameNotFound)
}

func (c *Client) MatchState(ctx context.Context, matchID string) (domain.Round, error) {
	var round domain.Round
	err := c.do(ctx, http.MethodGet, "/matches/"+matchID, nil, &round, KindMatchNotFound)
	return round, err
}

// SetThreatStatus records the owner's linked/not-linked decision for a
// card already on the table.
func (c *Client) SetThreatStatus(ctx context.Context, matchID string, cardNumber int, linked bool) error {
	req := struct {
		ThreatLinked bool `json:"threatLinked"`
	}{linked}
	path := fmt.Sprintf("/matches/%s/table/cards/%d", matchID, cardNumber)
	return c.do(ctx, http.MethodPatch, path, req, nil, KindMatchNotFound)
}

func (c *Client) PlayCard(ctx context.Context, matchID string, cardNumber int) error {
	path := fmt.Sprintf("/matches/%s/table/cards/%d", matchID, cardNumber)
	return c.do(ctx, http.MethodPut, path, nil, nil, KindMatchNotFound)
}

func (c *Client) Scores(ctx context.Context, matchID string) (map[string]int, error) {
	var scores map[string]int
	err := c.do(ctx, http.MethodGet, "/matches/"+matchID+"/scores", nil, &scores, KindMatchNotFound)
	return scores, err
}

func (c *Client) Me(ctx context.Context) (domain.Session, error) {
	var session domain.Session
	err := c.do(ctx, http.MethodGet, "/users/me", nil, &session, "")
	return session, err
}
