package gateway

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/eop-online/eop-client/internal/domain"
)

func newTestServer(t *testing.T, configure func(r chi.Router)) *Client {
	t.Helper()
	r := chi.NewRouter()
	r.Route("/api/v1", configure)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return New(srv.URL, zaptest.NewLogger(t))
}

func answer(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func TestGameInfo_Success(t *testing.T) {
	c := newTestServer(t, func(r chi.Router) {
		r.Get("/games/{id}", func(w http.ResponseWriter, req *http.Request) {
			assert.Equal(t, "foo-bar", chi.URLParam(req, "id"))
			answer(w, http.StatusOK, `{"id":"foo-bar","creator":"owner-1"}`)
		})
	})

	game, err := c.GameInfo(context.Background(), "foo-bar")
	require.NoError(t, err)
	require.NotNil(t, game)
	assert.Equal(t, "foo-bar", game.ID)
	assert.False(t, game.Started())
	assert.False(t, game.Finished())
}

func TestGameInfo_NotFoundIsData(t *testing.T) {
	c := newTestServer(t, func(r chi.Router) {
		r.Get("/games/{id}", func(w http.ResponseWriter, req *http.Request) {
			answer(w, http.StatusNotFound, `{}`)
		})
	})

	game, err := c.GameInfo(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, game)
}

func TestGameInfo_ForbiddenReasons(t *testing.T) {
	cases := []struct {
		reason string
		kind   Kind
	}{
		{"NotAMember", KindUserIsNotGameMember},
		{"NotAccepted", KindUserNotAccepted},
	}
	for _, tc := range cases {
		t.Run(tc.reason, func(t *testing.T) {
			c := newTestServer(t, func(r chi.Router) {
				r.Get("/games/{id}", func(w http.ResponseWriter, req *http.Request) {
					answer(w, http.StatusForbidden, `{"reason":"`+tc.reason+`"}`)
				})
			})

			_, err := c.GameInfo(context.Background(), "foo-bar")
			require.Error(t, err)
			assert.True(t, IsKind(err, tc.kind), "want kind %s, got %v", tc.kind, err)
		})
	}
}

func TestJoinGame_ErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		kind   Kind
	}{
		{"not found", http.StatusNotFound, `{}`, KindGameNotFound},
		{"conflict", http.StatusConflict, `{}`, KindUserAlreadyJoined},
		{"already started", http.StatusPreconditionFailed, `{"reason":"GameAlreadyStarted"}`, KindGameAlreadyStarted},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestServer(t, func(r chi.Router) {
				r.Put("/games/{id}", func(w http.ResponseWriter, req *http.Request) {
					answer(w, tc.status, tc.body)
				})
			})

			err := c.JoinGame(context.Background(), "foo-bar", "mallory")
			assert.True(t, IsKind(err, tc.kind), "want kind %s, got %v", tc.kind, err)
		})
	}
}

func TestPlayCard_PreconditionReasons(t *testing.T) {
	cases := []struct {
		reason string
		kind   Kind
	}{
		{"CardNotOnTheHand", KindCardNotOnTheHand},
		{"SuitNotMatch", KindSuitNotMatch},
		{"PlayerAlreadyPlayedCard", KindPlayerAlreadyPlayedCard},
		{"GameAlreadyFinished", KindGameAlreadyFinished},
		{"Card not found", KindCardNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.reason, func(t *testing.T) {
			c := newTestServer(t, func(r chi.Router) {
				r.Put("/matches/{id}/table/cards/{n}", func(w http.ResponseWriter, req *http.Request) {
					answer(w, http.StatusPreconditionFailed, `{"reason":"`+tc.reason+`"}`)
				})
			})

			err := c.PlayCard(context.Background(), "foo-bar", 18)
			assert.True(t, IsKind(err, tc.kind), "want kind %s, got %v", tc.kind, err)
		})
	}
}

func TestPlayCard_ForbiddenReasons(t *testing.T) {
	cases := []struct {
		reason string
		kind   Kind
	}{
		{"NotAPlayer", KindNotAPlayer},
		{"OtherPlayersTurn", KindOtherPlayersTurn},
		{"OtherPlayersCard", KindOtherPlayersCard},
	}
	for _, tc := range cases {
		t.Run(tc.reason, func(t *testing.T) {
			c := newTestServer(t, func(r chi.Router) {
				r.Put("/matches/{id}/table/cards/{n}", func(w http.ResponseWriter, req *http.Request) {
					answer(w, http.StatusForbidden, `{"reason":"`+tc.reason+`"}`)
				})
			})

			err := c.PlayCard(context.Background(), "foo-bar", 18)
			assert.True(t, IsKind(err, tc.kind))
		})
	}
}

func TestMatchState_Success(t *testing.T) {
	c := newTestServer(t, func(r chi.Router) {
		r.Get("/matches/{id}", func(w http.ResponseWriter, req *http.Request) {
			answer(w, http.StatusOK, `{
				"state": {"gameId":"foo-bar","currentPlayer":"u1","leadingSuit":"Tampering"},
				"hand": [{"cardNumber":3,"suit":"Spoofing","value":"3"}],
				"table": [{"gameId":"foo-bar","playerId":"u2","location":"Table",
					"card":{"cardNumber":18,"suit":"Tampering","value":"5"},"threatLinked":null}],
				"playersScores": {"u1":2,"u2":1}
			}`)
		})
	})

	round, err := c.MatchState(context.Background(), "foo-bar")
	require.NoError(t, err)
	assert.Equal(t, "u1", round.State.CurrentPlayer)
	require.NotNil(t, round.State.LeadingSuit)
	assert.Equal(t, domain.SuitTampering, *round.State.LeadingSuit)
	require.Len(t, round.Hand, 1)
	require.Len(t, round.Table, 1)
	assert.Nil(t, round.Table[0].ThreatLinked)
	assert.Equal(t, map[string]int{"u1": 2, "u2": 1}, round.PlayersScores)
}

func TestMatchState_NotFound(t *testing.T) {
	c := newTestServer(t, func(r chi.Router) {
		r.Get("/matches/{id}", func(w http.ResponseWriter, req *http.Request) {
			answer(w, http.StatusNotFound, `{}`)
		})
	})

	_, err := c.MatchState(context.Background(), "missing")
	assert.True(t, IsKind(err, KindMatchNotFound))
}

func TestStartGame_OwnerAndSizeChecks(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		kind   Kind
	}{
		{"not the owner", http.StatusForbidden, `{"reason":"NotAnOwner"}`, KindUserIsNotGameOwner},
		{"not enough players", http.StatusPreconditionFailed, `{"reason":"NotEnoughPlayers"}`, KindNotEnoughPlayers},
		{"too many players", http.StatusPreconditionFailed, `{"reason":"TooManyPlayers"}`, KindTooManyPlayers},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestServer(t, func(r chi.Router) {
				r.Post("/games/{id}", func(w http.ResponseWriter, req *http.Request) {
					answer(w, tc.status, tc.body)
				})
			})

			err := c.StartGame(context.Background(), "foo-bar")
			assert.True(t, IsKind(err, tc.kind))
		})
	}
}

func TestUnmappedStatusIsTransportError(t *testing.T) {
	c := newTestServer(t, func(r chi.Router) {
		r.Get("/users/me", func(w http.ResponseWriter, req *http.Request) {
			answer(w, http.StatusTeapot, `{"reason":"whatever"}`)
		})
	})

	_, err := c.Me(context.Background())
	require.Error(t, err)
	assert.Empty(t, KindOf(err), "unmapped combinations must stay outside the taxonomy")
}

func TestSetThreatStatus_SendsBody(t *testing.T) {
	var gotBody string
	c := newTestServer(t, func(r chi.Router) {
		r.Patch("/matches/{id}/table/cards/{n}", func(w http.ResponseWriter, req *http.Request) {
			buf := make([]byte, 256)
			n, _ := req.Body.Read(buf)
			gotBody = string(buf[:n])
			assert.Equal(t, "7", chi.URLParam(req, "n"))
			w.WriteHeader(http.StatusNoContent)
		})
	})

	require.NoError(t, c.SetThreatStatus(context.Background(), "foo-bar", 7, true))
	assert.JSONEq(t, `{"threatLinked":true}`, gotBody)
}

func TestScores(t *testing.T) {
	c := newTestServer(t, func(r chi.Router) {
		r.Get("/matches/{id}/scores", func(w http.ResponseWriter, req *http.Request) {
			answer(w, http.StatusOK, `{"111":5,"222":3}`)
		})
	})

	scores, err := c.Scores(context.Background(), "foo-bar")
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"111": 5, "222": 3}, scores)
}
