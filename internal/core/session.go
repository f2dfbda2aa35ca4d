package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/vovakirdan/pulsechat/internal/auth"
	"github.com/vovakirdan/pulsechat/internal/metrics"
)

// Join enters the chat as a guest. Only guest-prefixed nicknames are accepted
// and the credential store is never consulted. The prefix is checked on the
// nickname as sent, before any trimming.
func (h *Hub) Join(ctx context.Context, c *Client, nickname, avatar string) {
	if !h.auth.IsGuest(nickname) {
		h.metrics.Login(metrics.LoginRejected)
		h.rejectLogin(c, coreError(ErrCodeGuestOnly, msgSignUpOrLogin))
		return
	}

	nickname = Sanitize(nickname, MaxNicknameLen)
	avatar = Sanitize(avatar, MaxAvatarLen)
	h.metrics.Login(metrics.LoginGuest)
	h.admit(ctx, c, StateGuest, nickname, "", avatar)
}

// SignupOrLogin creates an account for a new nickname or authenticates against an existing one.
func (h *Hub) SignupOrLogin(ctx context.Context, c *Client, nickname, key, decoration, avatar string) {
	nickname = Sanitize(nickname, MaxNicknameLen)
	decoration = Sanitize(decoration, MaxDecorationLen)
	avatar = Sanitize(avatar, MaxAvatarLen)

	identity, err := h.auth.SignupOrLogin(ctx, nickname, key, decoration, avatar)
	if err != nil {
		cerr := h.loginError(err)
		if cerr.Code == ErrCodeStorageFailure {
			h.metrics.Login(metrics.LoginFailed)
			h.log.Error().Err(err).Str("conn_id", c.ID).Str("nickname", nickname).Msg("signup or login failed")
		} else {
			h.metrics.Login(metrics.LoginRejected)
			h.log.Debug().Err(err).Str("conn_id", c.ID).Str("nickname", nickname).Msg("login rejected")
		}
		h.rejectLogin(c, cerr)
		return
	}

	if identity.Created {
		h.metrics.Login(metrics.LoginSignup)
	} else {
		h.metrics.Login(metrics.LoginSuccess)
	}
	h.admit(ctx, c, StateAuthenticated, identity.Nickname, identity.Decoration, identity.Avatar)
}

// admit attaches the identity, registers presence, answers the client and announces the roster.
func (h *Hub) admit(ctx context.Context, c *Client, state SessionState, nickname, decoration, avatar string) {
	if !c.authenticate(state, nickname, decoration, avatar) {
		return
	}
	h.presence.Add(c.ID, nickname, avatar)
	if c.Session().State == StateDisconnected {
		// Disconnect ran between authenticate and Add; its Remove saw nothing.
		h.presence.Remove(c.ID)
		return
	}

	h.log.Info().
		Str("conn_id", c.ID).
		Str("nickname", nickname).
		Stringer("state", state).
		Msg("session authenticated")

	h.deliver(c, &Event{Kind: EventLoginResult, Success: true})
	h.ReplayHistory(ctx, c)
	h.BroadcastPresence()
}

func (h *Hub) rejectLogin(c *Client, cerr *CoreError) {
	h.deliver(c, &Event{Kind: EventLoginResult, Success: false, Error: cerr})
}

func (h *Hub) loginError(err error) *CoreError {
	switch {
	case errors.Is(err, auth.ErrCredentialsRequired):
		return coreError(ErrCodeBadRequest, msgCredentials)
	case errors.Is(err, auth.ErrGuestNickname):
		return coreError(ErrCodeAuthConflict, fmt.Sprintf(msgGuestNicknameTmpl, h.auth.GuestPrefix()))
	case errors.Is(err, auth.ErrIncorrectKey):
		return coreError(ErrCodeAuthConflict, msgIncorrectKey)
	default:
		return coreError(ErrCodeStorageFailure, msgSignupFailed)
	}
}
