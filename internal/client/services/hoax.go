package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/hoaxbuster/internal/client/client"
	"github.com/dmitrijs2005/hoaxbuster/internal/client/models"
	"github.com/dmitrijs2005/hoaxbuster/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/hoaxbuster/internal/client/store"
	"github.com/dmitrijs2005/hoaxbuster/internal/logging"
)

// GuestCheckLimit is how many checks a guest gets before signing in.
const GuestCheckLimit = 3

var (
	ErrGuestLimitReached = errors.New("guest check limit reached, sign in to continue")
	ErrEmptyText         = errors.New("text to check is empty")
)

type HoaxService interface {
	Check(ctx context.Context, text string) (*models.Prediction, error)
	// GuestChecksLeft is the remaining guest quota.
	GuestChecksLeft(ctx context.Context) int
}

type hoaxService struct {
	api     client.Client
	store   *store.Store
	session Session
	online  OnlineChecker
	log     logging.Logger
}

func NewHoaxService(api client.Client, st *store.Store, session Session, online OnlineChecker, log logging.Logger) HoaxService {
	return &hoaxService{api: api, store: st, session: session, online: online, log: log.With("component", "hoax")}
}

// Check classifies text. Signed-in users have no quota; guests get
// GuestCheckLimit successful checks. Checking needs the server, so offline
// it fails with client.ErrUnavailable.
func (h *hoaxService) Check(ctx context.Context, text string) (*models.Prediction, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyText
	}
	if !h.online.IsOnline() {
		return nil, client.ErrUnavailable
	}

	if _, ok := h.session.CurrentUser(ctx); ok {
		p, err := h.api.CheckHoax(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("check error: %w", err)
		}
		return p, nil
	}

	used := h.guestChecks(ctx)
	if used >= GuestCheckLimit {
		return nil, ErrGuestLimitReached
	}

	p, err := h.api.CheckHoaxGuest(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("check error: %w", err)
	}
	if err := h.store.Repos().Metadata.SetInt(ctx, metadata.KeyGuestChecks, used+1); err != nil {
		h.log.Warn(ctx, "failed to save guest check count", "error", err)
	}
	return p, nil
}

func (h *hoaxService) GuestChecksLeft(ctx context.Context) int {
	return max(GuestCheckLimit-h.guestChecks(ctx), 0)
}

func (h *hoaxService) guestChecks(ctx context.Context) int {
	n, err := h.store.Repos().Metadata.GetInt(ctx, metadata.KeyGuestChecks)
	if err != nil {
		h.log.Warn(ctx, "failed to read guest check count", "error", err)
	}
	return n
}
