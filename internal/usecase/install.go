package usecase

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/big"

	"github.com/lewebsimple/autologin/internal/domain"
	"github.com/lewebsimple/autologin/internal/repository"
)

const (
	// OptionName is the option key holding the deployment settings.
	OptionName = "autologin"

	minEndpointBytes = 4
	maxEndpointBytes = 8
)

// InstallUsecase manages the deployment endpoint. The endpoint is written
// once and never overwritten; uninstalling is the only way to rotate it.
type InstallUsecase struct {
	options repository.OptionRepository
	logger  *slog.Logger
}

func NewInstallUsecase(options repository.OptionRepository, logger *slog.Logger) *InstallUsecase {
	return &InstallUsecase{
		options: options,
		logger:  logger.With("component", "install"),
	}
}

// Install generates an endpoint unless one is already stored. It returns the
// effective settings and whether they were created by this call.
func (u *InstallUsecase) Install(ctx context.Context) (*domain.Settings, bool, error) {
	endpoint, err := randomHex(minEndpointBytes, maxEndpointBytes)
	if err != nil {
		return nil, false, fmt.Errorf("generate endpoint: %w", err)
	}

	raw, err := json.Marshal(domain.Settings{Endpoint: endpoint})
	if err != nil {
		return nil, false, fmt.Errorf("encode settings: %w", err)
	}

	created, err := u.options.AddIfAbsent(ctx, OptionName, raw)
	if err != nil {
		return nil, false, fmt.Errorf("store settings: %w", err)
	}
	if created {
		u.logger.InfoContext(ctx, "endpoint installed", "endpoint", endpoint)
		return &domain.Settings{Endpoint: endpoint}, true, nil
	}

	settings, err := u.Settings(ctx)
	if err != nil {
		return nil, false, err
	}
	return settings, false, nil
}

// Settings loads the stored settings. Returns domain.ErrNotInstalled when
// nothing usable is stored.
func (u *InstallUsecase) Settings(ctx context.Context) (*domain.Settings, error) {
	raw, err := u.options.Get(ctx, OptionName)
	if err != nil {
		if errors.Is(err, domain.ErrOptionNotFound) {
			return nil, domain.ErrNotInstalled
		}
		return nil, fmt.Errorf("load settings: %w", err)
	}

	var s domain.Settings
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("decode settings: %w", err)
	}
	if s.Endpoint == "" {
		return nil, domain.ErrNotInstalled
	}
	return &s, nil
}

// Uninstall deletes the settings. Every outstanding link stops resolving.
func (u *InstallUsecase) Uninstall(ctx context.Context) error {
	if err := u.options.Delete(ctx, OptionName); err != nil {
		return fmt.Errorf("delete settings: %w", err)
	}
	u.logger.InfoContext(ctx, "endpoint uninstalled")
	return nil
}

// randomHex returns between min and max random bytes, hex encoded.
func randomHex(min, max int) (string, error) {
	n := min
	if max > min {
		extra, err := rand.Int(rand.Reader, big.NewInt(int64(max-min+1)))
		if err != nil {
			return "", err
		}
		n += int(extra.Int64())
	}

	raw := make([]byte, n)
	if _, err := io.ReadFull(rand.Reader, raw); err != nil {
		return "", err
	}
	return hex.EncodeToString(raw), nil
}
