package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/lewebsimple/autologin/internal/domain"
	"github.com/lewebsimple/autologin/internal/email"
	"github.com/lewebsimple/autologin/internal/metrics"
	"github.com/lewebsimple/autologin/internal/password"
	"github.com/lewebsimple/autologin/internal/repository"
)

const DefaultLinkTTL = 30 * 24 * time.Hour

// ErrNotHandled means the request is not a login link for this deployment
// and should continue through normal routing.
var ErrNotHandled = errors.New("not a login link request")

// Failure is a terminal, user-visible rejection of a login link.
type Failure struct {
	Kind domain.FailureKind
	Err  error
}

func (f *Failure) Error() string {
	if f.Err != nil {
		return string(f.Kind) + ": " + f.Err.Error()
	}
	return string(f.Kind)
}

func (f *Failure) Unwrap() error { return f.Err }

func fail(kind domain.FailureKind, err error) *Failure {
	return &Failure{Kind: kind, Err: err}
}

type LinkConfig struct {
	BaseURL        string
	Endpoint       string
	ValidateDomain bool
	CheckSignature bool
	DefaultTTL     time.Duration
}

// Request is the part of an inbound HTTP request the verifier looks at.
type Request struct {
	Path string
	Host string
}

// Login is a successfully verified link.
type Login struct {
	User        *domain.User
	RedirectURL string
}

type LinkUsecase struct {
	records  repository.RecordStore
	users    repository.UserRepository
	hasher   password.Hasher
	email    email.Sender
	logger   *slog.Logger
	cfg      LinkConfig
	baseHost string
	now      func() time.Time
}

func NewLinkUsecase(
	records repository.RecordStore,
	users repository.UserRepository,
	hasher password.Hasher,
	emailSender email.Sender,
	cfg LinkConfig,
	logger *slog.Logger,
) *LinkUsecase {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.DefaultTTL <= 0 {
		cfg.DefaultTTL = DefaultLinkTTL
	}

	var baseHost string
	if u, err := url.Parse(cfg.BaseURL); err == nil {
		baseHost = u.Hostname()
	}

	return &LinkUsecase{
		records:  records,
		users:    users,
		hasher:   hasher,
		email:    emailSender,
		logger:   logger.With("component", "link"),
		cfg:      cfg,
		baseHost: baseHost,
		now:      time.Now,
	}
}

// Issue returns the login link for userID and redirect, creating the stored
// record if needed. A live record is re-stored unchanged with a fresh TTL, so
// repeated calls return the same link.
func (u *LinkUsecase) Issue(ctx context.Context, userID, redirect string, ttl time.Duration) (string, error) {
	if userID == "" {
		return "", fmt.Errorf("%w: user id is required", domain.ErrInvalidInput)
	}
	if ttl <= 0 {
		ttl = u.cfg.DefaultTTL
	}

	redirect = u.normalizeRedirect(redirect)
	public := PublicToken(u.cfg.Endpoint, userID, redirect)
	key := recordKey(public)

	existing, err := u.records.Get(ctx, key)
	if err == nil {
		if err := u.records.Put(ctx, key, existing, ttl); err != nil {
			return "", fmt.Errorf("refresh magic record: %w", err)
		}
		metrics.LinksIssuedTotal.WithLabelValues("refreshed").Inc()
		return u.linkURL(public), nil
	}
	if !errors.Is(err, domain.ErrRecordNotFound) {
		u.logger.WarnContext(ctx, "read magic record, issuing a new one", "error", err)
	}

	private, err := u.hasher.Hash(Signature(public, u.cfg.Endpoint, u.baseHost, userID, u.cfg.ValidateDomain))
	if err != nil {
		return "", fmt.Errorf("hash signature: %w", err)
	}

	raw, err := domain.NewMagicRecord(userID, private, redirect, u.now()).Encode()
	if err != nil {
		return "", err
	}
	if err := u.records.Put(ctx, key, raw, ttl); err != nil {
		return "", fmt.Errorf("store magic record: %w", err)
	}

	metrics.LinksIssuedTotal.WithLabelValues("created").Inc()
	return u.linkURL(public), nil
}

// Lookup returns the link for userID and redirect only if a live record
// exists, its user still resolves and its signature verifies. It never
// writes to the store.
func (u *LinkUsecase) Lookup(ctx context.Context, userID, redirect string) (string, error) {
	redirect = u.normalizeRedirect(redirect)
	public := PublicToken(u.cfg.Endpoint, userID, redirect)

	raw, err := u.records.Get(ctx, recordKey(public))
	if err != nil {
		return "", domain.ErrLinkNotFound
	}
	rec, err := domain.DecodeMagicRecord(raw)
	if err != nil || rec.UserID == "" || rec.Private == "" {
		return "", domain.ErrLinkNotFound
	}
	if _, err := u.users.FindByID(ctx, rec.UserID); err != nil {
		return "", domain.ErrLinkNotFound
	}

	sig := Signature(public, u.cfg.Endpoint, u.baseHost, rec.UserID, u.cfg.ValidateDomain)
	if ok, err := u.hasher.Verify(sig, rec.Private); err != nil || !ok {
		return "", domain.ErrLinkNotFound
	}
	return u.linkURL(public), nil
}

// Send issues a link for an existing user and emails it to them.
func (u *LinkUsecase) Send(ctx context.Context, userID, redirect string, ttl time.Duration) (string, error) {
	user, err := u.users.FindByID(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("find user: %w", err)
	}
	if user.Email == "" {
		return "", fmt.Errorf("%w: user has no email address", domain.ErrInvalidInput)
	}

	if ttl <= 0 {
		ttl = u.cfg.DefaultTTL
	}
	link, err := u.Issue(ctx, user.ID, redirect, ttl)
	if err != nil {
		return "", err
	}

	subject := "Your sign-in link"
	body := fmt.Sprintf(
		`<p>Click the link below to sign in (expires in %s):</p><p><a href="%s">%s</a></p>`,
		humanDuration(ttl), link, link,
	)
	if err := u.email.Send(ctx, user.Email, subject, body); err != nil {
		return "", fmt.Errorf("send login link: %w", err)
	}
	return link, nil
}

// Verify runs a login link request through parse, endpoint match, lookup,
// user resolution and (optionally) signature verification. It returns
// ErrNotHandled for requests that are not login links and a *Failure for
// rejected links.
func (u *LinkUsecase) Verify(ctx context.Context, req Request) (*Login, error) {
	segments := strings.Split(strings.Trim(req.Path, "/"), "/")
	if len(segments) != 2 || segments[0] == "" || segments[1] == "" {
		return nil, ErrNotHandled
	}
	endpoint, public := segments[0], segments[1]
	if endpoint != u.cfg.Endpoint {
		return nil, ErrNotHandled
	}

	login, err := u.verify(ctx, public, req.Host)
	if err != nil {
		var f *Failure
		if errors.As(err, &f) {
			metrics.LoginsTotal.WithLabelValues(strings.ToLower(string(f.Kind))).Inc()
		}
		return nil, err
	}
	metrics.LoginsTotal.WithLabelValues("success").Inc()
	return login, nil
}

func (u *LinkUsecase) verify(ctx context.Context, public, host string) (*Login, error) {
	raw, err := u.records.Get(ctx, recordKey(public))
	if err != nil {
		if !errors.Is(err, domain.ErrRecordNotFound) {
			u.logger.WarnContext(ctx, "read magic record", "error", err)
		}
		return nil, fail(domain.InvalidLink, err)
	}

	rec, err := domain.DecodeMagicRecord(raw)
	if err != nil {
		u.logger.WarnContext(ctx, "malformed magic record", "error", err)
		return nil, fail(domain.InvalidLink, err)
	}

	if rec.UserID == "" {
		return nil, fail(domain.InvalidUser, domain.ErrUserNotFound)
	}
	user, err := u.users.FindByID(ctx, rec.UserID)
	if err != nil {
		if !errors.Is(err, domain.ErrUserNotFound) {
			u.logger.ErrorContext(ctx, "resolve link user", "user_id", rec.UserID, "error", err)
		}
		return nil, fail(domain.InvalidUser, err)
	}

	if u.cfg.CheckSignature {
		if rec.Private == "" {
			return nil, fail(domain.InvalidAuth, nil)
		}
		if host = hostname(host); host == "" {
			host = u.baseHost
		}
		sig := Signature(public, u.cfg.Endpoint, host, rec.UserID, u.cfg.ValidateDomain)
		ok, err := u.hasher.Verify(sig, rec.Private)
		if err != nil {
			return nil, fail(domain.InvalidAuth, err)
		}
		if !ok {
			return nil, fail(domain.InvalidAuth, nil)
		}
	}

	return &Login{User: user, RedirectURL: u.cfg.BaseURL + rec.Redirect}, nil
}

// normalizeRedirect strips the deployment base URL and guarantees a single
// leading slash, so stored redirects are always site-relative paths.
func (u *LinkUsecase) normalizeRedirect(redirect string) string {
	if rest, ok := strings.CutPrefix(redirect, u.cfg.BaseURL); ok && u.cfg.BaseURL != "" {
		if rest == "" || strings.ContainsAny(rest[:1], "/?#") {
			redirect = rest
		}
	}
	return "/" + strings.TrimLeft(redirect, "/")
}

func (u *LinkUsecase) linkURL(public string) string {
	return u.cfg.BaseURL + "/" + u.cfg.Endpoint + "/" + public
}

func humanDuration(d time.Duration) string {
	switch {
	case d >= 48*time.Hour:
		return fmt.Sprintf("%d days", int(d.Hours()/24))
	case d >= 2*time.Hour:
		return fmt.Sprintf("%d hours", int(d.Hours()))
	default:
		return fmt.Sprintf("%d minutes", int(d.Minutes()))
	}
}
