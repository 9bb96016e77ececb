package msys2

import (
	"context"
	"net/http"
	"path"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"
	"github.com/google/go-github/v68/github"
	"golang.org/x/oauth2"
)

const (
	DefaultReleaseOwner = "msys2"
	DefaultReleaseRepo  = "msys2-installer"
	DefaultFallbackURL  = "https://github.com/msys2/msys2-installer/releases/latest/download/msys2-base-x86_64-latest.sfx.exe"
)

// DefaultAssetMatch selects the 64-bit self-extracting archive.
var DefaultAssetMatch = []string{"x86_64", ".sfx.exe"}

// NewGitHubClient returns an API client, authenticated when token is set.
func NewGitHubClient(ctx context.Context, token string) *github.Client {
	var hc *http.Client
	if token != "" {
		hc = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}))
	}
	return github.NewClient(hc)
}

// ReleaseSource finds the installer asset of the latest release.
type ReleaseSource struct {
	Client      *github.Client
	Owner       string
	Repo        string
	Match       []string
	FallbackURL string
	Log         *log.Logger
}

// Asset is a downloadable installer.
type Asset struct {
	Name string
	URL  string
}

// Latest returns the newest matching asset. When the API is unreachable or
// no asset matches, the fixed fallback URL is used.
func (s *ReleaseSource) Latest(ctx context.Context) (Asset, error) {
	owner, repo := s.Owner, s.Repo
	if owner == "" {
		owner = DefaultReleaseOwner
	}
	if repo == "" {
		repo = DefaultReleaseRepo
	}
	match := s.Match
	if len(match) == 0 {
		match = DefaultAssetMatch
	}

	if s.Client != nil {
		rel, _, err := s.Client.Repositories.GetLatestRelease(ctx, owner, repo)
		switch {
		case err != nil:
			s.warn("release lookup failed", "repo", owner+"/"+repo, "err", err)
		default:
			if a, ok := SelectAsset(rel.Assets, match...); ok {
				s.debug("selected asset", "release", rel.GetTagName(), "asset", a.GetName())
				return Asset{Name: a.GetName(), URL: a.GetBrowserDownloadURL()}, nil
			}
			s.warn("no matching asset", "release", rel.GetTagName(), "match", match)
		}
	}

	if s.FallbackURL == "" {
		return Asset{}, errors.Newf("no installer asset found in %s/%s", owner, repo)
	}
	return Asset{Name: path.Base(s.FallbackURL), URL: s.FallbackURL}, nil
}

// SelectAsset returns the first asset whose name contains every substring.
func SelectAsset(assets []*github.ReleaseAsset, match ...string) (*github.ReleaseAsset, bool) {
	for _, a := range assets {
		name := a.GetName()
		ok := name != "" && a.GetBrowserDownloadURL() != ""
		for _, m := range match {
			if !strings.Contains(name, m) {
				ok = false
				break
			}
		}
		if ok {
			return a, true
		}
	}
	return nil, false
}

func (s *ReleaseSource) warn(msg string, kv ...any) {
	if s.Log != nil {
		s.Log.Warn(msg, kv...)
	}
}

func (s *ReleaseSource) debug(msg string, kv ...any) {
	if s.Log != nil {
		s.Log.Debug(msg, kv...)
	}
}
