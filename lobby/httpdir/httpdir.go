package httpdir

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"dolphinretro/lobby"
)

const (
	DefaultTimeout = 10 * time.Second

	// maxResponse bounds how much of a directory response is read.
	maxResponse = 4 << 20
)

// Directory talks to a lobby index server over its HTTP API.
type Directory struct {
	base   string
	client *http.Client
}

func NewDirectory(base string, client *http.Client) *Directory {
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	return &Directory{
		base:   strings.TrimRight(base, "/"),
		client: client,
	}
}

func (d *Directory) List(ctx context.Context, filters map[string]string) ([]lobby.Session, error) {
	q := url.Values{}
	for key, value := range filters {
		q.Set(key, value)
	}

	u := d.base + "/v0/list"
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	var rsp lobby.Response
	if err := d.do(ctx, http.MethodGet, u, nil, &rsp); err != nil {
		return nil, err
	}
	return rsp.Sessions, nil
}

func (d *Directory) Add(ctx context.Context, s lobby.Session) (string, error) {
	body, err := json.Marshal(s)
	if err != nil {
		return "", err
	}

	var rsp lobby.Response
	if err = d.do(ctx, http.MethodPost, d.base+"/v0/session/add", body, &rsp); err != nil {
		return "", err
	}
	return rsp.Secret, nil
}

func (d *Directory) Remove(ctx context.Context, id string) error {
	u := d.base + "/v0/session/remove?" + url.Values{"secret": {id}}.Encode()
	var rsp lobby.Response
	return d.do(ctx, http.MethodPost, u, nil, &rsp)
}

// KeepAlive keeps an added session listed.
func (d *Directory) KeepAlive(ctx context.Context, id string) error {
	u := d.base + "/v0/session/keepalive?" + url.Values{"secret": {id}}.Encode()
	var rsp lobby.Response
	return d.do(ctx, http.MethodPost, u, nil, &rsp)
}

func (d *Directory) Close() error {
	d.client.CloseIdleConnections()
	return nil
}

func (d *Directory) do(ctx context.Context, method, u string, body []byte, rsp *lobby.Response) error {
	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, r)
	if err != nil {
		return fmt.Errorf("httpdir: %s: %w", method, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("httpdir: %s %s: %w", method, req.URL.Path, err)
	}
	defer res.Body.Close()

	data, err := io.ReadAll(io.LimitReader(res.Body, maxResponse))
	if err != nil {
		return fmt.Errorf("httpdir: read %s: %w", req.URL.Path, err)
	}
	if err = json.Unmarshal(data, rsp); err != nil {
		return fmt.Errorf("httpdir: %s: status %d: decode response: %w", req.URL.Path, res.StatusCode, err)
	}
	if err = rsp.Err(); err != nil {
		return fmt.Errorf("httpdir: %s: %w", req.URL.Path, err)
	}
	return nil
}

type Driver struct{}

func (Driver) Open(u *url.URL) (lobby.Directory, error) {
	if u.Host == "" {
		return nil, fmt.Errorf("httpdir: missing host in %q", u.String())
	}
	base := url.URL{Scheme: u.Scheme, Host: u.Host, Path: u.Path}
	return NewDirectory(base.String(), nil), nil
}

func init() {
	lobby.Register("http", Driver{})
	lobby.Register("https", Driver{})
}
