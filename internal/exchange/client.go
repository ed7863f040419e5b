// Package exchange implements the client side of the PAKE registration
// and login sub-protocols against the remote credential server. The
// password itself is only ever handed to the injected pake.Engine; the
// wire carries protocol messages and a one-way digest of the username.
package exchange

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/mnbf9rca/family-medical-app-sub001/internal/logging"
	"github.com/mnbf9rca/family-medical-app-sub001/internal/pake"
)

// registrationFailedMarker is the body marker the server sends with a 400
// when the identifier is already registered.
const registrationFailedMarker = "Registration failed"

// deviceIDHeader carries the per-install identifier on every request.
const deviceIDHeader = "X-Device-Id"

// LoginResult is the outcome of a successful login run.
type LoginResult struct {
	// ExportSecret is the PAKE export output; consume immediately, wipe,
	// never persist.
	ExportSecret []byte

	// SessionKey is the transport session key, distinct from ExportSecret.
	SessionKey []byte

	// Bundle is the optional opaque account blob the server returned,
	// passed through untouched.
	Bundle []byte
}

// Client performs the credential exchange sub-protocols. Implementations
// hold no state across calls beyond the one in-flight protocol transcript.
type Client interface {
	// Register runs the two-round-trip registration. On success it returns
	// the export secret. A server rejection of the upload is reported as
	// ErrRegistrationFailed; the existence probe is the caller's job.
	Register(ctx context.Context, username string, password []byte) ([]byte, error)

	// Login runs the two-round-trip login. Local finalization failure and a
	// server 401 are both reported as ErrAuthenticationFailed.
	Login(ctx context.Context, username string, password []byte) (*LoginResult, error)

	// UploadBundle sends previously wrapped account material for
	// new-device recovery. The blob is opaque to this layer.
	UploadBundle(ctx context.Context, username string, bundle []byte) error
}

// HTTPClient is the JSON-over-HTTPS implementation of Client.
type HTTPClient struct {
	baseURL     string
	http        *http.Client
	engine      pake.Engine
	log         logging.Logger
	deviceID    string
	testingMode bool
}

// Option configures an HTTPClient.
type Option func(*HTTPClient)

// WithHTTPClient substitutes the underlying transport, mainly for tests.
func WithHTTPClient(h *http.Client) Option {
	return func(c *HTTPClient) { c.http = h }
}

// WithDeviceID sets the per-install identifier sent on every request.
func WithDeviceID(id string) Option {
	return func(c *HTTPClient) { c.deviceID = id }
}

// WithTestingMode enables the automated-UI-testing bypass for reserved
// usernames. Never enable this outside test builds.
func WithTestingMode(enabled bool) Option {
	return func(c *HTTPClient) { c.testingMode = enabled }
}

// NewHTTPClient constructs a protocol client against baseURL using the
// given PAKE engine.
func NewHTTPClient(baseURL string, engine pake.Engine, log logging.Logger, opts ...Option) *HTTPClient {
	c := &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
		engine:  engine,
		log:     log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *HTTPClient) Register(ctx context.Context, username string, password []byte) ([]byte, error) {
	if c.bypasses(username) {
		return bypassExportSecret(password), nil
	}

	clientID := DeriveClientIdentifier(username)
	c.log.Info(ctx, "register start", "clientId", idPrefix(clientID))

	reg, err := c.engine.NewRegistration(password)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAuthenticationFailed, err)
	}

	var startResp registerStartResponse
	err = c.post(ctx, "register/start", registerStartRequest{
		ClientIdentifier:    clientID,
		RegistrationRequest: base64.StdEncoding.EncodeToString(reg.Request()),
	}, &startResp)
	if err != nil {
		return nil, err
	}

	serverResponse, err := base64.StdEncoding.DecodeString(startResp.RegistrationResponse)
	if err != nil {
		return nil, fmt.Errorf("%w: bad registration response encoding", ErrAuthenticationFailed)
	}

	record, exportSecret, err := reg.Finalize(serverResponse)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAuthenticationFailed, err)
	}

	var finishResp successResponse
	err = c.post(ctx, "register/finish", registerFinishRequest{
		ClientIdentifier:   clientID,
		RegistrationRecord: base64.StdEncoding.EncodeToString(record),
	}, &finishResp)
	if err != nil {
		return nil, err
	}
	if !finishResp.Success {
		return nil, ErrRegistrationFailed
	}

	c.log.Info(ctx, "registered", "clientId", idPrefix(clientID))
	return exportSecret, nil
}

func (c *HTTPClient) Login(ctx context.Context, username string, password []byte) (*LoginResult, error) {
	if c.bypasses(username) {
		return &LoginResult{
			ExportSecret: bypassExportSecret(password),
			SessionKey:   bypassSessionKey(password),
		}, nil
	}

	clientID := DeriveClientIdentifier(username)
	c.log.Info(ctx, "login start", "clientId", idPrefix(clientID))

	login, err := c.engine.NewLogin(password)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAuthenticationFailed, err)
	}

	var startResp loginStartResponse
	err = c.post(ctx, "login/start", loginStartRequest{
		ClientIdentifier:  clientID,
		StartLoginRequest: base64.StdEncoding.EncodeToString(login.Request()),
	}, &startResp)
	if err != nil {
		return nil, err
	}

	serverResponse, err := base64.StdEncoding.DecodeString(startResp.LoginResponse)
	if err != nil {
		return nil, fmt.Errorf("%w: bad login response encoding", ErrAuthenticationFailed)
	}

	finish, sessionKey, exportSecret, err := login.Finalize(serverResponse)
	if err != nil {
		// Wrong password and malformed response are indistinguishable here.
		return nil, fmt.Errorf("%w: %v", ErrAuthenticationFailed, err)
	}

	var finishResp loginFinishResponse
	err = c.post(ctx, "login/finish", loginFinishRequest{
		ClientIdentifier:   clientID,
		StateKey:           startResp.StateKey,
		FinishLoginRequest: base64.StdEncoding.EncodeToString(finish),
	}, &finishResp)
	if err != nil {
		return nil, err
	}
	if !finishResp.Success {
		return nil, ErrAuthenticationFailed
	}

	result := &LoginResult{ExportSecret: exportSecret, SessionKey: sessionKey}
	if finishResp.EncryptedBundle != "" {
		bundle, err := base64.StdEncoding.DecodeString(finishResp.EncryptedBundle)
		if err != nil {
			return nil, fmt.Errorf("%w: bad bundle encoding", ErrAuthenticationFailed)
		}
		result.Bundle = bundle
	}

	c.log.Info(ctx, "login succeeded", "clientId", idPrefix(clientID))
	return result, nil
}

func (c *HTTPClient) UploadBundle(ctx context.Context, username string, bundle []byte) error {
	if c.bypasses(username) {
		return nil
	}

	clientID := DeriveClientIdentifier(username)

	var resp successResponse
	err := c.post(ctx, "bundle", bundleUploadRequest{
		ClientIdentifier: clientID,
		EncryptedBundle:  base64.StdEncoding.EncodeToString(bundle),
	}, &resp)
	if err != nil {
		return err
	}
	if !resp.Success {
		return &ServerError{Status: http.StatusOK}
	}
	return nil
}

// post sends one JSON request body and decodes the response into out,
// applying the protocol's status mapping.
func (c *HTTPClient) post(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.deviceID != "" {
		req.Header.Set(deviceIDHeader, c.deviceID)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("%w: malformed response body", ErrAuthenticationFailed)
		}
		return nil

	case resp.StatusCode == http.StatusUnauthorized:
		return ErrAuthenticationFailed

	case resp.StatusCode == http.StatusTooManyRequests:
		return &RateLimitedError{RetryAfter: retryAfter(resp)}

	case resp.StatusCode == http.StatusBadRequest:
		var body errorResponse
		if json.Unmarshal(raw, &body) == nil && body.Error == registrationFailedMarker {
			return ErrRegistrationFailed
		}
		return &ServerError{Status: resp.StatusCode}

	default:
		return &ServerError{Status: resp.StatusCode}
	}
}

func retryAfter(resp *http.Response) time.Duration {
	header := resp.Header.Get("Retry-After")
	if header == "" {
		return 0
	}
	seconds, err := strconv.Atoi(header)
	if err != nil || seconds < 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}
