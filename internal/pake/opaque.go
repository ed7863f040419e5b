package pake

import (
	"fmt"

	"github.com/bytemare/opaque"
)

// OpaqueEngine implements Engine on top of the OPAQUE reference
// implementation with its default cipher suite (ristretto255, SHA-512,
// Argon2id). Export secrets produced by this suite are 64 bytes.
type OpaqueEngine struct {
	conf *opaque.Configuration
}

// NewOpaqueEngine returns an engine using the default OPAQUE configuration.
func NewOpaqueEngine() *OpaqueEngine {
	return &OpaqueEngine{conf: opaque.DefaultConfiguration()}
}

func (e *OpaqueEngine) newClient() (*opaque.Client, error) {
	client, err := e.conf.Client()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProtocol, err)
	}
	return client, nil
}

// NewRegistration starts an OPAQUE registration run.
func (e *OpaqueEngine) NewRegistration(password []byte) (Registration, error) {
	client, err := e.newClient()
	if err != nil {
		return nil, err
	}

	request := client.RegistrationInit(password)

	return &opaqueRegistration{
		client:  client,
		request: request.Serialize(),
	}, nil
}

// NewLogin starts an OPAQUE login (AKE) run.
func (e *OpaqueEngine) NewLogin(password []byte) (Login, error) {
	client, err := e.newClient()
	if err != nil {
		return nil, err
	}

	ke1 := client.LoginInit(password)

	return &opaqueLogin{
		client:  client,
		request: ke1.Serialize(),
	}, nil
}

type opaqueRegistration struct {
	client  *opaque.Client
	request []byte
	done    bool
}

func (r *opaqueRegistration) Request() []byte { return r.request }

func (r *opaqueRegistration) Finalize(serverResponse []byte) ([]byte, []byte, error) {
	if r.done {
		return nil, nil, fmt.Errorf("%w: registration already finalized", ErrProtocol)
	}
	r.done = true

	response, err := r.client.Deserialize.RegistrationResponse(serverResponse)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrProtocol, err)
	}

	record, exportSecret := r.client.RegistrationFinalize(response)

	return record.Serialize(), exportSecret, nil
}

type opaqueLogin struct {
	client  *opaque.Client
	request []byte
	done    bool
}

func (l *opaqueLogin) Request() []byte { return l.request }

func (l *opaqueLogin) Finalize(serverResponse []byte) ([]byte, []byte, []byte, error) {
	if l.done {
		return nil, nil, nil, fmt.Errorf("%w: login already finalized", ErrProtocol)
	}
	l.done = true

	ke2, err := l.client.Deserialize.KE2(serverResponse)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("%w: %v", ErrProtocol, err)
	}

	ke3, exportSecret, err := l.client.LoginFinish(ke2)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("%w: %v", ErrProtocol, err)
	}

	return ke3.Serialize(), l.client.SessionKey(), exportSecret, nil
}
