package exchange

// Wire DTOs for the credential server API: JSON bodies with camelCase
// keys, binary protocol messages carried as base64 strings.

type registerStartRequest struct {
	ClientIdentifier    string `json:"clientIdentifier"`
	RegistrationRequest string `json:"registrationRequest"`
}

type registerStartResponse struct {
	RegistrationResponse string `json:"registrationResponse"`
}

type registerFinishRequest struct {
	ClientIdentifier   string `json:"clientIdentifier"`
	RegistrationRecord string `json:"registrationRecord"`
	EncryptedBundle    string `json:"encryptedBundle,omitempty"`
}

type loginStartRequest struct {
	ClientIdentifier  string `json:"clientIdentifier"`
	StartLoginRequest string `json:"startLoginRequest"`
}

type loginStartResponse struct {
	LoginResponse string `json:"loginResponse"`
	StateKey      string `json:"stateKey"`
}

type loginFinishRequest struct {
	ClientIdentifier   string `json:"clientIdentifier"`
	StateKey           string `json:"stateKey"`
	FinishLoginRequest string `json:"finishLoginRequest"`
}

type loginFinishResponse struct {
	Success         bool   `json:"success"`
	SessionKey      string `json:"sessionKey,omitempty"`
	EncryptedBundle string `json:"encryptedBundle,omitempty"`
}

type bundleUploadRequest struct {
	ClientIdentifier string `json:"clientIdentifier"`
	EncryptedBundle  string `json:"encryptedBundle"`
}

type successResponse struct {
	Success bool `json:"success"`
}

type errorResponse struct {
	Error string `json:"error"`
}
