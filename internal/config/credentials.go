package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// File names of the two persisted records inside the state directory.
const (
	CredentialsFile = "credentials.json"
	AuthStateFile   = "auth_config.json"
)

// Credential keys as stored in credentials.json.
const (
	KeyComposioAPIKey        = "composio_api_key"
	KeyOpenAIAPIKey          = "openai_api_key"
	KeyAzureOpenAIEndpoint   = "azure_openai_endpoint"
	KeyOpenAIAPIVersion      = "openai_api_version"
	KeyAzureOpenAIDeployment = "azure_openai_deployment"
	KeyGmailClientID         = "gmail_client_id"
	KeyGmailClientSecret     = "gmail_client_secret"
	KeyUserID                = "user_id"
	KeyServerHost            = "server_host"
	KeyServerPort            = "server_port"
)

// Defaults applied when neither the record nor the environment has a value.
const (
	DefaultOpenAIAPIVersion      = "2024-12-01-preview"
	DefaultAzureOpenAIDeployment = "gpt-4o"
	DefaultUserID                = "default_user"
	DefaultServerHost            = "0.0.0.0"
	DefaultServerPort            = 5001
)

// StateDirEnv overrides the directory holding the persisted records.
const StateDirEnv = "MAILAGENT_STATE_DIR"

// requiredKeys lists the credentials without which no provider client can be
// built, in the order Missing reports them.
var requiredKeys = []string{
	KeyComposioAPIKey,
	KeyOpenAIAPIKey,
	KeyAzureOpenAIEndpoint,
}

type keySpec struct {
	env      string
	legacy   string
	fallback string
	secret   bool
}

var keySpecs = map[string]keySpec{
	KeyComposioAPIKey:        {env: "COMPOSIO_API_KEY", secret: true},
	KeyOpenAIAPIKey:          {env: "OPENAI_API_KEY", secret: true},
	KeyAzureOpenAIEndpoint:   {env: "AZURE_OPENAI_ENDPOINT"},
	KeyOpenAIAPIVersion:      {env: "OPENAI_API_VERSION", fallback: DefaultOpenAIAPIVersion},
	KeyAzureOpenAIDeployment: {env: "AZURE_OPENAI_DEPLOYMENT", fallback: DefaultAzureOpenAIDeployment},
	KeyGmailClientID:         {env: "GMAIL_CLIENT_ID", secret: true},
	KeyGmailClientSecret:     {env: "GMAIL_CLIENT_SECRET", secret: true},
	KeyUserID:                {fallback: DefaultUserID},
	KeyServerHost:            {legacy: "flask_host", fallback: DefaultServerHost},
	KeyServerPort:            {legacy: "flask_port", fallback: strconv.Itoa(DefaultServerPort)},
}

// SettableKeys returns the keys accepted by Set, in a stable order.
func SettableKeys() []string {
	return []string{
		KeyComposioAPIKey,
		KeyOpenAIAPIKey,
		KeyAzureOpenAIEndpoint,
		KeyOpenAIAPIVersion,
		KeyAzureOpenAIDeployment,
		KeyGmailClientID,
		KeyGmailClientSecret,
		KeyUserID,
		KeyServerHost,
		KeyServerPort,
	}
}

// EnvVar returns the environment variable consulted for key, if any.
func EnvVar(key string) string {
	return keySpecs[key].env
}

// Credentials resolves settings from the stored record, then the environment,
// then defaults. Records written under the older flask_host and flask_port
// names still resolve server_host and server_port.
type Credentials struct {
	rec    *record
	getenv func(string) string
}

// LoadCredentials opens credentials.json in dir. It never fails: an absent or
// corrupt file yields an empty record.
func LoadCredentials(dir string) *Credentials {
	return &Credentials{
		rec:    loadRecord(filepath.Join(dir, CredentialsFile)),
		getenv: os.Getenv,
	}
}

// Get resolves key. Unknown keys resolve from the stored record only.
func (c *Credentials) Get(key string) string {
	if v := c.rec.get(key); v != "" {
		return v
	}
	spec := keySpecs[key]
	if spec.legacy != "" {
		if v := c.rec.get(spec.legacy); v != "" {
			return v
		}
	}
	if spec.env != "" {
		if v := c.getenv(spec.env); v != "" {
			return v
		}
	}
	return spec.fallback
}

// Set stores value under key and rewrites the record.
func (c *Credentials) Set(key, value string) error {
	if _, ok := keySpecs[key]; !ok {
		return fmt.Errorf("unknown credential %q", key)
	}
	if key == KeyServerPort {
		if _, err := strconv.Atoi(value); err != nil {
			return fmt.Errorf("invalid %s %q: %w", key, value, err)
		}
	}
	return c.rec.set(key, value)
}

// SetMany applies every non-empty value in values. Each applied value is
// persisted before the next one is considered.
func (c *Credentials) SetMany(values map[string]string) error {
	for _, key := range SettableKeys() {
		v, ok := values[key]
		if !ok || v == "" {
			continue
		}
		if err := c.Set(key, v); err != nil {
			return err
		}
	}
	return nil
}

// IsConfigured reports whether every required credential resolves.
func (c *Credentials) IsConfigured() bool {
	return len(c.Missing()) == 0
}

// Missing lists the required credentials that do not resolve, always in the
// order composio_api_key, openai_api_key, azure_openai_endpoint.
func (c *Credentials) Missing() []string {
	missing := []string{}
	for _, key := range requiredKeys {
		if c.Get(key) == "" {
			missing = append(missing, key)
		}
	}
	return missing
}

func (c *Credentials) ComposioAPIKey() string      { return c.Get(KeyComposioAPIKey) }
func (c *Credentials) OpenAIAPIKey() string        { return c.Get(KeyOpenAIAPIKey) }
func (c *Credentials) AzureOpenAIEndpoint() string { return c.Get(KeyAzureOpenAIEndpoint) }
func (c *Credentials) OpenAIAPIVersion() string    { return c.Get(KeyOpenAIAPIVersion) }
func (c *Credentials) Deployment() string          { return c.Get(KeyAzureOpenAIDeployment) }
func (c *Credentials) GmailClientID() string       { return c.Get(KeyGmailClientID) }
func (c *Credentials) GmailClientSecret() string   { return c.Get(KeyGmailClientSecret) }
func (c *Credentials) UserID() string              { return c.Get(KeyUserID) }
func (c *Credentials) ServerHost() string          { return c.Get(KeyServerHost) }

// ServerPort returns the configured listen port, falling back to the default
// when the stored value is not a number.
func (c *Credentials) ServerPort() int {
	port, err := strconv.Atoi(c.Get(KeyServerPort))
	if err != nil || port <= 0 {
		return DefaultServerPort
	}
	return port
}

// DefaultStateDir returns the directory used when no state dir is configured:
// the value of MAILAGENT_STATE_DIR, else the directory of the running binary,
// else the working directory.
func DefaultStateDir() string {
	if dir := os.Getenv(StateDirEnv); dir != "" {
		return dir
	}
	if exe, err := os.Executable(); err == nil {
		return filepath.Dir(exe)
	}
	return "."
}
